// Package duckdb provides the duckdb: provider on github.com/duckdb/duckdb-go.
//
// An empty payload opens an in-memory database; otherwise the payload is the
// database file path, optionally followed by DuckDB configuration options.
package duckdb

import (
	"log/slog"

	"github.com/dbcore/dbc"
	"github.com/dbcore/dbc/backend/sqldb"
	_ "github.com/duckdb/duckdb-go/v2"
)

const (
	// Scheme is the URI scheme served by this provider.
	Scheme = "duckdb"

	// DriverName is the database/sql driver registered by duckdb-go.
	DriverName = "duckdb"
)

// Config configures the provider.
type Config struct {
	// Logger is passed to connections. If nil, records are discarded.
	Logger *slog.Logger
}

// New returns a provider for the duckdb scheme.
func New(cfg Config) (*dbc.EngineProvider, error) {
	e, err := sqldb.New(sqldb.Config{DriverName: DriverName})
	if err != nil {
		return nil, err
	}
	return dbc.NewProvider(dbc.ProviderConfig{
		Name:    "duckdb",
		Schemes: []string{Scheme},
		Engine:  e,
		Logger:  cfg.Logger,
	})
}
