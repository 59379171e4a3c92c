// Package sqlite3 provides the sqlite3: provider on the cgo driver
// github.com/mattn/go-sqlite3.
package sqlite3

import (
	"log/slog"

	"github.com/dbcore/dbc"
	"github.com/dbcore/dbc/backend/sqldb"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// Scheme is the URI scheme served by this provider.
	Scheme = "sqlite3"

	// DriverName is the database/sql driver registered by go-sqlite3.
	DriverName = "sqlite3"
)

// Config configures the provider.
type Config struct {
	// Logger is passed to connections. If nil, records are discarded.
	Logger *slog.Logger
}

// New returns a provider for the sqlite3 scheme. The URI payload is passed
// to the driver as its data source name.
func New(cfg Config) (*dbc.EngineProvider, error) {
	e, err := sqldb.New(sqldb.Config{DriverName: DriverName})
	if err != nil {
		return nil, err
	}
	return dbc.NewProvider(dbc.ProviderConfig{
		Name:    "sqlite3",
		Schemes: []string{Scheme},
		Engine:  e,
		Logger:  cfg.Logger,
	})
}
