// Package sqlite provides the sqlite: provider on the pure Go
// modernc.org/sqlite driver.
//
// The URI payload is the database file name, or ":memory:" for a private
// in-memory database.
//
//	p, err := sqlite.New(sqlite.Config{})
//	conn, err := p.Open("sqlite:/var/lib/app/data.db")
package sqlite

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/dbcore/dbc"
	"github.com/dbcore/dbc/backend/sqldb"
	_ "modernc.org/sqlite"
)

const (
	// Scheme is the URI scheme served by this provider.
	Scheme = "sqlite"

	// DriverName is the database/sql driver registered by modernc.org/sqlite.
	DriverName = "sqlite"
)

// Config configures the provider.
type Config struct {
	// BusyTimeout makes the engine wait this many milliseconds for a locked
	// database before failing. Zero leaves the driver default.
	BusyTimeout int

	// Logger is passed to connections. If nil, records are discarded.
	Logger *slog.Logger
}

// New returns a provider for the sqlite scheme.
func New(cfg Config) (*dbc.EngineProvider, error) {
	e, err := sqldb.New(sqldb.Config{DriverName: DriverName, DSN: dsn(cfg)})
	if err != nil {
		return nil, err
	}
	return dbc.NewProvider(dbc.ProviderConfig{
		Name:    "sqlite",
		Schemes: []string{Scheme},
		Engine:  e,
		Logger:  cfg.Logger,
	})
}

func dsn(cfg Config) func(string) string {
	if cfg.BusyTimeout <= 0 {
		return nil
	}
	pragma := "_pragma=busy_timeout(" + strconv.Itoa(cfg.BusyTimeout) + ")"
	return func(name string) string {
		if strings.Contains(name, "?") {
			return name + "&" + pragma
		}
		return name + "?" + pragma
	}
}
