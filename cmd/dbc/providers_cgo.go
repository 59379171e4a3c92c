//go:build cgo

package main

import (
	"log/slog"

	"github.com/dbcore/dbc"
	"github.com/dbcore/dbc/backend/duckdb"
	"github.com/dbcore/dbc/backend/sqlite3"
)

var cgoProviders = []ProviderFactory{
	func(logger *slog.Logger) (dbc.Provider, error) {
		return sqlite3.New(sqlite3.Config{Logger: logger})
	},
	func(logger *slog.Logger) (dbc.Provider, error) {
		return duckdb.New(duckdb.Config{Logger: logger})
	},
}
