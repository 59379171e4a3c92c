/*
Package sqldb adapts database/sql drivers to the dbc engine boundary.

Each handle owns one physical connection taken from a sqlx pool, so
transaction control and session state stay on the connection that issued
them. Query results are fetched in full and converted to text: NULL becomes
an empty cell with its null flag set, integers are printed in decimal,
floats in their shortest form, booleans as "true" or "false" and times in
RFC 3339 with nanoseconds.

# Basic Usage

	import _ "modernc.org/sqlite"

	e, err := sqldb.New(sqldb.Config{DriverName: "sqlite"})
	if err != nil {
		// handle error
	}

	p, err := dbc.NewProvider(dbc.ProviderConfig{Schemes: []string{"sqlite"}, Engine: e})

The driver must be registered by the caller, usually with a blank import.
*/
package sqldb
