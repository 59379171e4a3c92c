/*
Package dbc provides an engine-agnostic database client.

Application code talks to four interfaces: Connection, Statement,
PreparedStatement and Rowset. It never names a concrete engine. Instead a
Registry maps the scheme of a connection URI ("sqlite:/tmp/app.db",
"memdb:test") to the first registered Provider that supports it, and the
Provider hands back an open Connection.

Providers are registered explicitly, usually once at startup:

	reg := dbc.NewRegistry(dbc.RegistryConfig{})
	p, _ := sqlite.New(sqlite.Config{})
	_ = reg.Register(p)

	conn, err := reg.Open("sqlite:/tmp/app.db")
	if err != nil {
		return err
	}
	defer conn.Close()

	stmt, _ := conn.NewStatement()
	rs, err := stmt.ExecuteQuery("SELECT id, name FROM users")
	for ok := rs.First(); ok; ok = rs.Next() {
		name, _ := rs.Text(1)
		fmt.Println(name)
	}

Results are fully materialized string cells. The typed getters (Int, Int64,
Float32, Float64) are lenient and parse the leading numeric prefix of a cell
the way C's atoi and atof do; the Parse* getters are strict and fail with
ErrConversion.

Closing an open Connection always issues a final COMMIT, then releases the
engine handle. This covers transactions begun with BeginTransaction and
those begun by executing BEGIN through a Statement. When no transaction is
active the engine may reject the COMMIT; that rejection is ignored. Callers
that want rollback on early return must call Rollback themselves.

Prepared statements substitute bound values into "?" marks as plain text.
Values are not quoted or escaped; use QuoteString for untrusted text.

Backends plug in through the Engine boundary and EngineProvider. See the
backend/ packages for SQLite, DuckDB, an in-memory scripted engine and the
Tarmac host runtime.
*/
package dbc
