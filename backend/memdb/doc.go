/*
Package memdb provides a scripted in-memory engine for the dbc client.

The engine answers queries from responses configured per query text and
records every call so tests can assert exactly what reached the engine,
including the transaction-control statements a connection issues.

# Basic Usage

	e := memdb.New(memdb.Config{})
	e.OnQuery("SELECT 1").ReturnRows([]string{"1"}, []string{"1"})
	e.OnQuery("SELEC 1").ReturnError(`near "SELEC": syntax error`)

	p, _ := memdb.NewProvider(e)
	reg := dbc.NewRegistry(dbc.RegistryConfig{})
	_ = reg.Register(p)

	conn, _ := reg.Open("memdb:test")

# Inspecting Calls

	for _, c := range e.Calls() {
		// c.Op, c.Name, c.Query
	}

Unscripted queries succeed with an empty result unless Config.Strict is set.
*/
package memdb
