/*
Package tarmac provides the tarmac: provider, which runs queries through the
SQL capability of the Tarmac host runtime from a WebAssembly function.

Queries and statements are sent as protobuf SQLQuery and SQLExec payloads to
the host's sql/query and sql/exec functions. The URI payload selects the
host namespace; "tarmac:" uses DefaultNamespace.

	p, err := tarmac.New(tarmac.Config{})
	if err != nil {
		// handle error
	}
	conn, err := p.Open("tarmac:")

Host status codes 400, 404 and 500 are reported as *dbc.SQLError carrying
the host's status text. Query data is decoded from JSON, either an array of
objects keyed by column name or an array of arrays in column order.

Unless a logger is configured, connection records are forwarded to the
host's logging capability.
*/
package tarmac
