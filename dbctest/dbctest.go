// Package dbctest provides a conformance suite for dbc providers backed by
// SQL engines.
package dbctest

import (
	"errors"
	"testing"

	"github.com/dbcore/dbc"
)

// URIFunc returns the URI of a fresh, empty database. Every call to the
// provider with the same URI must reach the same database.
type URIFunc func(t *testing.T) string

const (
	createItems = "CREATE TABLE items (id INTEGER, name VARCHAR(32), price DOUBLE PRECISION)"
	seedItems   = "INSERT INTO items VALUES (1, 'alpha', 1.5), (2, 'beta', 2.25), (3, NULL, 0)"
	countItems  = "SELECT COUNT(*) FROM items"
)

// Run exercises provider p against databases created by uri.
func Run(t *testing.T, p dbc.Provider, uri URIFunc) {
	t.Helper()

	t.Run("QueryRoundTrip", func(t *testing.T) {
		t.Parallel()
		conn := seeded(t, p, uri(t))

		rs := query(t, conn, "SELECT id, name, price FROM items ORDER BY id")
		if rs.RowCount() != 3 || rs.ColumnCount() != 3 {
			t.Fatalf("shape mismatch: want 3x3 got %dx%d", rs.RowCount(), rs.ColumnCount())
		}
		for i, want := range []string{"id", "name", "price"} {
			if got, _ := rs.ColumnName(i); got != want {
				t.Fatalf("column %d mismatch: want %q got %q", i, want, got)
			}
		}
		if rs.ColumnNumber("price") != 2 {
			t.Fatalf("ColumnNumber(price) mismatch: got %d", rs.ColumnNumber("price"))
		}

		if !rs.First() {
			t.Fatalf("First should report a row")
		}
		if v, err := rs.Int(0); err != nil || v != 1 {
			t.Fatalf("Int(0) mismatch: %d, %v", v, err)
		}
		if v, err := rs.Text(1); err != nil || v != "alpha" {
			t.Fatalf("Text(1) mismatch: %q, %v", v, err)
		}
		if v, err := rs.Float64(2); err != nil || v != 1.5 {
			t.Fatalf("Float64(2) mismatch: %v, %v", v, err)
		}

		if !rs.Last() {
			t.Fatalf("Last should report a row")
		}
		if null, err := rs.IsNull(1); err != nil || !null {
			t.Fatalf("IsNull(1) on the last row should be true: %v, %v", null, err)
		}
		if v, _ := rs.Text(1); v != "" {
			t.Fatalf("NULL text should be empty, got %q", v)
		}

		n := 0
		for ok := rs.First(); ok; ok = rs.Next() {
			n++
		}
		if n != 3 || !rs.IsEnd() {
			t.Fatalf("forward walk visited %d rows", n)
		}
	})

	t.Run("PreparedStatement", func(t *testing.T) {
		t.Parallel()
		conn := seeded(t, p, uri(t))

		ps, err := conn.NewPreparedStatement("SELECT name FROM items WHERE id = ? AND price > ?")
		if err != nil {
			t.Fatalf("NewPreparedStatement returned error: %v", err)
		}
		if err := errors.Join(ps.SetInt(0, 2), ps.SetDouble(1, 1)); err != nil {
			t.Fatalf("binding returned error: %v", err)
		}
		rs, err := ps.ExecuteQuery()
		if err != nil {
			t.Fatalf("ExecuteQuery returned error: %v", err)
		}
		if !rs.First() {
			t.Fatalf("expected one row")
		}
		if v, _ := rs.Text(0); v != "beta" {
			t.Fatalf("name mismatch: want %q got %q", "beta", v)
		}

		ins, err := conn.NewPreparedStatement("INSERT INTO items VALUES (?, ?, ?)")
		if err != nil {
			t.Fatalf("NewPreparedStatement returned error: %v", err)
		}
		if err := errors.Join(ins.SetLong(0, 4), ins.SetString(1, dbc.QuoteString("o'brien")), ins.SetNull(2)); err != nil {
			t.Fatalf("binding returned error: %v", err)
		}
		if _, err := ins.ExecuteUpdate(); err != nil {
			t.Fatalf("ExecuteUpdate returned error: %v", err)
		}
		rs = query(t, conn, "SELECT name FROM items WHERE id = 4")
		rs.First()
		if v, _ := rs.Text(0); v != "o'brien" {
			t.Fatalf("quoted string mismatch: got %q", v)
		}

		ins.ClearParameters()
		if _, err := ins.ExecuteUpdate(); !errors.Is(err, dbc.ErrBinding) {
			t.Fatalf("expected ErrBinding, got %v", err)
		}
	})

	t.Run("ExecuteUpdate", func(t *testing.T) {
		t.Parallel()
		conn := seeded(t, p, uri(t))

		stmt, err := conn.NewStatement()
		if err != nil {
			t.Fatalf("NewStatement returned error: %v", err)
		}
		n, err := stmt.ExecuteUpdate("UPDATE items SET price = 9 WHERE id > 1")
		if err != nil {
			t.Fatalf("ExecuteUpdate returned error: %v", err)
		}
		if n != 2 {
			t.Fatalf("rows affected mismatch: want 2 got %d", n)
		}
	})

	t.Run("SQLError", func(t *testing.T) {
		t.Parallel()
		conn := open(t, p, uri(t))

		stmt, err := conn.NewStatement()
		if err != nil {
			t.Fatalf("NewStatement returned error: %v", err)
		}
		_, err = stmt.ExecuteQuery("SELEC 1")
		var sqlErr *dbc.SQLError
		if !errors.As(err, &sqlErr) || !errors.Is(err, dbc.ErrSQL) {
			t.Fatalf("expected *SQLError, got %v", err)
		}
		if sqlErr.Message == "" {
			t.Fatalf("SQL error should carry the engine diagnostic")
		}

		rs, err := stmt.ExecuteQuery("SELECT 1")
		if err != nil {
			t.Fatalf("connection should stay usable: %v", err)
		}
		rs.First()
		if v, _ := rs.Int(0); v != 1 {
			t.Fatalf("SELECT 1 mismatch: got %d", v)
		}
	})

	t.Run("Rollback", func(t *testing.T) {
		t.Parallel()
		conn := seeded(t, p, uri(t))

		if err := conn.BeginTransaction(); err != nil {
			t.Fatalf("BeginTransaction returned error: %v", err)
		}
		exec(t, conn, "DELETE FROM items")
		if got := count(t, conn); got != 0 {
			t.Fatalf("delete should be visible inside the transaction, got %d rows", got)
		}
		if err := conn.Rollback(); err != nil {
			t.Fatalf("Rollback returned error: %v", err)
		}
		if got := count(t, conn); got != 3 {
			t.Fatalf("rollback should restore rows: want 3 got %d", got)
		}
	})

	t.Run("CommitOnClose", func(t *testing.T) {
		t.Parallel()
		u := uri(t)
		conn := seeded(t, p, u)

		if err := conn.BeginTransaction(); err != nil {
			t.Fatalf("BeginTransaction returned error: %v", err)
		}
		exec(t, conn, "INSERT INTO items VALUES (4, 'delta', 4)")
		if err := conn.Close(); err != nil {
			t.Fatalf("Close returned error: %v", err)
		}

		if got := count(t, open(t, p, u)); got != 4 {
			t.Fatalf("pending transaction should commit on close: want 4 got %d", got)
		}
	})

	t.Run("CommitOnCloseAfterStatementBegin", func(t *testing.T) {
		t.Parallel()
		u := uri(t)
		conn := seeded(t, p, u)

		exec(t, conn, "BEGIN")
		exec(t, conn, "INSERT INTO items VALUES (4, 'delta', 4)")
		if err := conn.Close(); err != nil {
			t.Fatalf("Close returned error: %v", err)
		}

		if got := count(t, open(t, p, u)); got != 4 {
			t.Fatalf("transaction begun by a statement should commit on close: want 4 got %d", got)
		}
	})

	t.Run("StaleRowset", func(t *testing.T) {
		t.Parallel()
		conn := seeded(t, p, uri(t))

		stmt, err := conn.NewStatement()
		if err != nil {
			t.Fatalf("NewStatement returned error: %v", err)
		}
		old, err := stmt.ExecuteQuery("SELECT id FROM items")
		if err != nil {
			t.Fatalf("ExecuteQuery returned error: %v", err)
		}
		if _, err := stmt.ExecuteQuery("SELECT name FROM items"); err != nil {
			t.Fatalf("ExecuteQuery returned error: %v", err)
		}
		old.First()
		if _, err := old.Text(0); !errors.Is(err, dbc.ErrStaleRowset) {
			t.Fatalf("expected ErrStaleRowset, got %v", err)
		}
	})
}

func open(t *testing.T, p dbc.Provider, uri string) dbc.Connection {
	t.Helper()

	conn, err := p.Open(uri)
	if err != nil {
		t.Fatalf("Open(%q) returned error: %v", uri, err)
	}
	if conn == nil {
		t.Fatalf("provider %s does not support %q", p.Name(), uri)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func seeded(t *testing.T, p dbc.Provider, uri string) dbc.Connection {
	t.Helper()

	conn := open(t, p, uri)
	exec(t, conn, createItems)
	exec(t, conn, seedItems)
	return conn
}

func exec(t *testing.T, conn dbc.Connection, q string) {
	t.Helper()

	stmt, err := conn.NewStatement()
	if err != nil {
		t.Fatalf("NewStatement returned error: %v", err)
	}
	defer stmt.Close()
	if _, err := stmt.ExecuteUpdate(q); err != nil {
		t.Fatalf("ExecuteUpdate(%q) returned error: %v", q, err)
	}
}

func query(t *testing.T, conn dbc.Connection, q string) dbc.Rowset {
	t.Helper()

	stmt, err := conn.NewStatement()
	if err != nil {
		t.Fatalf("NewStatement returned error: %v", err)
	}
	rs, err := stmt.ExecuteQuery(q)
	if err != nil {
		t.Fatalf("ExecuteQuery(%q) returned error: %v", q, err)
	}
	return rs
}

func count(t *testing.T, conn dbc.Connection) int {
	t.Helper()

	rs := query(t, conn, countItems)
	if !rs.First() {
		t.Fatalf("%s returned no rows", countItems)
	}
	n, err := rs.ParseInt(0)
	if err != nil {
		t.Fatalf("count conversion failed: %v", err)
	}
	return n
}
