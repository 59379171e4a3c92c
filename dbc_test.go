package dbc_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/dbcore/dbc"
	"github.com/dbcore/dbc/backend/memdb"
)

func newMem(t *testing.T, cfg memdb.Config) (*memdb.Engine, dbc.Connection) {
	t.Helper()

	e := memdb.New(cfg)
	p, err := memdb.NewProvider(e)
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	conn, err := p.Open("memdb:test")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if conn == nil {
		t.Fatalf("Open returned no connection")
	}
	t.Cleanup(func() { _ = conn.Close() })
	return e, conn
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

func TestResolveAndQuery(t *testing.T) {
	t.Parallel()

	e := memdb.New(memdb.Config{})
	e.OnQuery("SELECT 1").ReturnRows([]string{"1"}, []string{"1"})

	p, err := memdb.NewProvider(e)
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	reg := dbc.NewRegistry(dbc.RegistryConfig{})
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	conn, err := reg.Open("memdb:test")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer conn.Close()

	if !conn.IsOpen() {
		t.Fatalf("connection should be open")
	}
	if conn.URI() != "memdb:test" {
		t.Fatalf("URI mismatch: want %q got %q", "memdb:test", conn.URI())
	}

	rs := query(t, conn, "SELECT 1")
	if rs.RowCount() != 1 {
		t.Fatalf("RowCount mismatch: want 1 got %d", rs.RowCount())
	}
	name, err := rs.ColumnName(0)
	if err != nil {
		t.Fatalf("ColumnName returned error: %v", err)
	}
	if name != "1" {
		t.Fatalf("ColumnName mismatch: want %q got %q", "1", name)
	}
	if !rs.First() {
		t.Fatalf("First should report a row")
	}
	v, err := rs.Int(0)
	if err != nil {
		t.Fatalf("Int returned error: %v", err)
	}
	if v != 1 {
		t.Fatalf("Int mismatch: want 1 got %d", v)
	}

	calls := e.Calls()
	if len(calls) == 0 || calls[0].Op != memdb.OpOpen || calls[0].Name != "test" {
		t.Fatalf("engine should open the payload without scheme, got %+v", calls)
	}
}

func TestSQLErrorKeepsConnectionUsable(t *testing.T) {
	t.Parallel()

	const diag = `near "SELEC": syntax error`
	e, conn := newMem(t, memdb.Config{})
	e.OnQuery("SELEC 1").ReturnError(diag)
	e.OnQuery("SELECT 1").ReturnRows([]string{"1"}, []string{"1"})

	stmt, err := conn.NewStatement()
	if err != nil {
		t.Fatalf("NewStatement returned error: %v", err)
	}

	_, err = stmt.ExecuteQuery("SELEC 1")
	if !errors.Is(err, dbc.ErrSQL) {
		t.Fatalf("expected ErrSQL, got %v", err)
	}
	if err.Error() != diag {
		t.Fatalf("message mismatch: want %q got %q", diag, err.Error())
	}
	var sqlErr *dbc.SQLError
	if !errors.As(err, &sqlErr) {
		t.Fatalf("expected *SQLError, got %T", err)
	}
	if sqlErr.Query != "SELEC 1" {
		t.Fatalf("query mismatch: want %q got %q", "SELEC 1", sqlErr.Query)
	}

	if !conn.IsOpen() {
		t.Fatalf("connection should stay open after a failed query")
	}
	rs, err := stmt.ExecuteQuery("SELECT 1")
	if err != nil {
		t.Fatalf("ExecuteQuery returned error: %v", err)
	}
	if rs.RowCount() != 1 {
		t.Fatalf("RowCount mismatch: want 1 got %d", rs.RowCount())
	}
}

func TestCloseTransactions(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		run  func(dbc.Connection) error
		want []string
	}{
		{
			name: "pending transaction commits on close",
			run:  func(c dbc.Connection) error { return c.BeginTransaction() },
			want: []string{"BEGIN TRANSACTION", "COMMIT"},
		},
		{
			name: "final commit follows a rollback",
			run: func(c dbc.Connection) error {
				if err := c.BeginTransaction(); err != nil {
					return err
				}
				return c.Rollback()
			},
			want: []string{"BEGIN TRANSACTION", "ROLLBACK", "COMMIT"},
		},
		{
			name: "final commit follows a commit",
			run: func(c dbc.Connection) error {
				if err := c.BeginTransaction(); err != nil {
					return err
				}
				return c.Commit()
			},
			want: []string{"BEGIN TRANSACTION", "COMMIT", "COMMIT"},
		},
		{
			name: "no transaction",
			run:  func(dbc.Connection) error { return nil },
			want: []string{"COMMIT"},
		},
		{
			name: "transaction begun by a statement",
			run: func(c dbc.Connection) error {
				stmt, err := c.NewStatement()
				if err != nil {
					return err
				}
				_, err = stmt.ExecuteUpdate("BEGIN")
				return err
			},
			want: []string{"BEGIN", "COMMIT"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, conn := newMem(t, memdb.Config{})
			if err := tc.run(conn); err != nil {
				t.Fatalf("transaction control returned error: %v", err)
			}
			if err := conn.Close(); err != nil {
				t.Fatalf("Close returned error: %v", err)
			}

			if got := e.Queries(); !slices.Equal(got, tc.want) {
				t.Fatalf("queries mismatch: want %q got %q", tc.want, got)
			}
			calls := e.Calls()
			if last := calls[len(calls)-1]; last.Op != memdb.OpClose {
				t.Fatalf("handle should be released last, got %+v", last)
			}
			if e.OpenHandles() != 0 {
				t.Fatalf("handle leaked: %d open", e.OpenHandles())
			}
		})
	}
}

func TestCloseToleratesRejectedCommit(t *testing.T) {
	t.Parallel()

	e, conn := newMem(t, memdb.Config{Strict: true})
	if err := conn.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if got := e.Queries(); !slices.Equal(got, []string{"COMMIT"}) {
		t.Fatalf("expected a final commit attempt, got %q", got)
	}
	if e.OpenHandles() != 0 {
		t.Fatalf("handle leaked: %d open", e.OpenHandles())
	}
}

func TestCloseReportsPendingCommitFailure(t *testing.T) {
	t.Parallel()

	e, conn := newMem(t, memdb.Config{})
	e.OnQuery("COMMIT").ReturnError("database is locked")
	if err := conn.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction returned error: %v", err)
	}

	err := conn.Close()
	if !errors.Is(err, dbc.ErrSQL) || !strings.Contains(err.Error(), "database is locked") {
		t.Fatalf("expected the commit failure, got %v", err)
	}
	if e.OpenHandles() != 0 {
		t.Fatalf("handle should be released after a failed commit")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	e, conn := newMem(t, memdb.Config{})
	for i := 0; i < 3; i++ {
		if err := conn.Close(); err != nil {
			t.Fatalf("Close #%d returned error: %v", i, err)
		}
	}

	closes := 0
	for _, c := range e.Calls() {
		if c.Op == memdb.OpClose {
			closes++
		}
	}
	if closes != 1 {
		t.Fatalf("handle should close exactly once, closed %d times", closes)
	}
	if conn.IsOpen() || conn.URI() != "" {
		t.Fatalf("closed connection should report no uri, got %q", conn.URI())
	}
}

func TestClosedConnection(t *testing.T) {
	t.Parallel()

	_, conn := newMem(t, memdb.Config{})
	if err := conn.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if _, err := conn.NewStatement(); !errors.Is(err, dbc.ErrConnectionClosed) {
		t.Fatalf("NewStatement: expected ErrConnectionClosed, got %v", err)
	}
	if _, err := conn.NewPreparedStatement("SELECT ?"); !errors.Is(err, dbc.ErrConnectionClosed) {
		t.Fatalf("NewPreparedStatement: expected ErrConnectionClosed, got %v", err)
	}
	if err := conn.BeginTransaction(); !errors.Is(err, dbc.ErrConnectionClosed) {
		t.Fatalf("BeginTransaction: expected ErrConnectionClosed, got %v", err)
	}
	if err := conn.Commit(); !errors.Is(err, dbc.ErrConnectionClosed) {
		t.Fatalf("Commit: expected ErrConnectionClosed, got %v", err)
	}
}

func TestReopenClosesStatements(t *testing.T) {
	t.Parallel()

	e, conn := newMem(t, memdb.Config{})
	e.OnQuery("SELECT 1").ReturnRows([]string{"1"}, []string{"1"})

	stmt, err := conn.NewStatement()
	if err != nil {
		t.Fatalf("NewStatement returned error: %v", err)
	}
	rs, err := stmt.ExecuteQuery("SELECT 1")
	if err != nil {
		t.Fatalf("ExecuteQuery returned error: %v", err)
	}
	if err := conn.BeginTransaction(); err != nil {
		t.Fatalf("BeginTransaction returned error: %v", err)
	}

	if err := conn.Open("memdb:other"); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if conn.URI() != "memdb:other" {
		t.Fatalf("URI mismatch: want %q got %q", "memdb:other", conn.URI())
	}
	if _, err := stmt.ExecuteQuery("SELECT 1"); !errors.Is(err, dbc.ErrStatementClosed) {
		t.Fatalf("expected ErrStatementClosed, got %v", err)
	}
	if _, err := rs.Text(0); !errors.Is(err, dbc.ErrStaleRowset) {
		t.Fatalf("expected ErrStaleRowset, got %v", err)
	}
	if slices.Contains(e.Queries(), "COMMIT") {
		t.Fatalf("re-open should not commit, got %q", e.Queries())
	}
	if e.OpenHandles() != 1 {
		t.Fatalf("expected one open handle, got %d", e.OpenHandles())
	}
}

func TestOpenFailure(t *testing.T) {
	t.Parallel()

	const diag = "unable to open database file"
	e := memdb.New(memdb.Config{})
	e.OnOpen("missing").ReturnError(diag)

	conn, err := dbc.NewConnection(dbc.ConnectionConfig{Engine: e, Schemes: []string{memdb.Scheme}})
	if err != nil {
		t.Fatalf("NewConnection returned error: %v", err)
	}

	err = conn.Open("memdb:missing")
	if !errors.Is(err, dbc.ErrSQL) || err.Error() != diag {
		t.Fatalf("expected SQL error %q, got %v", diag, err)
	}
	if conn.IsOpen() {
		t.Fatalf("connection should stay closed")
	}

	if err := conn.Open("postgres:db"); !errors.Is(err, dbc.ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
	if err := conn.Open("no-scheme"); !errors.Is(err, dbc.ErrInvalidURI) {
		t.Fatalf("expected ErrInvalidURI, got %v", err)
	}
}

func TestRowsetNavigation(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		rows [][]string
	}{
		{name: "empty"},
		{name: "one row", rows: [][]string{{"a"}}},
		{name: "three rows", rows: [][]string{{"a"}, {"b"}, {"c"}}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, conn := newMem(t, memdb.Config{})
			e.OnQuery("SELECT v").ReturnRows([]string{"v"}, tc.rows...)
			rs := query(t, conn, "SELECT v")
			n := len(tc.rows)

			if rs.RowCount() != n {
				t.Fatalf("RowCount mismatch: want %d got %d", n, rs.RowCount())
			}
			if rs.IsEnd() != (n == 0) {
				t.Fatalf("fresh cursor IsEnd mismatch for %d rows", n)
			}

			var got []string
			for ok := rs.First(); ok; ok = rs.Next() {
				v, err := rs.Text(0)
				if err != nil {
					t.Fatalf("Text returned error: %v", err)
				}
				got = append(got, v)
			}
			if len(got) != n {
				t.Fatalf("forward walk visited %d rows, want %d", len(got), n)
			}
			for i, v := range got {
				if v != tc.rows[i][0] {
					t.Fatalf("row %d mismatch: want %q got %q", i, tc.rows[i][0], v)
				}
			}
			if !rs.IsEnd() {
				t.Fatalf("cursor should be at end after the walk")
			}
			if rs.Next() {
				t.Fatalf("Next past the end should report false")
			}

			back := 0
			for rs.Previous() {
				back++
			}
			if back != n {
				t.Fatalf("backward walk visited %d rows, want %d", back, n)
			}
			if rs.Row() != -1 || !rs.IsEnd() {
				t.Fatalf("cursor should sit before the first row, got %d", rs.Row())
			}

			if rs.Last() != (n > 0) {
				t.Fatalf("Last should report %v", n > 0)
			}
			if n > 0 && rs.Row() != n-1 {
				t.Fatalf("Last row mismatch: want %d got %d", n-1, rs.Row())
			}
		})
	}
}

func TestColumns(t *testing.T) {
	t.Parallel()

	e, conn := newMem(t, memdb.Config{})
	e.OnQuery("SELECT a, b, a").ReturnRows([]string{"a", "b", "a"}, []string{"1", "2", "3"})
	rs := query(t, conn, "SELECT a, b, a")

	if rs.ColumnCount() != 3 {
		t.Fatalf("ColumnCount mismatch: want 3 got %d", rs.ColumnCount())
	}
	if n := rs.ColumnNumber("a"); n != 0 {
		t.Fatalf("ColumnNumber should return the first duplicate, got %d", n)
	}
	if n := rs.ColumnNumber("b"); n != 1 {
		t.Fatalf("ColumnNumber mismatch: want 1 got %d", n)
	}
	if n := rs.ColumnNumber("missing"); n != -1 {
		t.Fatalf("ColumnNumber of a missing column should be -1, got %d", n)
	}
	if _, err := rs.ColumnName(3); !errors.Is(err, dbc.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}

	cols := rs.Columns()
	cols[0] = "changed"
	if name, _ := rs.ColumnName(0); name != "a" {
		t.Fatalf("Columns should return a copy")
	}

	rs.First()
	if _, err := rs.Text(-1); !errors.Is(err, dbc.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for column -1, got %v", err)
	}
	if _, err := rs.Text(3); !errors.Is(err, dbc.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for column 3, got %v", err)
	}
}

func TestEndSentinel(t *testing.T) {
	t.Parallel()

	e, conn := newMem(t, memdb.Config{})
	e.OnQuery("SELECT v").ReturnRows([]string{"v"}, []string{"1"})
	rs := query(t, conn, "SELECT v")

	end := rs.End()
	if !end.IsEnd() {
		t.Fatalf("End should report IsEnd")
	}
	if end.RowCount() != 1 || end.ColumnCount() != 1 {
		t.Fatalf("End should expose the rowset shape")
	}
	if name, err := end.ColumnName(0); err != nil || name != "v" {
		t.Fatalf("End ColumnName mismatch: %q, %v", name, err)
	}
	if _, err := end.Text(0); !errors.Is(err, dbc.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := end.Int(0); !errors.Is(err, dbc.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if end.Next() || end.First() {
		t.Fatalf("End should not move")
	}

	rs.Next()
	if _, err := rs.Text(0); !errors.Is(err, dbc.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange past the last row, got %v", err)
	}
}

func TestStaleRowset(t *testing.T) {
	t.Parallel()

	e, conn := newMem(t, memdb.Config{})
	e.OnQuery("SELECT 1").ReturnRows([]string{"1"}, []string{"1"})
	e.OnQuery("SELECT 2").ReturnRows([]string{"2"}, []string{"2"})

	stmt, err := conn.NewStatement()
	if err != nil {
		t.Fatalf("NewStatement returned error: %v", err)
	}
	first, err := stmt.ExecuteQuery("SELECT 1")
	if err != nil {
		t.Fatalf("ExecuteQuery returned error: %v", err)
	}
	second, err := stmt.ExecuteQuery("SELECT 2")
	if err != nil {
		t.Fatalf("ExecuteQuery returned error: %v", err)
	}

	first.First()
	_, err = first.Text(0)
	if !errors.Is(err, dbc.ErrStaleRowset) || !errors.Is(err, dbc.ErrOutOfRange) {
		t.Fatalf("expected a stale out of range error, got %v", err)
	}
	if _, err := first.End().Text(0); !errors.Is(err, dbc.ErrStaleRowset) {
		t.Fatalf("expected End of a stale rowset to report staleness, got %v", err)
	}

	second.First()
	if v, err := second.Text(0); err != nil || v != "2" {
		t.Fatalf("current rowset should stay readable: %q, %v", v, err)
	}
	if second.Statement() != stmt || second.Connection() != conn {
		t.Fatalf("rowset back-references mismatch")
	}

	if err := stmt.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := second.Text(0); !errors.Is(err, dbc.ErrStaleRowset) {
		t.Fatalf("expected ErrStaleRowset after statement close, got %v", err)
	}
	if _, err := stmt.ExecuteQuery("SELECT 1"); !errors.Is(err, dbc.ErrStatementClosed) {
		t.Fatalf("expected ErrStatementClosed, got %v", err)
	}
}

func TestCellConversion(t *testing.T) {
	t.Parallel()

	e, conn := newMem(t, memdb.Config{})
	e.OnQuery("SELECT *").
		ReturnRows([]string{"int", "junk", "float", "exp", "null", "space"},
			[]string{"42", "12abc", "3.5x", "1e3", "", " -7 "}).
		ReturnNull(0, 4)
	rs := query(t, conn, "SELECT *")
	rs.First()

	t.Run("lenient", func(t *testing.T) {
		tt := []struct {
			column int
			i      int64
			f      float64
		}{
			{column: 0, i: 42, f: 42},
			{column: 1, i: 12, f: 12},
			{column: 2, i: 3, f: 3.5},
			{column: 3, i: 1, f: 1000},
			{column: 4, i: 0, f: 0},
			{column: 5, i: -7, f: -7},
		}
		for _, tc := range tt {
			i, err := rs.Int64(tc.column)
			if err != nil {
				t.Fatalf("Int64(%d) returned error: %v", tc.column, err)
			}
			if i != tc.i {
				t.Fatalf("Int64(%d) mismatch: want %d got %d", tc.column, tc.i, i)
			}
			f, err := rs.Float64(tc.column)
			if err != nil {
				t.Fatalf("Float64(%d) returned error: %v", tc.column, err)
			}
			if f != tc.f {
				t.Fatalf("Float64(%d) mismatch: want %v got %v", tc.column, tc.f, f)
			}
		}
		if v, _ := rs.Int(0); v != 42 {
			t.Fatalf("Int mismatch: want 42 got %d", v)
		}
		if v, _ := rs.Float32(2); v != 3.5 {
			t.Fatalf("Float32 mismatch: want 3.5 got %v", v)
		}
	})

	t.Run("strict", func(t *testing.T) {
		if v, err := rs.ParseInt(0); err != nil || v != 42 {
			t.Fatalf("ParseInt mismatch: %d, %v", v, err)
		}
		if v, err := rs.ParseInt64(5); err != nil || v != -7 {
			t.Fatalf("ParseInt64 should trim spaces: %d, %v", v, err)
		}
		if v, err := rs.ParseFloat64(3); err != nil || v != 1000 {
			t.Fatalf("ParseFloat64 mismatch: %v, %v", v, err)
		}
		if _, err := rs.ParseInt(1); !errors.Is(err, dbc.ErrConversion) {
			t.Fatalf("expected ErrConversion, got %v", err)
		}
		if _, err := rs.ParseFloat32(2); !errors.Is(err, dbc.ErrConversion) {
			t.Fatalf("expected ErrConversion, got %v", err)
		}
	})

	t.Run("null", func(t *testing.T) {
		null, err := rs.IsNull(4)
		if err != nil || !null {
			t.Fatalf("IsNull(4) should be true: %v, %v", null, err)
		}
		if v, _ := rs.Text(4); v != "" {
			t.Fatalf("NULL text should be empty, got %q", v)
		}
		if null, _ := rs.IsNull(0); null {
			t.Fatalf("IsNull(0) should be false")
		}
	})
}

func TestPreparedStatement(t *testing.T) {
	t.Parallel()

	const tmpl = "SELECT * FROM t WHERE a = ? AND b = ?"

	tt := []struct {
		name string
		bind func(dbc.PreparedStatement) error
		want string
		err  error
	}{
		{
			name: "int and quoted string",
			bind: func(p dbc.PreparedStatement) error {
				return errors.Join(p.SetInt(0, 5), p.SetString(1, dbc.QuoteString("it's")))
			},
			want: "SELECT * FROM t WHERE a = 5 AND b = 'it''s'",
		},
		{
			name: "double and null",
			bind: func(p dbc.PreparedStatement) error {
				return errors.Join(p.SetDouble(0, 2.5), p.SetNull(1))
			},
			want: "SELECT * FROM t WHERE a = 2.5 AND b = NULL",
		},
		{
			name: "float32 and long",
			bind: func(p dbc.PreparedStatement) error {
				return errors.Join(p.SetFloat(0, 0.1), p.SetLong(1, 9007199254740993))
			},
			want: "SELECT * FROM t WHERE a = 0.1 AND b = 9007199254740993",
		},
		{
			name: "rebinding replaces",
			bind: func(p dbc.PreparedStatement) error {
				return errors.Join(p.SetInt(1, 1), p.SetInt(0, 1), p.SetInt(1, 2))
			},
			want: "SELECT * FROM t WHERE a = 1 AND b = 2",
		},
		{
			name: "gap",
			bind: func(p dbc.PreparedStatement) error { return p.SetInt(1, 1) },
			err:  dbc.ErrBinding,
		},
		{
			name: "too few",
			bind: func(p dbc.PreparedStatement) error { return p.SetInt(0, 1) },
			err:  dbc.ErrBinding,
		},
		{
			name: "too many",
			bind: func(p dbc.PreparedStatement) error {
				return errors.Join(p.SetInt(0, 1), p.SetInt(1, 2), p.SetInt(2, 3))
			},
			err: dbc.ErrBinding,
		},
		{
			name: "cleared",
			bind: func(p dbc.PreparedStatement) error {
				err := errors.Join(p.SetInt(0, 1), p.SetInt(1, 2))
				p.ClearParameters()
				return err
			},
			err: dbc.ErrBinding,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, conn := newMem(t, memdb.Config{})
			ps, err := conn.NewPreparedStatement(tmpl)
			if err != nil {
				t.Fatalf("NewPreparedStatement returned error: %v", err)
			}
			if ps.ParameterCount() != 2 {
				t.Fatalf("ParameterCount mismatch: want 2 got %d", ps.ParameterCount())
			}
			if err := tc.bind(ps); err != nil {
				t.Fatalf("binding returned error: %v", err)
			}

			_, err = ps.ExecuteQuery()
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected %v, got %v", tc.err, err)
				}
				if len(e.Queries()) != 0 {
					t.Fatalf("nothing should reach the engine, got %q", e.Queries())
				}
				return
			}
			if err != nil {
				t.Fatalf("ExecuteQuery returned error: %v", err)
			}
			if got := e.Queries(); len(got) != 1 || got[0] != tc.want {
				t.Fatalf("query mismatch: want %q got %q", tc.want, got)
			}
		})
	}
}

func TestPreparedStatementLifecycle(t *testing.T) {
	t.Parallel()

	e, conn := newMem(t, memdb.Config{})
	e.OnQuery("DELETE FROM t WHERE id = 7").ReturnAffected(1)

	ps, err := conn.NewPreparedStatement("DELETE FROM t WHERE id = ?")
	if err != nil {
		t.Fatalf("NewPreparedStatement returned error: %v", err)
	}
	if err := ps.SetInt(-1, 1); !errors.Is(err, dbc.ErrBinding) {
		t.Fatalf("expected ErrBinding for a negative index, got %v", err)
	}
	if err := ps.SetInt(0, 7); err != nil {
		t.Fatalf("SetInt returned error: %v", err)
	}
	n, err := ps.ExecuteUpdate()
	if err != nil {
		t.Fatalf("ExecuteUpdate returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows affected mismatch: want 1 got %d", n)
	}
	if ps.Connection() != conn {
		t.Fatalf("Connection back-reference mismatch")
	}

	if err := ps.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := ps.SetInt(0, 1); !errors.Is(err, dbc.ErrStatementClosed) {
		t.Fatalf("expected ErrStatementClosed, got %v", err)
	}
	if _, err := ps.ExecuteUpdate(); !errors.Is(err, dbc.ErrStatementClosed) {
		t.Fatalf("expected ErrStatementClosed, got %v", err)
	}
}

func TestExecuteUpdate(t *testing.T) {
	t.Parallel()

	e, conn := newMem(t, memdb.Config{Strict: true})
	e.OnQuery("UPDATE t SET a = 1").ReturnAffected(3)
	e.OnQuery("SELECT a FROM t").ReturnRows([]string{"a"}, []string{"1"}, []string{"2"})

	stmt, err := conn.NewStatement()
	if err != nil {
		t.Fatalf("NewStatement returned error: %v", err)
	}
	if n, err := stmt.ExecuteUpdate("UPDATE t SET a = 1"); err != nil || n != 3 {
		t.Fatalf("ExecuteUpdate mismatch: %d, %v", n, err)
	}
	if n, err := stmt.ExecuteUpdate("SELECT a FROM t"); err != nil || n != 2 {
		t.Fatalf("ExecuteUpdate should fall back to the row count: %d, %v", n, err)
	}

	_, err = stmt.ExecuteUpdate("DROP TABLE t")
	if !errors.Is(err, dbc.ErrSQL) || err.Error() != "no such query: DROP TABLE t" {
		t.Fatalf("expected strict engine error, got %v", err)
	}
}

// schemeList is a provider with a slice in its value, which makes the type
// incomparable.
type schemeList []string

func (s schemeList) Name() string                        { return "list" }
func (s schemeList) Supports(string) bool                { return false }
func (s schemeList) Open(string) (dbc.Connection, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	t.Parallel()

	newProvider := func(t *testing.T, e *memdb.Engine) dbc.Provider {
		t.Helper()
		p, err := memdb.NewProvider(e)
		if err != nil {
			t.Fatalf("NewProvider returned error: %v", err)
		}
		return p
	}

	t.Run("no provider", func(t *testing.T) {
		t.Parallel()

		reg := dbc.NewRegistry(dbc.RegistryConfig{})
		p := newProvider(t, memdb.New(memdb.Config{}))
		if err := reg.Register(p); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}

		if _, err := reg.Open("postgres://localhost/db"); !errors.Is(err, dbc.ErrNoProvider) {
			t.Fatalf("expected ErrNoProvider, got %v", err)
		}
		if _, err := reg.Lookup("postgres://localhost/db"); !errors.Is(err, dbc.ErrNoProvider) {
			t.Fatalf("expected ErrNoProvider, got %v", err)
		}
		if got := reg.Providers(); len(got) != 1 || got[0] != p {
			t.Fatalf("registry should be unchanged, got %v", got)
		}
	})

	t.Run("incomparable provider", func(t *testing.T) {
		t.Parallel()

		reg := dbc.NewRegistry(dbc.RegistryConfig{})
		p := schemeList{"memdb"}
		if err := reg.Register(p); !errors.Is(err, dbc.ErrProviderIncomparable) {
			t.Fatalf("expected ErrProviderIncomparable, got %v", err)
		}
		if err := reg.Register(&p); err != nil {
			t.Fatalf("Register of a pointer returned error: %v", err)
		}
		if err := reg.Register(&p); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if got := reg.Providers(); len(got) != 1 {
			t.Fatalf("expected one provider, got %d", len(got))
		}
		if reg.Unregister(p) {
			t.Fatalf("Unregister should not match an unregistered value")
		}
		if !reg.Unregister(&p) || len(reg.Providers()) != 0 {
			t.Fatalf("pointer provider should unregister")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		reg := dbc.NewRegistry(dbc.RegistryConfig{})
		p := newProvider(t, memdb.New(memdb.Config{}))
		for i := 0; i < 2; i++ {
			if err := reg.Register(p); err != nil {
				t.Fatalf("Register returned error: %v", err)
			}
		}
		if n := len(reg.Providers()); n != 1 {
			t.Fatalf("expected 1 provider, got %d", n)
		}
		if !reg.Unregister(p) {
			t.Fatalf("Unregister should report removal")
		}
		if reg.Unregister(p) {
			t.Fatalf("second Unregister should report nothing removed")
		}
		if err := reg.Register(nil); !errors.Is(err, dbc.ErrProviderNil) {
			t.Fatalf("expected ErrProviderNil, got %v", err)
		}
	})

	t.Run("first match wins", func(t *testing.T) {
		t.Parallel()

		first, second := memdb.New(memdb.Config{}), memdb.New(memdb.Config{})
		reg := dbc.NewRegistry(dbc.RegistryConfig{})
		p1, p2 := newProvider(t, first), newProvider(t, second)
		if err := errors.Join(reg.Register(p1), reg.Register(p2)); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}

		conn, err := reg.Open("MEMDB:x")
		if err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
		defer conn.Close()
		if len(first.Calls()) != 1 || len(second.Calls()) != 0 {
			t.Fatalf("first registered provider should serve the uri")
		}
		if p, _ := reg.Lookup("memdb:x"); p != p1 {
			t.Fatalf("Lookup should return the first provider")
		}

		reg.Unregister(p1)
		conn2, err := reg.Open("memdb:y")
		if err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
		defer conn2.Close()
		if len(second.Calls()) != 1 {
			t.Fatalf("remaining provider should serve the uri")
		}
	})

	t.Run("open failure propagates", func(t *testing.T) {
		t.Parallel()

		e := memdb.New(memdb.Config{})
		e.OnOpen("locked").ReturnError("database is locked")
		reg := dbc.NewRegistry(dbc.RegistryConfig{})
		if err := reg.Register(newProvider(t, e)); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}

		conn, err := reg.Open("memdb:locked")
		if !errors.Is(err, dbc.ErrSQL) || err.Error() != "database is locked" {
			t.Fatalf("expected engine error, got %v", err)
		}
		if conn != nil {
			t.Fatalf("failed open should return no connection")
		}
	})
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	e := memdb.New(memdb.Config{})
	p, err := memdb.NewProvider(e)
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	if err := dbc.Register(p); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	defer dbc.Unregister(p)

	conn, err := dbc.Open("memdb:default")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer conn.Close()
	if !conn.IsOpen() {
		t.Fatalf("connection should be open")
	}
}
