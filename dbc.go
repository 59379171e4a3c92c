package dbc

// Connection owns one engine handle and creates statements against it.
type Connection interface {
	// Open connects to uri, releasing any handle that is already open.
	Open(uri string) error

	// IsOpen reports whether the connection holds a live handle.
	IsOpen() bool

	// URI returns the URI of the live handle, or "" when closed.
	URI() string

	// NewStatement creates a statement for ad-hoc queries.
	NewStatement() (Statement, error)

	// NewPreparedStatement creates a statement from a template with "?" marks.
	NewPreparedStatement(query string) (PreparedStatement, error)

	// BeginTransaction starts a transaction.
	BeginTransaction() error

	// Commit commits the current transaction.
	Commit() error

	// Rollback aborts the current transaction.
	Rollback() error

	// Close commits a pending transaction and releases the handle.
	Close() error
}

// Statement executes query text against its connection.
type Statement interface {
	// ExecuteQuery runs query and returns its materialized result. The
	// previous rowset of this statement becomes stale.
	ExecuteQuery(query string) (Rowset, error)

	// ExecuteUpdate runs query and reports its row count.
	ExecuteUpdate(query string) (int64, error)

	// Connection returns the connection the statement was created from.
	Connection() Connection

	// Close releases the current rowset. The statement cannot be reused.
	Close() error
}

// PreparedStatement holds a query template and the values bound to it.
type PreparedStatement interface {
	SetInt(index int, value int) error
	SetLong(index int, value int64) error
	SetFloat(index int, value float32) error
	SetDouble(index int, value float64) error
	SetString(index int, value string) error
	SetNull(index int) error

	// ClearParameters forgets every bound value.
	ClearParameters()

	// ParameterCount returns the number of "?" marks in the template.
	ParameterCount() int

	// ExecuteQuery substitutes the bound values and runs the query.
	ExecuteQuery() (Rowset, error)

	// ExecuteUpdate substitutes the bound values and reports the row count.
	ExecuteUpdate() (int64, error)

	Connection() Connection
	Close() error
}

// Rowset is a cursor over a materialized result of string cells.
type Rowset interface {
	// End returns the cursor positioned after the last row.
	End() Rowset

	// IsEnd reports whether the cursor is before the first or after the last row.
	IsEnd() bool

	First() bool
	Last() bool
	Next() bool
	Previous() bool

	// Row returns the current position; -1 is before the first row.
	Row() int

	ColumnName(column int) (string, error)

	// ColumnNumber returns the first ordinal named name, or -1.
	ColumnNumber(name string) int

	ColumnCount() int
	Columns() []string

	Text(column int) (string, error)
	IsNull(column int) (bool, error)

	// Lenient accessors: the leading numeric prefix is parsed and a cell
	// without one reads as zero.
	Int(column int) (int, error)
	Int64(column int) (int64, error)
	Float32(column int) (float32, error)
	Float64(column int) (float64, error)

	// Strict accessors: the whole cell must be a number.
	ParseInt(column int) (int, error)
	ParseInt64(column int) (int64, error)
	ParseFloat32(column int) (float32, error)
	ParseFloat64(column int) (float64, error)

	RowCount() int

	Connection() Connection
	Statement() Statement
}

// Provider opens connections for the URI schemes it supports.
type Provider interface {
	// Name identifies the provider in logs and listings.
	Name() string

	// Supports reports whether the provider can open uri.
	Supports(uri string) bool

	// Open returns an open connection, or (nil, nil) when uri is unsupported.
	Open(uri string) (Connection, error)
}
