package dbc

import "fmt"

// Engine is the boundary to a concrete database engine.
type Engine interface {
	// Open opens the engine-specific name and returns a live handle.
	Open(name string) (Handle, error)
}

// Handle is an open engine connection.
type Handle interface {
	// Query runs query synchronously and returns the whole result.
	Query(query string) (*Result, error)

	// Close releases the handle.
	Close() error
}

// Transactor is implemented by handles with a native transaction API.
// Connections fall back to BEGIN TRANSACTION, COMMIT and ROLLBACK text when
// a handle does not implement it.
type Transactor interface {
	Begin() error
	Commit() error
	Rollback() error
}

// Updater is implemented by handles that report rows affected for
// statements that produce no rows.
type Updater interface {
	Update(query string) (int64, error)
}

// Result is a table returned by an engine.
type Result struct {
	// Columns holds one name per column.
	Columns []string

	// Values holds the cells in row-major order.
	Values []string

	// Nulls marks NULL cells and is parallel to Values. Nil means no NULLs.
	Nulls []bool

	// Rows is the number of rows.
	Rows int
}

func (r *Result) validate() error {
	if r.Rows < 0 {
		return fmt.Errorf("%w: negative row count %d", ErrMalformedResult, r.Rows)
	}
	if want := r.Rows * len(r.Columns); len(r.Values) != want {
		return fmt.Errorf("%w: %d cells for %d rows and %d columns", ErrMalformedResult, len(r.Values), r.Rows, len(r.Columns))
	}
	if r.Nulls != nil && len(r.Nulls) != len(r.Values) {
		return fmt.Errorf("%w: null mask has %d entries for %d cells", ErrMalformedResult, len(r.Nulls), len(r.Values))
	}
	return nil
}
