package dbc

import "errors"

var (
	// ErrSQL matches every error produced when the engine rejects a query,
	// open, or transaction-control call. The concrete type is *SQLError.
	ErrSQL = errors.New("sql error")

	// ErrOutOfRange indicates a cursor or column accessor used outside valid bounds.
	ErrOutOfRange = errors.New("out of range")

	// ErrStaleRowset indicates a rowset whose statement has executed again or been closed.
	ErrStaleRowset = errors.New("rowset is stale")

	// ErrNoProvider is returned when no registered provider supports a URI.
	ErrNoProvider = errors.New("no provider supports uri")

	// ErrBinding indicates prepared statement parameters that do not match the template.
	ErrBinding = errors.New("parameter binding failed")

	// ErrConversion is returned by strict accessors when a cell is not a valid number.
	ErrConversion = errors.New("cell conversion failed")

	// ErrConnectionClosed is returned when an operation requires an open connection.
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrStatementClosed is returned when a closed statement is executed.
	ErrStatementClosed = errors.New("statement is closed")

	// ErrInvalidURI indicates a connection string without a scheme.
	ErrInvalidURI = errors.New("uri is invalid")

	// ErrUnsupportedScheme indicates a URI scheme the connection does not accept.
	ErrUnsupportedScheme = errors.New("uri scheme is not supported")

	// ErrProviderNil is returned when registering a nil provider.
	ErrProviderNil = errors.New("provider cannot be nil")

	// ErrProviderIncomparable is returned when registering a provider whose
	// dynamic type cannot be compared, so it could never be unregistered.
	// Register a pointer instead.
	ErrProviderIncomparable = errors.New("provider type is not comparable")

	// ErrEngineNil is returned when a connection or provider is built without an engine.
	ErrEngineNil = errors.New("engine cannot be nil")

	// ErrMalformedResult signals an engine result whose cells do not fill rows × columns.
	ErrMalformedResult = errors.New("engine result is malformed")
)

// SQLError carries the diagnostic text reported by a backend engine.
type SQLError struct {
	// Message is the engine's diagnostic, verbatim.
	Message string

	// Query is the text that was rejected, when known.
	Query string

	// Err is the underlying engine error, when there is one.
	Err error
}

func (e *SQLError) Error() string { return e.Message }

func (e *SQLError) Unwrap() error { return e.Err }

// Is reports ErrSQL as a match so callers can test with errors.Is.
func (e *SQLError) Is(target error) bool { return target == ErrSQL }

// asSQLError turns any engine failure into a *SQLError, keeping an existing
// one untouched apart from filling in the query.
func asSQLError(err error, query string) error {
	if err == nil {
		return nil
	}
	var sqlErr *SQLError
	if errors.As(err, &sqlErr) {
		if sqlErr.Query == "" {
			sqlErr.Query = query
		}
		return sqlErr
	}
	return &SQLError{Message: err.Error(), Query: query, Err: err}
}
