package sqldb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dbcore/dbc"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrDriverName is returned when no driver name is configured.
	ErrDriverName = errors.New("driver name cannot be empty")

	// ErrTxInProgress is returned when a transaction is begun while one is active.
	ErrTxInProgress = errors.New("cannot start a transaction within a transaction")

	// ErrNoTransaction is returned by Commit and Rollback without an active transaction.
	ErrNoTransaction = errors.New("no transaction is active")
)

// Config configures the engine.
type Config struct {
	// DriverName is the database/sql driver name, e.g. "sqlite" or "duckdb".
	DriverName string

	// DSN turns the URI payload into a data source name. If nil, the
	// payload is used as is.
	DSN func(name string) string
}

// Engine opens database/sql connections through sqlx.
type Engine struct {
	driver string
	dsn    func(string) string
}

// Ensure Engine satisfies the dbc.Engine interface at compile time.
var _ dbc.Engine = (*Engine)(nil)

// New creates an engine for cfg.DriverName.
func New(cfg Config) (*Engine, error) {
	if cfg.DriverName == "" {
		return nil, ErrDriverName
	}
	return &Engine{driver: cfg.DriverName, dsn: cfg.DSN}, nil
}

// DriverName returns the configured database/sql driver name.
func (e *Engine) DriverName() string { return e.driver }

// Open connects to the data source for name and reserves one connection.
func (e *Engine) Open(name string) (dbc.Handle, error) {
	dsn := name
	if e.dsn != nil {
		dsn = e.dsn(name)
	}

	db, err := sqlx.Connect(e.driver, dsn)
	if err != nil {
		return nil, err
	}

	conn, err := db.Connx(context.Background())
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &handle{db: db, conn: conn}, nil
}

// runner is satisfied by both *sqlx.Conn and *sqlx.Tx.
type runner interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

type handle struct {
	db   *sqlx.DB
	conn *sqlx.Conn
	tx   *sqlx.Tx
}

// Ensure handle satisfies the optional dbc interfaces at compile time.
var (
	_ dbc.Transactor = (*handle)(nil)
	_ dbc.Updater    = (*handle)(nil)
)

func (h *handle) runner() runner {
	if h.tx != nil {
		return h.tx
	}
	return h.conn
}

func (h *handle) Query(query string) (*dbc.Result, error) {
	rows, err := h.runner().QueryxContext(context.Background(), query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &dbc.Result{Columns: columns}
	var nulls []bool
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for _, v := range row {
			s, null := Text(v)
			if null && nulls == nil {
				nulls = make([]bool, len(res.Values), len(res.Values)+len(row))
			}
			res.Values = append(res.Values, s)
			if nulls != nil {
				nulls = append(nulls, null)
			}
		}
		res.Rows++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res.Nulls = nulls
	return res, nil
}

// Update executes query and reports rows affected. Drivers that cannot
// report it yield zero.
func (h *handle) Update(query string) (int64, error) {
	r, err := h.runner().ExecContext(context.Background(), query)
	if err != nil {
		return 0, err
	}
	n, err := r.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (h *handle) Begin() error {
	if h.tx != nil {
		return ErrTxInProgress
	}
	tx, err := h.conn.BeginTxx(context.Background(), nil)
	if err != nil {
		return err
	}
	h.tx = tx
	return nil
}

func (h *handle) Commit() error {
	if h.tx == nil {
		return ErrNoTransaction
	}
	err := h.tx.Commit()
	h.tx = nil
	return err
}

func (h *handle) Rollback() error {
	if h.tx == nil {
		return ErrNoTransaction
	}
	err := h.tx.Rollback()
	h.tx = nil
	return err
}

// Close rolls back an active transaction and releases the connection and
// its pool.
func (h *handle) Close() error {
	var errs []error
	if h.tx != nil {
		if err := h.tx.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("rollback: %w", err))
		}
		h.tx = nil
	}
	errs = append(errs, h.conn.Close(), h.db.Close())
	return errors.Join(errs...)
}

// Text converts a value scanned from a driver into its cell text and
// reports whether it was NULL.
func Text(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", true
	case string:
		return v, false
	case []byte:
		return string(v), false
	case int64:
		return strconv.FormatInt(v, 10), false
	case int32:
		return strconv.FormatInt(int64(v), 10), false
	case int16:
		return strconv.FormatInt(int64(v), 10), false
	case int8:
		return strconv.FormatInt(int64(v), 10), false
	case int:
		return strconv.Itoa(v), false
	case uint64:
		return strconv.FormatUint(v, 10), false
	case uint32:
		return strconv.FormatUint(uint64(v), 10), false
	case uint16:
		return strconv.FormatUint(uint64(v), 10), false
	case uint8:
		return strconv.FormatUint(uint64(v), 10), false
	case uint:
		return strconv.FormatUint(uint64(v), 10), false
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), false
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), false
	case bool:
		return strconv.FormatBool(v), false
	case time.Time:
		return v.Format(time.RFC3339Nano), false
	case fmt.Stringer:
		return v.String(), false
	default:
		return fmt.Sprint(v), false
	}
}
