package dbc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const (
	sqlBegin    = "BEGIN TRANSACTION"
	sqlCommit   = "COMMIT"
	sqlRollback = "ROLLBACK"
)

// ConnectionConfig controls how a Conn reaches its engine.
type ConnectionConfig struct {
	// Engine opens handles. Required.
	Engine Engine

	// Schemes lists the URI schemes Open accepts. Empty accepts any scheme.
	Schemes []string

	// Logger receives debug records for opens, closes and executions.
	// If nil, records are discarded.
	Logger *slog.Logger
}

// Conn is a Connection over an Engine. It owns the statements it creates:
// re-opening or closing the connection closes them.
type Conn struct {
	id      string
	engine  Engine
	schemes []string
	logger  *slog.Logger

	handle  Handle
	uri     URI
	control *statement
	inTx    bool
	stmts   map[*statement]struct{}
}

// Ensure Conn satisfies the Connection interface at compile time.
var _ Connection = (*Conn)(nil)

// NewConnection creates a closed connection for cfg.Engine.
func NewConnection(cfg ConnectionConfig) (*Conn, error) {
	if cfg.Engine == nil {
		return nil, ErrEngineNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	id := uuid.NewString()
	return &Conn{
		id:      id,
		engine:  cfg.Engine,
		schemes: append([]string(nil), cfg.Schemes...),
		logger:  logger.With(slog.String("conn_id", id)),
		stmts:   make(map[*statement]struct{}),
	}, nil
}

// ID returns the identifier used to correlate log records of this connection.
func (c *Conn) ID() string { return c.id }

// Open releases any open handle, strips the scheme from uri and opens the
// remaining payload with the engine. The connection stays closed on failure.
func (c *Conn) Open(uri string) error {
	if c.handle != nil {
		c.release()
	}

	u, err := ParseURI(uri)
	if err != nil {
		return err
	}
	if len(c.schemes) > 0 && !u.HasScheme(c.schemes...) {
		return fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	h, err := c.engine.Open(u.Payload)
	if err != nil {
		c.logger.Debug("open failed", slog.String("scheme", u.Scheme), slog.String("error", err.Error()))
		return asSQLError(err, "")
	}
	if h == nil {
		return &SQLError{Message: "engine returned no handle for " + u.Scheme}
	}

	c.handle = h
	c.uri = u
	c.control = &statement{conn: c}
	c.logger.Debug("connection opened", slog.String("scheme", u.Scheme))
	return nil
}

func (c *Conn) IsOpen() bool { return c.handle != nil }

func (c *Conn) URI() string {
	if c.handle == nil {
		return ""
	}
	return c.uri.Raw
}

func (c *Conn) NewStatement() (Statement, error) {
	s, err := c.newStatement()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Conn) NewPreparedStatement(query string) (PreparedStatement, error) {
	s, err := c.newStatement()
	if err != nil {
		return nil, err
	}
	return newPreparedStatement(query, s), nil
}

func (c *Conn) newStatement() (*statement, error) {
	if c.handle == nil {
		return nil, ErrConnectionClosed
	}
	s := &statement{conn: c}
	c.stmts[s] = struct{}{}
	return s, nil
}

func (c *Conn) forget(s *statement) { delete(c.stmts, s) }

func (c *Conn) BeginTransaction() error {
	if err := c.transaction(sqlBegin, Transactor.Begin); err != nil {
		return err
	}
	c.inTx = true
	return nil
}

func (c *Conn) Commit() error { return c.endTransaction(sqlCommit, Transactor.Commit) }

func (c *Conn) Rollback() error { return c.endTransaction(sqlRollback, Transactor.Rollback) }

// endTransaction clears the pending transaction once it is over. A native
// commit or rollback ends the transaction even when it fails.
func (c *Conn) endTransaction(text string, native func(Transactor) error) error {
	err := c.transaction(text, native)
	if _, ok := c.handle.(Transactor); err == nil || ok {
		c.inTx = false
	}
	return err
}

// transaction uses the engine's native transaction API when the handle has
// one and otherwise sends control text through the internal statement.
func (c *Conn) transaction(text string, native func(Transactor) error) error {
	if c.handle == nil {
		return ErrConnectionClosed
	}
	if t, ok := c.handle.(Transactor); ok {
		if err := native(t); err != nil {
			return asSQLError(err, text)
		}
		c.logger.Debug("transaction control", slog.String("statement", text))
		return nil
	}
	if _, err := c.control.ExecuteUpdate(text); err != nil {
		return err
	}
	c.logger.Debug("transaction control", slog.String("statement", text))
	return nil
}

// Close issues a final commit, closes every statement created from the
// connection and releases the handle. A transaction begun with
// BeginTransaction is committed through Commit and its failure is returned.
// Otherwise COMMIT is sent as a statement and an engine rejection, such as
// no active transaction, is only logged. Closing a closed connection does
// nothing.
func (c *Conn) Close() error {
	if c.handle == nil {
		return nil
	}

	var errs []error
	if c.inTx {
		if err := c.Commit(); err != nil {
			c.logger.Warn("commit on close failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	} else if _, err := c.control.ExecuteUpdate(sqlCommit); err != nil {
		c.logger.Debug("commit on close rejected", slog.String("error", err.Error()))
	}
	if err := c.release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// release closes the statements and the handle without committing.
func (c *Conn) release() error {
	for s := range c.stmts {
		s.closed = true
		s.release()
	}
	clear(c.stmts)
	if c.control != nil {
		c.control.closed = true
		c.control.release()
		c.control = nil
	}

	h := c.handle
	c.handle = nil
	c.inTx = false
	scheme := c.uri.Scheme
	c.uri = URI{}

	if err := h.Close(); err != nil {
		c.logger.Warn("handle close failed", slog.String("scheme", scheme), slog.String("error", err.Error()))
		return asSQLError(err, "")
	}
	c.logger.Debug("connection closed", slog.String("scheme", scheme))
	return nil
}
