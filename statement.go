package dbc

import (
	"log/slog"
	"time"
)

// statement runs ad-hoc queries on the handle of its connection and owns
// the rowset of its latest execution.
type statement struct {
	conn    *Conn
	current *rowset
	gen     uint64
	closed  bool
}

// Ensure statement satisfies the Statement interface at compile time.
var _ Statement = (*statement)(nil)

func (s *statement) handle() (Handle, error) {
	if s.closed {
		return nil, ErrStatementClosed
	}
	if s.conn.handle == nil {
		return nil, ErrConnectionClosed
	}
	return s.conn.handle, nil
}

// ExecuteQuery runs query and materializes the result into a new rowset.
func (s *statement) ExecuteQuery(query string) (Rowset, error) {
	h, err := s.handle()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := h.Query(query)
	if err != nil {
		s.conn.logger.Debug("query rejected", slog.String("error", err.Error()))
		return nil, asSQLError(err, query)
	}
	if res == nil {
		res = &Result{}
	}
	if err := res.validate(); err != nil {
		return nil, err
	}

	s.gen++
	s.current = newRowset(s, s.gen, res)
	s.conn.logger.Debug("query executed",
		slog.Int("rows", res.Rows),
		slog.Int("columns", len(res.Columns)),
		slog.Duration("duration", time.Since(start)),
	)
	return s.current, nil
}

// ExecuteUpdate runs query and reports rows affected when the engine can,
// otherwise the row count of the result.
func (s *statement) ExecuteUpdate(query string) (int64, error) {
	h, err := s.handle()
	if err != nil {
		return 0, err
	}

	u, ok := h.(Updater)
	if !ok {
		rs, err := s.ExecuteQuery(query)
		if err != nil {
			return 0, err
		}
		return int64(rs.RowCount()), nil
	}

	start := time.Now()
	n, err := u.Update(query)
	if err != nil {
		s.conn.logger.Debug("update rejected", slog.String("error", err.Error()))
		return 0, asSQLError(err, query)
	}
	s.release()
	s.conn.logger.Debug("update executed",
		slog.Int64("rows_affected", n),
		slog.Duration("duration", time.Since(start)),
	)
	return n, nil
}

func (s *statement) Connection() Connection { return s.conn }

func (s *statement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.release()
	s.conn.forget(s)
	return nil
}

// release drops the current rowset; cursors still held by callers go stale.
func (s *statement) release() {
	s.gen++
	s.current = nil
}
