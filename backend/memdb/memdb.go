package memdb

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dbcore/dbc"
)

// Scheme is the URI scheme served by the memdb provider.
const Scheme = "memdb"

// Operation names recorded in Calls.
const (
	OpOpen  = "OPEN"
	OpQuery = "QUERY"
	OpClose = "CLOSE"
)

var (
	// ErrHandleClosed is returned when a closed handle is used.
	ErrHandleClosed = errors.New("memdb handle is closed")
)

// Config configures the engine.
type Config struct {
	// Strict makes unscripted queries fail with "no such query: <query>".
	Strict bool

	// Logger is passed to connections opened through NewProvider.
	Logger *slog.Logger
}

// Response describes a configured outcome.
type Response struct {
	// Columns and Rows make up the result table.
	Columns []string
	Rows    [][]string

	// Nulls marks NULL cells as row/column pairs.
	Nulls map[[2]int]bool

	// Affected is reported by Update when set.
	Affected *int64

	// Err is the engine diagnostic to fail with, when non-empty.
	Err string
}

// ResponseBuilder allows fluent configuration of responses.
type ResponseBuilder struct {
	e   *Engine
	key string
}

// ReturnRows sets the result table returned for the query.
func (b *ResponseBuilder) ReturnRows(columns []string, rows ...[]string) *ResponseBuilder {
	b.e.update(b.key, func(r *Response) {
		r.Columns = append([]string(nil), columns...)
		r.Rows = make([][]string, len(rows))
		for i, row := range rows {
			r.Rows[i] = append([]string(nil), row...)
		}
	})
	return b
}

// ReturnAffected sets the rows-affected count reported for the query when
// it is executed as an update.
func (b *ResponseBuilder) ReturnAffected(n int64) *ResponseBuilder {
	b.e.update(b.key, func(r *Response) { r.Affected = &n })
	return b
}

// ReturnNull marks the cell at row, column as NULL.
func (b *ResponseBuilder) ReturnNull(row, column int) *ResponseBuilder {
	b.e.update(b.key, func(r *Response) {
		if r.Nulls == nil {
			r.Nulls = make(map[[2]int]bool)
		}
		r.Nulls[[2]int{row, column}] = true
	})
	return b
}

// ReturnError makes the operation fail with message as the engine diagnostic.
func (b *ResponseBuilder) ReturnError(message string) *Engine {
	b.e.update(b.key, func(r *Response) { r.Err = message })
	return b.e
}

// Call records an operation performed against the engine.
type Call struct {
	Op     string
	Name   string
	Query  string
	Handle int
}

// Engine implements dbc.Engine from scripted responses.
type Engine struct {
	mu        sync.Mutex
	strict    bool
	logger    *slog.Logger
	responses map[string]Response
	calls     []Call
	handles   int
	open      int
}

// Ensure Engine satisfies the dbc.Engine interface at compile time.
var _ dbc.Engine = (*Engine)(nil)

// New creates an engine with no scripted responses.
func New(cfg Config) *Engine {
	return &Engine{
		strict:    cfg.Strict,
		logger:    cfg.Logger,
		responses: make(map[string]Response),
	}
}

// NewProvider returns a provider for the memdb scheme backed by e.
func NewProvider(e *Engine) (*dbc.EngineProvider, error) {
	if e == nil {
		return nil, dbc.ErrEngineNil
	}
	return dbc.NewProvider(dbc.ProviderConfig{
		Name:    "memdb",
		Schemes: []string{Scheme},
		Engine:  e,
		Logger:  e.logger,
	})
}

// OnQuery configures the response for an exact query text.
func (e *Engine) OnQuery(query string) *ResponseBuilder {
	return &ResponseBuilder{e: e, key: OpQuery + " " + query}
}

// OnOpen configures the response for opening name.
func (e *Engine) OnOpen(name string) *ResponseBuilder {
	return &ResponseBuilder{e: e, key: OpOpen + " " + name}
}

func (e *Engine) update(key string, fn func(*Response)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.responses[key]
	fn(&r)
	e.responses[key] = r
}

// Calls returns a copy of the recorded calls.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Queries returns the text of every recorded query in order.
func (e *Engine) Queries() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, c := range e.calls {
		if c.Op == OpQuery {
			out = append(out, c.Query)
		}
	}
	return out
}

// OpenHandles returns the number of handles opened and not yet closed.
func (e *Engine) OpenHandles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// Reset forgets recorded calls. Scripted responses are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

// Open implements dbc.Engine.
func (e *Engine) Open(name string) (dbc.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.handles++
	id := e.handles
	e.calls = append(e.calls, Call{Op: OpOpen, Name: name, Handle: id})
	if r, ok := e.responses[OpOpen+" "+name]; ok && r.Err != "" {
		return nil, errors.New(r.Err)
	}
	e.open++
	return &handle{e: e, name: name, id: id}, nil
}

type handle struct {
	e      *Engine
	name   string
	id     int
	closed bool
}

// Ensure handle satisfies the optional dbc.Updater interface at compile time.
var _ dbc.Updater = (*handle)(nil)

func (h *handle) Query(query string) (*dbc.Result, error) {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()

	r, err := h.lookup(query)
	if err != nil {
		return nil, err
	}
	return r.result(), nil
}

// Update reports the scripted rows-affected count, or the row count of the
// scripted table when none was set.
func (h *handle) Update(query string) (int64, error) {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()

	r, err := h.lookup(query)
	if err != nil {
		return 0, err
	}
	if r.Affected != nil {
		return *r.Affected, nil
	}
	return int64(len(r.Rows)), nil
}

func (h *handle) lookup(query string) (Response, error) {
	h.e.calls = append(h.e.calls, Call{Op: OpQuery, Name: h.name, Query: query, Handle: h.id})
	if h.closed {
		return Response{}, ErrHandleClosed
	}

	r, ok := h.e.responses[OpQuery+" "+query]
	if !ok {
		if h.e.strict {
			return Response{}, errors.New("no such query: " + query)
		}
		return Response{}, nil
	}
	if r.Err != "" {
		return Response{}, errors.New(r.Err)
	}
	return r, nil
}

func (h *handle) Close() error {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()

	h.e.calls = append(h.e.calls, Call{Op: OpClose, Name: h.name, Handle: h.id})
	if h.closed {
		return ErrHandleClosed
	}
	h.closed = true
	h.e.open--
	return nil
}

// result flattens the scripted rows. Short rows are padded with empty cells.
func (r Response) result() *dbc.Result {
	res := &dbc.Result{
		Columns: append([]string(nil), r.Columns...),
		Values:  make([]string, 0, len(r.Rows)*len(r.Columns)),
		Rows:    len(r.Rows),
	}
	if len(r.Nulls) > 0 {
		res.Nulls = make([]bool, len(r.Rows)*len(r.Columns))
	}
	for i, row := range r.Rows {
		for j := range r.Columns {
			var v string
			if j < len(row) {
				v = row[j]
			}
			res.Values = append(res.Values, v)
			if res.Nulls != nil && r.Nulls[[2]int{i, j}] {
				res.Nulls[i*len(r.Columns)+j] = true
			}
		}
	}
	return res
}
