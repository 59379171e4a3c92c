package dbc

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholder marks one substitutable position in a prepared statement template.
const Placeholder = '?'

type param struct {
	value string
	set   bool
}

// preparedStatement substitutes bound values into a template and delegates
// execution to an internal statement.
type preparedStatement struct {
	query  string
	marks  int
	params []param
	exec   *statement
}

// Ensure preparedStatement satisfies the PreparedStatement interface at compile time.
var _ PreparedStatement = (*preparedStatement)(nil)

func newPreparedStatement(query string, exec *statement) *preparedStatement {
	return &preparedStatement{
		query: query,
		marks: strings.Count(query, string(Placeholder)),
		exec:  exec,
	}
}

func (p *preparedStatement) SetInt(index int, value int) error {
	return p.set(index, strconv.Itoa(value))
}

func (p *preparedStatement) SetLong(index int, value int64) error {
	return p.set(index, strconv.FormatInt(value, 10))
}

func (p *preparedStatement) SetFloat(index int, value float32) error {
	return p.set(index, strconv.FormatFloat(float64(value), 'f', -1, 32))
}

func (p *preparedStatement) SetDouble(index int, value float64) error {
	return p.set(index, strconv.FormatFloat(value, 'f', -1, 64))
}

// SetString binds value verbatim; it is not quoted or escaped.
func (p *preparedStatement) SetString(index int, value string) error {
	return p.set(index, value)
}

func (p *preparedStatement) SetNull(index int) error {
	return p.set(index, "NULL")
}

func (p *preparedStatement) set(index int, value string) error {
	if p.exec.closed {
		return ErrStatementClosed
	}
	if index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrBinding, index)
	}
	for len(p.params) <= index {
		p.params = append(p.params, param{})
	}
	p.params[index] = param{value: value, set: true}
	return nil
}

func (p *preparedStatement) ClearParameters() { p.params = nil }

func (p *preparedStatement) ParameterCount() int { return p.marks }

// bind replaces each placeholder, left to right, with the value bound at the
// next index.
func (p *preparedStatement) bind() (string, error) {
	for i, prm := range p.params {
		if !prm.set {
			return "", fmt.Errorf("%w: parameter %d is not bound", ErrBinding, i)
		}
	}
	if len(p.params) < p.marks {
		return "", fmt.Errorf("%w: %d of %d parameters bound", ErrBinding, len(p.params), p.marks)
	}
	if len(p.params) > p.marks {
		return "", fmt.Errorf("%w: %d parameters bound for %d placeholders", ErrBinding, len(p.params), p.marks)
	}

	var b strings.Builder
	next := 0
	for i := 0; i < len(p.query); i++ {
		if p.query[i] == Placeholder {
			b.WriteString(p.params[next].value)
			next++
			continue
		}
		b.WriteByte(p.query[i])
	}
	return b.String(), nil
}

func (p *preparedStatement) ExecuteQuery() (Rowset, error) {
	if p.exec.closed {
		return nil, ErrStatementClosed
	}
	q, err := p.bind()
	if err != nil {
		return nil, err
	}
	return p.exec.ExecuteQuery(q)
}

func (p *preparedStatement) ExecuteUpdate() (int64, error) {
	if p.exec.closed {
		return 0, ErrStatementClosed
	}
	q, err := p.bind()
	if err != nil {
		return 0, err
	}
	return p.exec.ExecuteUpdate(q)
}

func (p *preparedStatement) Connection() Connection { return p.exec.Connection() }

func (p *preparedStatement) Close() error { return p.exec.Close() }

// QuoteString returns s as a single-quoted SQL string literal with embedded
// quotes doubled.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
