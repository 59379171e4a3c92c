package dbc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errStale = fmt.Errorf("%w: %w", ErrOutOfRange, ErrStaleRowset)

// rowset is the materialized result of one statement execution.
type rowset struct {
	stmt *statement
	gen  uint64

	columns []string
	values  []string
	nulls   []bool
	rows    int

	pos int
	end *endRowset
}

// Ensure rowset and its end sentinel satisfy the Rowset interface at compile time.
var (
	_ Rowset = (*rowset)(nil)
	_ Rowset = (*endRowset)(nil)
)

func newRowset(stmt *statement, gen uint64, res *Result) *rowset {
	r := &rowset{
		stmt:    stmt,
		gen:     gen,
		columns: append([]string(nil), res.Columns...),
		values:  append([]string(nil), res.Values...),
		rows:    res.Rows,
	}
	if res.Nulls != nil {
		r.nulls = append([]bool(nil), res.Nulls...)
	}
	r.end = &endRowset{r: r}
	return r
}

func (r *rowset) End() Rowset { return r.end }

func (r *rowset) IsEnd() bool { return r.pos == -1 || r.pos >= r.rows }

func (r *rowset) First() bool {
	r.pos = 0
	return r.rows != 0
}

func (r *rowset) Last() bool {
	r.pos = r.rows - 1
	return r.rows != 0
}

func (r *rowset) Next() bool {
	if r.pos < r.rows {
		r.pos++
	}
	return !r.IsEnd()
}

// Previous steps back one row. It reports false only when it leaves the
// rows entirely, mirroring Next.
func (r *rowset) Previous() bool {
	switch {
	case r.pos >= r.rows:
		r.pos = r.rows - 1
	case r.pos >= 0:
		r.pos--
	}
	return !r.IsEnd()
}

func (r *rowset) Row() int { return r.pos }

func (r *rowset) ColumnName(column int) (string, error) {
	if err := r.check(); err != nil {
		return "", err
	}
	if column < 0 || column >= len(r.columns) {
		return "", fmt.Errorf("%w: column %d of %d", ErrOutOfRange, column, len(r.columns))
	}
	return r.columns[column], nil
}

func (r *rowset) ColumnNumber(name string) int {
	for i, c := range r.columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (r *rowset) ColumnCount() int { return len(r.columns) }

func (r *rowset) Columns() []string { return append([]string(nil), r.columns...) }

func (r *rowset) RowCount() int { return r.rows }

func (r *rowset) Connection() Connection { return r.stmt.Connection() }

func (r *rowset) Statement() Statement { return r.stmt }

// check fails once the owning statement has moved on to another result.
func (r *rowset) check() error {
	if r.stmt.closed || r.stmt.gen != r.gen {
		return errStale
	}
	return nil
}

func (r *rowset) index(column int) (int, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	if r.IsEnd() {
		return 0, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, r.pos, r.rows)
	}
	if column < 0 || column >= len(r.columns) {
		return 0, fmt.Errorf("%w: column %d of %d", ErrOutOfRange, column, len(r.columns))
	}
	return r.pos*len(r.columns) + column, nil
}

func (r *rowset) Text(column int) (string, error) {
	i, err := r.index(column)
	if err != nil {
		return "", err
	}
	return r.values[i], nil
}

func (r *rowset) IsNull(column int) (bool, error) {
	i, err := r.index(column)
	if err != nil {
		return false, err
	}
	return r.nulls != nil && r.nulls[i], nil
}

func (r *rowset) Int(column int) (int, error) {
	s, err := r.Text(column)
	if err != nil {
		return 0, err
	}
	return int(lenientInt(s, strconv.IntSize)), nil
}

func (r *rowset) Int64(column int) (int64, error) {
	s, err := r.Text(column)
	if err != nil {
		return 0, err
	}
	return lenientInt(s, 64), nil
}

func (r *rowset) Float32(column int) (float32, error) {
	s, err := r.Text(column)
	if err != nil {
		return 0, err
	}
	return float32(lenientFloat(s)), nil
}

func (r *rowset) Float64(column int) (float64, error) {
	s, err := r.Text(column)
	if err != nil {
		return 0, err
	}
	return lenientFloat(s), nil
}

func (r *rowset) ParseInt(column int) (int, error) {
	s, err := r.Text(column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, strconv.IntSize)
	if err != nil {
		return 0, errors.Join(ErrConversion, err)
	}
	return int(v), nil
}

func (r *rowset) ParseInt64(column int) (int64, error) {
	s, err := r.Text(column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Join(ErrConversion, err)
	}
	return v, nil
}

func (r *rowset) ParseFloat32(column int) (float32, error) {
	s, err := r.Text(column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, errors.Join(ErrConversion, err)
	}
	return float32(v), nil
}

func (r *rowset) ParseFloat64(column int) (float64, error) {
	s, err := r.Text(column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Join(ErrConversion, err)
	}
	return v, nil
}

// endRowset is the past-the-last-row sentinel of a rowset. Column metadata
// stays readable; every cell accessor fails.
type endRowset struct {
	r *rowset
}

func (e *endRowset) End() Rowset    { return e }
func (e *endRowset) IsEnd() bool    { return true }
func (e *endRowset) First() bool    { return false }
func (e *endRowset) Last() bool     { return false }
func (e *endRowset) Next() bool     { return false }
func (e *endRowset) Previous() bool { return false }
func (e *endRowset) Row() int       { return e.r.rows }

func (e *endRowset) ColumnName(column int) (string, error) { return e.r.ColumnName(column) }
func (e *endRowset) ColumnNumber(name string) int          { return e.r.ColumnNumber(name) }
func (e *endRowset) ColumnCount() int                      { return e.r.ColumnCount() }
func (e *endRowset) Columns() []string                     { return e.r.Columns() }
func (e *endRowset) RowCount() int                         { return e.r.rows }
func (e *endRowset) Connection() Connection                { return e.r.Connection() }
func (e *endRowset) Statement() Statement                  { return e.r.Statement() }

func (e *endRowset) errEnd() error {
	if err := e.r.check(); err != nil {
		return err
	}
	return fmt.Errorf("%w: cursor is at end", ErrOutOfRange)
}

func (e *endRowset) Text(int) (string, error)          { return "", e.errEnd() }
func (e *endRowset) IsNull(int) (bool, error)          { return false, e.errEnd() }
func (e *endRowset) Int(int) (int, error)              { return 0, e.errEnd() }
func (e *endRowset) Int64(int) (int64, error)          { return 0, e.errEnd() }
func (e *endRowset) Float32(int) (float32, error)      { return 0, e.errEnd() }
func (e *endRowset) Float64(int) (float64, error)      { return 0, e.errEnd() }
func (e *endRowset) ParseInt(int) (int, error)         { return 0, e.errEnd() }
func (e *endRowset) ParseInt64(int) (int64, error)     { return 0, e.errEnd() }
func (e *endRowset) ParseFloat32(int) (float32, error) { return 0, e.errEnd() }
func (e *endRowset) ParseFloat64(int) (float64, error) { return 0, e.errEnd() }

// lenientInt parses the leading integer of s the way atoi does. Values that
// overflow saturate.
func lenientInt(s string, bitSize int) int64 {
	p := numericPrefix(s, false)
	if p == "" {
		return 0
	}
	v, _ := strconv.ParseInt(p, 10, bitSize)
	return v
}

// lenientFloat parses the leading decimal number of s the way atof does.
func lenientFloat(s string) float64 {
	p := numericPrefix(s, true)
	if p == "" {
		return 0
	}
	v, _ := strconv.ParseFloat(p, 64)
	return v
}

func numericPrefix(s string, float bool) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	mark := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	digits := i - mark
	if !float {
		if digits == 0 {
			return ""
		}
		return s[start:i]
	}
	if i < len(s) && s[i] == '.' {
		i++
		frac := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		digits += i - frac
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > exp {
			i = j
		}
	}
	return s[start:i]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}
