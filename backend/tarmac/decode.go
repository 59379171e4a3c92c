package tarmac

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dbcore/dbc"
)

// ErrDecodeData is returned when query data is not a JSON array of rows.
var ErrDecodeData = errors.New("failed to decode query data")

// decodeData converts the JSON rows returned by the host into a result. Rows
// may be objects keyed by column name or arrays in column order. Without
// column names from the host, the sorted keys of the first object are used.
func decodeData(columns []string, data []byte) (*dbc.Result, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return &dbc.Result{Columns: columns}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []json.RawMessage
	if err := dec.Decode(&rows); err != nil {
		return nil, dataError(err)
	}

	res := &dbc.Result{Columns: columns}
	var nulls []bool
	for i, raw := range rows {
		cells, err := decodeRow(raw, &res.Columns, i)
		if err != nil {
			return nil, err
		}
		for _, v := range cells {
			s, null := text(v)
			if null && nulls == nil {
				nulls = make([]bool, len(res.Values), len(res.Values)+len(cells))
			}
			res.Values = append(res.Values, s)
			if nulls != nil {
				nulls = append(nulls, null)
			}
		}
		res.Rows++
	}
	res.Nulls = nulls
	return res, nil
}

func decodeRow(raw json.RawMessage, columns *[]string, i int) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	switch first(raw) {
	case '{':
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil, dataError(err)
		}
		if len(*columns) == 0 && i == 0 {
			for k := range obj {
				*columns = append(*columns, k)
			}
			sort.Strings(*columns)
		}
		cells := make([]any, len(*columns))
		for j, c := range *columns {
			cells[j] = obj[c]
		}
		return cells, nil
	case '[':
		var arr []any
		if err := dec.Decode(&arr); err != nil {
			return nil, dataError(err)
		}
		if len(arr) != len(*columns) {
			return nil, dataError(fmt.Errorf("row %d has %d cells for %d columns", i, len(arr), len(*columns)))
		}
		return arr, nil
	default:
		return nil, dataError(fmt.Errorf("row %d is not an object or array", i))
	}
}

func first(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func text(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", true
	case string:
		return v, false
	case json.Number:
		return v.String(), false
	case bool:
		if v {
			return "true", false
		}
		return "false", false
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v), false
		}
		return string(b), false
	}
}

func dataError(err error) error {
	return errors.Join(ErrHostResponseInvalid, ErrDecodeData, err)
}
