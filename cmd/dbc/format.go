package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dbcore/dbc"
	"gopkg.in/yaml.v3"
)

type format string

const (
	formatTable format = "table"
	formatJSON  format = "json"
	formatYAML  format = "yaml"
)

func parseFormat(s string) (format, error) {
	switch f := format(strings.ToLower(s)); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	case "":
		return formatTable, nil
	default:
		return "", fmt.Errorf("unknown format %q: want table, json or yaml", s)
	}
}

// table is a rowset copied out for printing. NULL cells are nil.
type table struct {
	Columns []string    `json:"columns" yaml:"columns"`
	Rows    [][]*string `json:"rows" yaml:"rows"`
}

func collect(rs dbc.Rowset) (table, error) {
	t := table{Columns: rs.Columns(), Rows: make([][]*string, 0, rs.RowCount())}
	for ok := rs.First(); ok; ok = rs.Next() {
		row := make([]*string, rs.ColumnCount())
		for i := range row {
			null, err := rs.IsNull(i)
			if err != nil {
				return table{}, err
			}
			if null {
				continue
			}
			v, err := rs.Text(i)
			if err != nil {
				return table{}, err
			}
			row[i] = &v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func (f format) write(w io.Writer, t table) error {
	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = "NULL"
				if v != nil {
					cells[i] = *v
				}
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		return tw.Flush()
	}
}
