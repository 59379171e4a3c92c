package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/dbcore/dbc"
	"github.com/spf13/cobra"
)

func (c *Cmd) getQueryCmd() *cobra.Command {
	queryCmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Runs a query and prints its rows",
		Long: `Runs a query and prints its rows. Each --param is bound, in order, to the
next ? placeholder: integers and finite decimals are bound as numbers,
NULL as NULL and anything else, Inf and NaN included, as a quoted string
literal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuery(args[0])
		},
	}
	queryCmd.Flags().StringArrayVarP(&c.execFlags.params, "param", "p", nil, "placeholder value, repeatable")
	return queryCmd
}

func (c *Cmd) getExecCmd() *cobra.Command {
	execCmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Runs a statement and prints the rows affected",
		Long: `Runs a statement that produces no rows and prints the number of rows it
affected. With --tx the statement runs in a transaction that is committed
on success and rolled back on failure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExec(args[0])
		},
	}
	execCmd.Flags().StringArrayVarP(&c.execFlags.params, "param", "p", nil, "placeholder value, repeatable")
	execCmd.Flags().BoolVar(&c.execFlags.tx, "tx", false, "run the statement in a transaction")
	return execCmd
}

func (c *Cmd) runQuery(query string) (retErr error) {
	format, err := parseFormat(c.v.GetString(keyFormat))
	if err != nil {
		return err
	}

	conn, err := c.open()
	if err != nil {
		return err
	}
	defer func() { retErr = errors.Join(retErr, conn.Close()) }()

	var rs dbc.Rowset
	if len(c.execFlags.params) > 0 {
		ps, err := c.prepare(conn, query)
		if err != nil {
			return err
		}
		rs, err = ps.ExecuteQuery()
		if err != nil {
			return err
		}
	} else {
		stmt, err := conn.NewStatement()
		if err != nil {
			return err
		}
		rs, err = stmt.ExecuteQuery(query)
		if err != nil {
			return err
		}
	}

	t, err := collect(rs)
	if err != nil {
		return err
	}
	return format.write(c.out, t)
}

func (c *Cmd) runExec(query string) (retErr error) {
	conn, err := c.open()
	if err != nil {
		return err
	}
	defer func() { retErr = errors.Join(retErr, conn.Close()) }()

	if c.execFlags.tx {
		if err := conn.BeginTransaction(); err != nil {
			return err
		}
	}

	n, err := c.update(conn, query)
	if err != nil {
		if c.execFlags.tx {
			return errors.Join(err, conn.Rollback())
		}
		return err
	}

	if c.execFlags.tx {
		if err := conn.Commit(); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.out, "%d rows affected\n", n)
	return nil
}

func (c *Cmd) update(conn dbc.Connection, query string) (int64, error) {
	if len(c.execFlags.params) > 0 {
		ps, err := c.prepare(conn, query)
		if err != nil {
			return 0, err
		}
		return ps.ExecuteUpdate()
	}
	stmt, err := conn.NewStatement()
	if err != nil {
		return 0, err
	}
	return stmt.ExecuteUpdate(query)
}

func (c *Cmd) prepare(conn dbc.Connection, query string) (dbc.PreparedStatement, error) {
	ps, err := conn.NewPreparedStatement(query)
	if err != nil {
		return nil, err
	}
	for i, p := range c.execFlags.params {
		if err := bind(ps, i, p); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// bind infers the type of a command line value.
func bind(ps dbc.PreparedStatement, index int, value string) error {
	if value == "NULL" {
		return ps.SetNull(index)
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return ps.SetLong(index, n)
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return ps.SetDouble(index, f)
	}
	return ps.SetString(index, dbc.QuoteString(value))
}
