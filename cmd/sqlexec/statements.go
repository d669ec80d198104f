package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/exec"
)

func (a *app) queryCmd() *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a query and print its rows as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.command(pairs)
			if err != nil {
				return err
			}
			rows, err := exec.List[map[string]any](cmd.Context(), a.executor, c, args[0])
			if err != nil {
				return err
			}
			return renderTable(cmd.OutOrStdout(), rows)
		},
	}
	addParamFlag(cmd, &pairs)
	return cmd
}

func (a *app) execCmd() *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a statement and print the number of affected rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.command(pairs)
			if err != nil {
				return err
			}
			n, err := a.executor.ExecNonQuery(cmd.Context(), c, args[0], nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgGreen).Sprintf("✓ %d row(s) affected", n))
			return nil
		},
	}
	addParamFlag(cmd, &pairs)
	return cmd
}

func (a *app) scalarCmd() *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "scalar <sql>",
		Short: "Run a query and print the first column of the first row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.command(pairs)
			if err != nil {
				return err
			}
			v, err := a.executor.ScalarValue(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
			return nil
		},
	}
	addParamFlag(cmd, &pairs)
	return cmd
}

// command creates a command with the parameters from --param bound.
func (a *app) command(pairs []string) (command.Command, error) {
	params, err := parseParams(pairs)
	if err != nil {
		return nil, err
	}
	c := a.manager.NewCommand("")
	if err := a.executor.SetParameters(c, params); err != nil {
		return nil, err
	}
	return c, nil
}

// renderTable prints rows with their columns in name order.
func renderTable(w io.Writer, rows []map[string]any) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, color.New(color.Faint).Sprint("(0 rows)"))
		return err
	}

	headers := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		headers = append(headers, name)
	}
	sort.Strings(headers)

	data := pterm.TableData{headers}
	for _, row := range rows {
		line := make([]string, len(headers))
		for i, h := range headers {
			line[i] = formatValue(row[h])
		}
		data = append(data, line)
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, color.New(color.Faint).Sprintf("(%d rows)", len(rows)))
	return err
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}
