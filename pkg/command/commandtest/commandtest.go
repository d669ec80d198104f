// Package commandtest provides in-memory command and row doubles for driver-free tests.
package commandtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/dialect"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// ErrNoMoreRows is returned by Rows.Scan when called without a current row.
var ErrNoMoreRows = errors.New("commandtest: scan without current row")

// Rows is an in-memory row cursor that records whether it was closed.
type Rows struct {
	Cols    []string
	Data    [][]any
	ScanErr error
	IterErr error

	mu      sync.Mutex
	current int
	closed  bool
}

// NewRows creates a cursor over data with the given columns.
func NewRows(cols []string, data ...[]any) *Rows {
	return &Rows{Cols: cols, Data: data, current: -1}
}

// Columns returns the column names.
func (r *Rows) Columns() ([]string, error) {
	return r.Cols, nil
}

// Next advances to the next row.
func (r *Rows) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.current++
	return r.current < len(r.Data)
}

// Scan copies the current row into dest, which must be pointers to any.
func (r *Rows) Scan(dest ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ScanErr != nil {
		return r.ScanErr
	}
	if r.current < 0 || r.current >= len(r.Data) {
		return ErrNoMoreRows
	}
	row := r.Data[r.current]
	if len(dest) != len(row) {
		return fmt.Errorf("commandtest: expected %d destination arguments in Scan, not %d", len(row), len(dest))
	}
	for i, d := range dest {
		p, ok := d.(*any)
		if !ok {
			return fmt.Errorf("commandtest: unsupported scan destination %T", d)
		}
		*p = row[i]
	}
	return nil
}

// Close closes the cursor.
func (r *Rows) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Err returns the configured iteration error.
func (r *Rows) Err() error {
	return r.IterErr
}

// Closed reports whether Close was called.
func (r *Rows) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Execution records one driver call made by a Command.
type Execution struct {
	Method string
	SQL    string
	Params []param.Parameter
}

// Command is a recording command double. Zero value is not usable; call New.
type Command struct {
	text    string
	params  command.Parameters
	dialect dialect.Provider

	// RowsAffected is returned by ExecNonQuery.
	RowsAffected int64
	// ScalarValue is returned by ExecScalar.
	ScalarValue any
	// Rows is returned by ExecReader; an empty cursor is returned when nil.
	Rows *Rows
	// Err is returned by every Exec method when set.
	Err error
	// NewParameter backs CreateParameter when set.
	NewParameter func() *param.Parameter

	Executions []Execution
}

// New creates a command double using the DuckDB dialect and a shared parameter list.
func New() *Command {
	return &Command{params: param.NewList(false), dialect: dialect.DuckDB}
}

// WithParameters replaces the parameter collection.
func (c *Command) WithParameters(p command.Parameters) *Command {
	c.params = p
	return c
}

// WithDialect replaces the dialect.
func (c *Command) WithDialect(d dialect.Provider) *Command {
	c.dialect = d
	return c
}

func (c *Command) Text() string { return c.text }
func (c *Command) SetText(sql string) { c.text = sql }
func (c *Command) Parameters() command.Parameters { return c.params }
func (c *Command) Dialect() dialect.Provider { return c.dialect }

// CreateParameter returns NewParameter() when set, or an empty parameter.
func (c *Command) CreateParameter() *param.Parameter {
	if c.NewParameter != nil {
		return c.NewParameter()
	}
	return &param.Parameter{}
}

// ExecNonQuery records the call and returns RowsAffected.
func (c *Command) ExecNonQuery(_ context.Context) (int64, error) {
	c.record("ExecNonQuery")
	if c.Err != nil {
		return 0, c.Err
	}
	return c.RowsAffected, nil
}

// ExecScalar records the call and returns ScalarValue.
func (c *Command) ExecScalar(_ context.Context) (any, error) {
	c.record("ExecScalar")
	if c.Err != nil {
		return nil, c.Err
	}
	return c.ScalarValue, nil
}

// ExecReader records the call and returns Rows.
func (c *Command) ExecReader(_ context.Context) (command.Rows, error) {
	c.record("ExecReader")
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Rows == nil {
		c.Rows = NewRows(nil)
	}
	return c.Rows, nil
}

// Calls returns the number of driver calls made.
func (c *Command) Calls() int {
	return len(c.Executions)
}

func (c *Command) record(method string) {
	snapshot := make([]param.Parameter, 0, c.params.Len())
	for _, p := range c.params.All() {
		snapshot = append(snapshot, *p)
	}
	c.Executions = append(c.Executions, Execution{Method: method, SQL: c.text, Params: snapshot})
}

// RejectingParameters is a parameter collection that refuses the first n
// parameters it is given, the way strict drivers refuse reused parameter objects.
type RejectingParameters struct {
	*param.List

	Rejections int
	Added      []*param.Parameter
	rejectErr  error
	remaining  int
}

// NewRejectingParameters rejects the next n Add calls with err.
func NewRejectingParameters(n int, err error) *RejectingParameters {
	return &RejectingParameters{List: param.NewList(false), remaining: n, rejectErr: err}
}

// Add rejects while rejections remain, then delegates to the list.
func (r *RejectingParameters) Add(p *param.Parameter) error {
	if r.remaining > 0 {
		r.remaining--
		r.Rejections++
		return r.rejectErr
	}
	r.Added = append(r.Added, p)
	return r.List.Add(p)
}
