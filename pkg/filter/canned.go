package filter

import (
	"reflect"
	"sync"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// Statement is one command intercepted by a Canned filter.
type Statement struct {
	SQL    string
	Params []param.Parameter
}

// Canned is a ResultsFilter that answers every capability with preconfigured values.
//
// A per-call function wins over the matching fixed value. Fields must be set before
// the filter is installed; the recorded history is safe for concurrent use.
type Canned struct {
	Results               any
	RefResults            any
	ColumnResults         any
	ColumnDistinctResults any
	SingleResult          any
	RefSingleResult       any
	ScalarResult          any
	LongScalarResult      int64
	ExecuteSQLResult      int64
	DictionaryResults     any
	LookupResults         any

	ResultsFn           func(cmd command.Command, t reflect.Type) any
	RefResultsFn        func(cmd command.Command, t reflect.Type) any
	ColumnResultsFn     func(cmd command.Command, t reflect.Type) any
	SingleResultFn      func(cmd command.Command, t reflect.Type) any
	ScalarResultFn      func(cmd command.Command, t reflect.Type) any
	LongScalarResultFn  func(cmd command.Command) int64
	ExecuteSQLFn        func(cmd command.Command) int64
	DictionaryResultsFn func(cmd command.Command, k, v reflect.Type) any
	LookupResultsFn     func(cmd command.Command, k, v reflect.Type) any

	// SQLFilter observes the SQL text of every intercepted command.
	SQLFilter func(sql string)
	// CommandFilter observes every intercepted command.
	CommandFilter func(cmd command.Command)

	mu         sync.Mutex
	statements []Statement
}

var _ ResultsFilter = (*Canned)(nil)

// Statements returns the intercepted statements in call order.
func (c *Canned) Statements() []Statement {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Statement, len(c.statements))
	copy(out, c.statements)
	return out
}

// LastSQL returns the text of the most recent intercepted statement.
func (c *Canned) LastSQL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.statements) == 0 {
		return ""
	}
	return c.statements[len(c.statements)-1].SQL
}

// Reset clears the recorded history.
func (c *Canned) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statements = nil
}

func (c *Canned) observe(cmd command.Command) {
	params := cmd.Parameters().All()
	snapshot := make([]param.Parameter, len(params))
	for i, p := range params {
		snapshot[i] = param.Parameter{
			Name:      p.Name,
			Type:      p.Type,
			Value:     p.Value,
			Precision: p.Precision,
			Scale:     p.Scale,
			Size:      p.Size,
		}
	}

	c.mu.Lock()
	c.statements = append(c.statements, Statement{SQL: cmd.Text(), Params: snapshot})
	c.mu.Unlock()

	if c.SQLFilter != nil {
		c.SQLFilter(cmd.Text())
	}
	if c.CommandFilter != nil {
		c.CommandFilter(cmd)
	}
}

func (c *Canned) ExecuteSQL(cmd command.Command) (int64, error) {
	c.observe(cmd)
	if c.ExecuteSQLFn != nil {
		return c.ExecuteSQLFn(cmd), nil
	}
	return c.ExecuteSQLResult, nil
}

func (c *Canned) GetScalar(cmd command.Command, t reflect.Type) (any, error) {
	c.observe(cmd)
	if c.ScalarResultFn != nil {
		return c.ScalarResultFn(cmd, t), nil
	}
	return c.ScalarResult, nil
}

func (c *Canned) GetLongScalar(cmd command.Command) (int64, error) {
	c.observe(cmd)
	if c.LongScalarResultFn != nil {
		return c.LongScalarResultFn(cmd), nil
	}
	return c.LongScalarResult, nil
}

func (c *Canned) GetSingle(cmd command.Command, t reflect.Type) (any, error) {
	c.observe(cmd)
	return c.single(cmd, t), nil
}

func (c *Canned) GetList(cmd command.Command, t reflect.Type) (any, error) {
	c.observe(cmd)
	return c.list(cmd, t), nil
}

func (c *Canned) GetColumn(cmd command.Command, t reflect.Type) (any, error) {
	c.observe(cmd)
	return c.column(cmd, t), nil
}

func (c *Canned) GetColumnDistinct(cmd command.Command, t reflect.Type) (any, error) {
	c.observe(cmd)
	if c.ColumnDistinctResults != nil {
		return c.ColumnDistinctResults, nil
	}
	return c.column(cmd, t), nil
}

func (c *Canned) GetDictionary(cmd command.Command, k, v reflect.Type) (any, error) {
	c.observe(cmd)
	if c.DictionaryResultsFn != nil {
		return c.DictionaryResultsFn(cmd, k, v), nil
	}
	return c.DictionaryResults, nil
}

func (c *Canned) GetLookup(cmd command.Command, k, v reflect.Type) (any, error) {
	c.observe(cmd)
	if c.LookupResultsFn != nil {
		return c.LookupResultsFn(cmd, k, v), nil
	}
	return c.LookupResults, nil
}

func (c *Canned) GetRefSingle(cmd command.Command, t reflect.Type) (any, error) {
	c.observe(cmd)
	if c.RefSingleResult != nil {
		return c.RefSingleResult, nil
	}
	if c.SingleResultFn != nil || c.SingleResult != nil {
		return c.single(cmd, t), nil
	}
	return first(c.refList(cmd, t)), nil
}

func (c *Canned) GetRefList(cmd command.Command, t reflect.Type) (any, error) {
	c.observe(cmd)
	return c.refList(cmd, t), nil
}

func (c *Canned) list(cmd command.Command, t reflect.Type) any {
	if c.ResultsFn != nil {
		return c.ResultsFn(cmd, t)
	}
	return c.Results
}

func (c *Canned) refList(cmd command.Command, t reflect.Type) any {
	if c.RefResultsFn != nil {
		return c.RefResultsFn(cmd, t)
	}
	if c.RefResults != nil {
		return c.RefResults
	}
	return c.list(cmd, t)
}

func (c *Canned) column(cmd command.Command, t reflect.Type) any {
	if c.ColumnResultsFn != nil {
		return c.ColumnResultsFn(cmd, t)
	}
	return c.ColumnResults
}

func (c *Canned) single(cmd command.Command, t reflect.Type) any {
	if c.SingleResultFn != nil {
		return c.SingleResultFn(cmd, t)
	}
	if c.SingleResult != nil {
		return c.SingleResult
	}
	return first(c.list(cmd, t))
}

// first returns the first element of a slice or array, or nil.
func first(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil
		}
		return rv.Index(0).Interface()
	}
	return nil
}
