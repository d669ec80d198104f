// Package dialect provides per-database type conversion and SQL text generation.
package dialect

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// Provider encapsulates the conversion and SQL generation rules of one database family.
// Implementations are immutable and safe for concurrent use.
type Provider interface {
	// Name returns the dialect name (e.g. "duckdb").
	Name() string

	// ScalarConvert converts a raw column value into t for single-column reads.
	ScalarConvert(raw any, t reflect.Type) (any, error)

	// FieldConvert converts a raw column value into t for row-to-field mapping.
	FieldConvert(raw any, t reflect.Type) (any, error)

	// ToSelectStatement renders a select description into SQL text and its parameters.
	ToSelectStatement(s Select) (string, []*param.Parameter)

	// Quote quotes an identifier.
	Quote(name string) string

	// Placeholder returns the placeholder for the n-th (1-based) parameter.
	Placeholder(n int, name string) string

	// BindArgs converts bound parameters into driver arguments.
	BindArgs(params []*param.Parameter) []any
}

// Condition is a single `column op value` predicate. An empty Op means "=".
type Condition struct {
	Column string
	Op     string
	Value  any
}

// Select describes a single-table SELECT statement.
type Select struct {
	Table   string
	Columns []string
	Where   []Condition
	OrderBy []string
	Limit   int
}

// Base implements Provider from a small set of per-dialect hooks.
type Base struct {
	name        string
	quote       func(string) string
	placeholder func(n int, name string) string
	named       bool
	firstN      bool
	fieldHook   func(raw any, t reflect.Type) (any, bool, error)
}

// Name returns the dialect name.
func (b *Base) Name() string { return b.name }

// Quote quotes an identifier.
func (b *Base) Quote(name string) string {
	if b.quote == nil {
		return name
	}
	return b.quote(name)
}

// Placeholder returns the placeholder for the n-th parameter.
func (b *Base) Placeholder(n int, name string) string {
	if b.placeholder == nil {
		return "?"
	}
	return b.placeholder(n, name)
}

// ScalarConvert converts raw into t.
func (b *Base) ScalarConvert(raw any, t reflect.Type) (any, error) {
	return convert(raw, t)
}

// FieldConvert converts raw into t, decoding JSON text into composite field types.
func (b *Base) FieldConvert(raw any, t reflect.Type) (any, error) {
	if b.fieldHook != nil {
		if v, ok, err := b.fieldHook(raw, t); ok || err != nil {
			return v, err
		}
	}
	if isComposite(t) {
		return decodeJSON(raw, t)
	}
	return convert(raw, t)
}

// BindArgs converts parameters into driver arguments. Dialects whose drivers accept
// named arguments receive sql.NamedArg values for named parameters.
func (b *Base) BindArgs(params []*param.Parameter) []any {
	args := make([]any, 0, len(params))
	for _, p := range params {
		name := strings.TrimLeft(p.Name, "@:$")
		if b.named && name != "" {
			args = append(args, sql.Named(name, p.Value))
			continue
		}
		args = append(args, p.Value)
	}
	return args
}

// ToSelectStatement renders s with quoted identifiers and dialect placeholders.
// Parameters are named p0, p1, ... in predicate order.
func (b *Base) ToSelectStatement(s Select) (string, []*param.Parameter) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.firstN && s.Limit > 0 {
		fmt.Fprintf(&sb, "FIRST %d ", s.Limit)
	}

	if len(s.Columns) == 0 {
		sb.WriteString("*")
	} else {
		cols := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			cols[i] = b.Quote(c)
		}
		sb.WriteString(strings.Join(cols, ", "))
	}

	sb.WriteString(" FROM ")
	sb.WriteString(b.Quote(s.Table))

	var params []*param.Parameter
	if len(s.Where) > 0 {
		preds := make([]string, len(s.Where))
		for i, c := range s.Where {
			op := c.Op
			if op == "" {
				op = "="
			}
			name := fmt.Sprintf("p%d", i)
			preds[i] = fmt.Sprintf("%s %s %s", b.Quote(c.Column), op, b.Placeholder(i+1, name))
			params = append(params, param.New(name, c.Value))
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(preds, " AND "))
	}

	if len(s.OrderBy) > 0 {
		cols := make([]string, len(s.OrderBy))
		for i, c := range s.OrderBy {
			cols[i] = b.Quote(c)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(cols, ", "))
	}

	if !b.firstN && s.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", s.Limit)
	}

	return sb.String(), params
}

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func backtick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
