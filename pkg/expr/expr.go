// Package expr provides SQL expressions: a dialect-rendered SELECT builder and
// parsed raw SELECT statements.
package expr

import (
	"github.com/nnnkkk7/sqlexec/pkg/dialect"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// Expression is a SELECT statement with its parameters.
type Expression interface {
	ToSelectStatement() string
	Params() []*param.Parameter
}

// FieldLister is implemented by expressions that select a known subset of fields.
type FieldLister interface {
	Fields() []string
}

// FieldsOf returns the selected fields of e, or nil when e selects every column.
func FieldsOf(e Expression) []string {
	if fl, ok := e.(FieldLister); ok {
		return fl.Fields()
	}
	return nil
}

// Builder builds a single-table SELECT rendered by a dialect provider.
//
// The statement and its parameters are rendered once and cached until the builder
// is modified, so repeated calls to Params return the same parameter instances.
type Builder struct {
	d   dialect.Provider
	sel dialect.Select

	rendered bool
	sql      string
	params   []*param.Parameter
}

// From starts a SELECT over table.
func From(d dialect.Provider, table string) *Builder {
	return &Builder{d: d, sel: dialect.Select{Table: table}}
}

// Select sets the selected columns. No columns selects *.
func (b *Builder) Select(cols ...string) *Builder {
	b.sel.Columns = append(b.sel.Columns, cols...)
	b.rendered = false
	return b
}

// Where adds a `col op ?` predicate. Predicates are joined with AND.
func (b *Builder) Where(col, op string, value any) *Builder {
	b.sel.Where = append(b.sel.Where, dialect.Condition{Column: col, Op: op, Value: value})
	b.rendered = false
	return b
}

// OrderBy appends ORDER BY columns.
func (b *Builder) OrderBy(cols ...string) *Builder {
	b.sel.OrderBy = append(b.sel.OrderBy, cols...)
	b.rendered = false
	return b
}

// Limit caps the number of rows.
func (b *Builder) Limit(n int) *Builder {
	b.sel.Limit = n
	b.rendered = false
	return b
}

// ToSelectStatement returns the rendered SQL text.
func (b *Builder) ToSelectStatement() string {
	b.render()
	return b.sql
}

// Params returns the predicate parameters in predicate order.
func (b *Builder) Params() []*param.Parameter {
	b.render()
	return b.params
}

// Fields returns the selected columns.
func (b *Builder) Fields() []string {
	if len(b.sel.Columns) == 0 {
		return nil
	}
	return append([]string(nil), b.sel.Columns...)
}

func (b *Builder) render() {
	if b.rendered {
		return
	}
	b.sql, b.params = b.d.ToSelectStatement(b.sel)
	b.rendered = true
}
