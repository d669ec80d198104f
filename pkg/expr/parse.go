package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blastrain/vitess-sqlparser/sqlparser"

	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// ErrNotSelect is returned by Parse for statements other than SELECT.
var ErrNotSelect = errors.New("expr: not a SELECT statement")

// Parsed is a raw SELECT statement whose select list has been analysed.
type Parsed struct {
	sql    string
	params []*param.Parameter
	fields []string
}

// Parse validates sql as a SELECT statement and extracts the names of its select
// list: the alias when present, otherwise the column name. A star in the select list
// means every column is selected and Fields returns nil. The statement text is kept
// verbatim, with ? or :name placeholders bound to params in order.
func Parse(sql string, params ...*param.Parameter) (*Parsed, error) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return nil, fmt.Errorf("expr: empty SQL statement")
	}

	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("expr: parse: %w", err)
	}

	sel := leftmostSelect(stmt)
	if sel == nil {
		return nil, ErrNotSelect
	}

	return &Parsed{sql: sql, params: params, fields: selectFields(sel.SelectExprs)}, nil
}

func leftmostSelect(stmt sqlparser.Statement) *sqlparser.Select {
	switch s := stmt.(type) {
	case *sqlparser.Select:
		return s
	case *sqlparser.Union:
		return leftmostSelect(s.Left)
	case *sqlparser.ParenSelect:
		return leftmostSelect(s.Select)
	}
	return nil
}

func selectFields(exprs sqlparser.SelectExprs) []string {
	var fields []string
	for _, e := range exprs {
		switch e := e.(type) {
		case *sqlparser.StarExpr:
			return nil
		case *sqlparser.AliasedExpr:
			if !e.As.IsEmpty() {
				fields = append(fields, e.As.String())
				continue
			}
			if col, ok := e.Expr.(*sqlparser.ColName); ok {
				fields = append(fields, col.Name.String())
			}
		}
	}
	return fields
}

// ToSelectStatement returns the statement text.
func (p *Parsed) ToSelectStatement() string { return p.sql }

// Params returns the bound parameters.
func (p *Parsed) Params() []*param.Parameter { return p.params }

// Fields returns the select-list names, or nil when every column is selected.
func (p *Parsed) Fields() []string {
	if p.fields == nil {
		return nil
	}
	return append([]string(nil), p.fields...)
}
