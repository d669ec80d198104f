// Package command provides the driver-agnostic command the execution pipeline runs.
package command

import (
	"context"

	"github.com/nnnkkk7/sqlexec/pkg/dialect"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// Rows is a forward-only row cursor. *sql.Rows satisfies it.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Parameters is the mutable ordered parameter collection of a command.
// *param.List satisfies it.
type Parameters interface {
	Clear()
	Add(p *param.Parameter) error
	All() []*param.Parameter
	Len() int
}

// Command is a SQL statement bound to a connection and a dialect.
// Commands are not safe for concurrent use.
type Command interface {
	// Text returns the statement text.
	Text() string

	// SetText replaces the statement text.
	SetText(sql string)

	// Parameters returns the bound parameter collection.
	Parameters() Parameters

	// CreateParameter returns a new parameter native to the command's driver.
	CreateParameter() *param.Parameter

	// Dialect returns the provider of the target database.
	Dialect() dialect.Provider

	// ExecNonQuery executes the statement and returns the number of affected rows.
	ExecNonQuery(ctx context.Context) (int64, error)

	// ExecScalar executes the statement and returns the first column of the first row,
	// or nil when there are no rows.
	ExecScalar(ctx context.Context) (any, error)

	// ExecReader executes the statement and returns its row cursor.
	ExecReader(ctx context.Context) (Rows, error)
}
