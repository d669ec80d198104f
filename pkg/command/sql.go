package command

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nnnkkk7/sqlexec/pkg/dialect"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// Conn is the connection a SQL command runs against.
// connection.Manager implements it for *sql.DB and transactions.
type Conn interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQL is a Command backed by database/sql.
type SQL struct {
	conn    Conn
	dialect dialect.Provider
	text    string
	params  *param.List
}

// Option configures a SQL command.
type Option func(*SQL)

// WithExclusiveParameters makes the command refuse parameters attached to another command.
func WithExclusiveParameters() Option {
	return func(c *SQL) {
		c.params = param.NewList(true)
	}
}

// WithText sets the initial statement text.
func WithText(sql string) Option {
	return func(c *SQL) {
		c.text = sql
	}
}

// New creates a command for conn using the given dialect.
func New(conn Conn, d dialect.Provider, opts ...Option) *SQL {
	c := &SQL{
		conn:    conn,
		dialect: d,
		params:  param.NewList(false),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Text returns the statement text.
func (c *SQL) Text() string { return c.text }

// SetText replaces the statement text.
func (c *SQL) SetText(sql string) { c.text = sql }

// Parameters returns the bound parameters.
func (c *SQL) Parameters() Parameters { return c.params }

// CreateParameter returns a new, unattached parameter.
func (c *SQL) CreateParameter() *param.Parameter { return &param.Parameter{} }

// Dialect returns the dialect provider.
func (c *SQL) Dialect() dialect.Provider { return c.dialect }

// ExecNonQuery executes the statement and returns the number of affected rows.
func (c *SQL) ExecNonQuery(ctx context.Context) (int64, error) {
	result, err := c.conn.Exec(ctx, c.text, c.args()...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ExecScalar returns the first column of the first row, or nil when there are no rows.
func (c *SQL) ExecScalar(ctx context.Context) (any, error) {
	rows, err := c.conn.Query(ctx, c.text, c.args()...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err()
	}

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errors.New("command: scalar query returned no columns")
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values[0], nil
}

// ExecReader executes the statement and returns its row cursor.
func (c *SQL) ExecReader(ctx context.Context) (Rows, error) {
	rows, err := c.conn.Query(ctx, c.text, c.args()...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *SQL) args() []any {
	return c.dialect.BindArgs(c.params.All())
}
