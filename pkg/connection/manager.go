// Package connection provides the command factory over a *sql.DB.
package connection

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/dialect"
)

// Manager hands out commands bound to one database and dialect.
//
// Locking follows the database's needs:
//   - Query operations can be concurrent (reads)
//   - Exec operations are serialized using a mutex (writes)
//   - Transactions are also serialized to maintain consistency
type Manager struct {
	db        *sql.DB
	dialect   dialect.Provider
	exclusive bool
	writeMu   sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialect sets the dialect of created commands. The default is DuckDB.
func WithDialect(d dialect.Provider) Option {
	return func(m *Manager) {
		m.dialect = d
	}
}

// WithExclusiveParameters makes created commands refuse parameter instances that are
// attached to another command.
func WithExclusiveParameters() Option {
	return func(m *Manager) {
		m.exclusive = true
	}
}

// NewManager creates a new connection manager for the given database.
func NewManager(db *sql.DB, opts ...Option) *Manager {
	m := &Manager{db: db, dialect: dialect.DuckDB}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Query executes a read query (can be concurrent).
func (m *Manager) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return m.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (m *Manager) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return m.db.QueryRowContext(ctx, query, args...)
}

// Exec executes a write operation (serialized).
func (m *Manager) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.db.ExecContext(ctx, query, args...)
}

// NewCommand creates a command with the given text.
func (m *Manager) NewCommand(sql string) *command.SQL {
	return command.New(m, m.dialect, m.commandOptions(sql)...)
}

// Dialect returns the dialect of created commands.
func (m *Manager) Dialect() dialect.Provider {
	return m.dialect
}

// ExecTx runs fn in a transaction, serialized with other writes.
// If fn returns an error, the transaction is rolled back.
func (m *Manager) ExecTx(ctx context.Context, fn func(tx *Tx) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	sqlTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&Tx{tx: sqlTx, m: m}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return sqlTx.Commit()
}

// DB returns the underlying database connection.
func (m *Manager) DB() *sql.DB {
	return m.db
}

func (m *Manager) commandOptions(sql string) []command.Option {
	opts := []command.Option{command.WithText(sql)}
	if m.exclusive {
		opts = append(opts, command.WithExclusiveParameters())
	}
	return opts
}

// Tx is a transaction-scoped connection.
type Tx struct {
	tx *sql.Tx
	m  *Manager
}

// Query executes a query inside the transaction.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

// QueryRow executes a single-row query inside the transaction.
func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

// Exec executes a statement inside the transaction. The manager's write lock is
// already held by ExecTx.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

// NewCommand creates a command bound to the transaction.
func (t *Tx) NewCommand(sql string) *command.SQL {
	return command.New(t, t.m.dialect, t.m.commandOptions(sql)...)
}
