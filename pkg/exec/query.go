package exec

import (
	"context"
	"fmt"
	"reflect"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/dialect"
	"github.com/nnnkkk7/sqlexec/pkg/expr"
	"github.com/nnnkkk7/sqlexec/pkg/materialize"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// List returns one T per row. Scalar T reads the first column of every row; composite
// T maps every column onto its fields. The result is never nil.
func List[T any](ctx context.Context, e *Executor, cmd command.Command, sql string) ([]T, error) {
	t := reflect.TypeFor[T]()
	if f := e.prepare(cmd, sql); f != nil {
		var (
			v   any
			err error
		)
		if materialize.IsScalar(t) {
			v, err = f.GetColumn(cmd, t)
		} else {
			v, err = f.GetList(cmd, t)
		}
		if err != nil {
			return nil, err
		}
		return materialize.Coerce[[]T](v, cmd.Dialect())
	}

	rows, err := cmd.ExecReader(ctx)
	if err != nil {
		return nil, err
	}
	return materialize.List[T](rows, cmd.Dialect())
}

// ListExpr binds params, runs sql and maps each row onto T, restricted to fields
// when any are given.
func ListExpr[T any](ctx context.Context, e *Executor, cmd command.Command, sql string, params []*param.Parameter, fields ...string) ([]T, error) {
	if err := e.SetParameters(cmd, params); err != nil {
		return nil, err
	}
	if f := e.prepare(cmd, sql); f != nil {
		v, err := f.GetList(cmd, reflect.TypeFor[T]())
		if err != nil {
			return nil, err
		}
		return materialize.Coerce[[]T](v, cmd.Dialect())
	}

	rows, err := cmd.ExecReader(ctx)
	if err != nil {
		return nil, err
	}
	return materialize.List[T](rows, cmd.Dialect(), fields...)
}

// ListFrom is ListExpr for an expression, restricted to the fields it selects.
func ListFrom[T any](ctx context.Context, e *Executor, cmd command.Command, x expr.Expression) ([]T, error) {
	return ListExpr[T](ctx, e, cmd, x.ToSelectStatement(), x.Params(), expr.FieldsOf(x)...)
}

// Single returns the first row as a T, or the zero value when there are no rows.
func Single[T any](ctx context.Context, e *Executor, cmd command.Command, sql string) (T, error) {
	return SingleExpr[T](ctx, e, cmd, sql, nil)
}

// SingleExpr binds params, runs sql and maps the first row onto T, restricted to
// fields when any are given.
func SingleExpr[T any](ctx context.Context, e *Executor, cmd command.Command, sql string, params []*param.Parameter, fields ...string) (T, error) {
	var zero T
	if err := e.SetParameters(cmd, params); err != nil {
		return zero, err
	}
	if f := e.prepare(cmd, sql); f != nil {
		v, err := f.GetSingle(cmd, reflect.TypeFor[T]())
		if err != nil {
			return zero, err
		}
		return materialize.Coerce[T](v, cmd.Dialect())
	}

	rows, err := cmd.ExecReader(ctx)
	if err != nil {
		return zero, err
	}
	return materialize.Single[T](rows, cmd.Dialect(), fields...)
}

// SingleFrom is SingleExpr for an expression, restricted to the fields it selects.
func SingleFrom[T any](ctx context.Context, e *Executor, cmd command.Command, x expr.Expression) (T, error) {
	return SingleExpr[T](ctx, e, cmd, x.ToSelectStatement(), x.Params(), expr.FieldsOf(x)...)
}

// Scalar returns the first column of the first row as a T, or the zero value when
// there are no rows.
func Scalar[T any](ctx context.Context, e *Executor, cmd command.Command, sql string) (T, error) {
	var zero T
	if f := e.prepare(cmd, sql); f != nil {
		v, err := f.GetScalar(cmd, reflect.TypeFor[T]())
		if err != nil {
			return zero, err
		}
		return materialize.Coerce[T](v, cmd.Dialect())
	}

	rows, err := cmd.ExecReader(ctx)
	if err != nil {
		return zero, err
	}
	return materialize.Scalar[T](rows, cmd.Dialect())
}

// ScalarParams is Scalar with parameters.
func ScalarParams[T any](ctx context.Context, e *Executor, cmd command.Command, sql string, params []*param.Parameter) (T, error) {
	if err := e.SetParameters(cmd, params); err != nil {
		var zero T
		return zero, err
	}
	return Scalar[T](ctx, e, cmd, sql)
}

// Column returns the first column of every row as a T, whether or not T is scalar.
func Column[T any](ctx context.Context, e *Executor, cmd command.Command, sql string) ([]T, error) {
	if f := e.prepare(cmd, sql); f != nil {
		v, err := f.GetColumn(cmd, reflect.TypeFor[T]())
		if err != nil {
			return nil, err
		}
		return materialize.Coerce[[]T](v, cmd.Dialect())
	}

	rows, err := cmd.ExecReader(ctx)
	if err != nil {
		return nil, err
	}
	return materialize.Column[T](rows, cmd.Dialect())
}

// ColumnParams is Column with parameters.
func ColumnParams[T any](ctx context.Context, e *Executor, cmd command.Command, sql string, params []*param.Parameter) ([]T, error) {
	if err := e.SetParameters(cmd, params); err != nil {
		return nil, err
	}
	return Column[T](ctx, e, cmd, sql)
}

// ColumnDistinct returns the distinct values of the first column.
func ColumnDistinct[T comparable](ctx context.Context, e *Executor, cmd command.Command, sql string) (map[T]struct{}, error) {
	if f := e.prepare(cmd, sql); f != nil {
		v, err := f.GetColumnDistinct(cmd, reflect.TypeFor[T]())
		if err != nil {
			return nil, err
		}
		return materialize.Coerce[map[T]struct{}](v, cmd.Dialect())
	}

	rows, err := cmd.ExecReader(ctx)
	if err != nil {
		return nil, err
	}
	return materialize.ColumnDistinct[T](rows, cmd.Dialect())
}

// ColumnDistinctExpr is ColumnDistinct for an expression.
func ColumnDistinctExpr[T comparable](ctx context.Context, e *Executor, cmd command.Command, x expr.Expression) (map[T]struct{}, error) {
	if err := e.SetParameters(cmd, x.Params()); err != nil {
		return nil, err
	}
	return ColumnDistinct[T](ctx, e, cmd, x.ToSelectStatement())
}

// Dictionary maps the first column to the second, the later row winning on
// duplicate keys.
func Dictionary[K comparable, V any](ctx context.Context, e *Executor, cmd command.Command, sql string) (map[K]V, error) {
	if f := e.prepare(cmd, sql); f != nil {
		v, err := f.GetDictionary(cmd, reflect.TypeFor[K](), reflect.TypeFor[V]())
		if err != nil {
			return nil, err
		}
		return materialize.Coerce[map[K]V](v, cmd.Dialect())
	}

	rows, err := cmd.ExecReader(ctx)
	if err != nil {
		return nil, err
	}
	return materialize.Dictionary[K, V](rows, cmd.Dialect())
}

// DictionaryExpr is Dictionary for an expression.
func DictionaryExpr[K comparable, V any](ctx context.Context, e *Executor, cmd command.Command, x expr.Expression) (map[K]V, error) {
	if err := e.SetParameters(cmd, x.Params()); err != nil {
		return nil, err
	}
	return Dictionary[K, V](ctx, e, cmd, x.ToSelectStatement())
}

// Lookup groups the second column by the first, keeping first-seen key order and
// row order within each key.
func Lookup[K comparable, V any](ctx context.Context, e *Executor, cmd command.Command, sql string) (*materialize.Lookup[K, V], error) {
	if f := e.prepare(cmd, sql); f != nil {
		v, err := f.GetLookup(cmd, reflect.TypeFor[K](), reflect.TypeFor[V]())
		if err != nil {
			return nil, err
		}
		return materialize.CoerceLookup[K, V](v, cmd.Dialect())
	}

	rows, err := cmd.ExecReader(ctx)
	if err != nil {
		return nil, err
	}
	return materialize.ToLookup[K, V](rows, cmd.Dialect())
}

// LookupParams is Lookup with parameters.
func LookupParams[K comparable, V any](ctx context.Context, e *Executor, cmd command.Command, sql string, params []*param.Parameter) (*materialize.Lookup[K, V], error) {
	if err := e.SetParameters(cmd, params); err != nil {
		return nil, err
	}
	return Lookup[K, V](ctx, e, cmd, sql)
}

func convErr(v any, t reflect.Type, err error) error {
	return fmt.Errorf("exec: %T to %s: %w: %v", v, t, dialect.ErrConversion, err)
}
