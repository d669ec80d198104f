package exec

import (
	"context"
	"reflect"

	"github.com/spf13/cast"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/expr"
	"github.com/nnnkkk7/sqlexec/pkg/materialize"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// ExecNonQuery binds args as new parameters, runs sql and returns the affected row
// count. args is a struct, pointer to struct or string-keyed map; nil leaves the
// command's parameters untouched.
func (e *Executor) ExecNonQuery(ctx context.Context, cmd command.Command, sql string, args any) (int64, error) {
	if args != nil {
		params, err := param.FromObject(args)
		if err != nil {
			return 0, err
		}
		if err := bindFresh(cmd, params); err != nil {
			return 0, err
		}
	}
	return e.execNonQuery(ctx, cmd, sql)
}

// ExecNonQueryDict is ExecNonQuery with an explicit name/value map.
func (e *Executor) ExecNonQueryDict(ctx context.Context, cmd command.Command, sql string, dict map[string]any) (int64, error) {
	if err := e.SetParameterDict(cmd, dict); err != nil {
		return 0, err
	}
	return e.execNonQuery(ctx, cmd, sql)
}

// ExecNonQueryFunc calls fn on cmd before setting sql, then runs it.
func (e *Executor) ExecNonQueryFunc(ctx context.Context, cmd command.Command, sql string, fn func(command.Command)) (int64, error) {
	if fn != nil {
		fn(cmd)
	}
	return e.execNonQuery(ctx, cmd, sql)
}

// ExecCommand runs cmd as it is.
func (e *Executor) ExecCommand(ctx context.Context, cmd command.Command) (int64, error) {
	return e.execNonQuery(ctx, cmd, "")
}

func (e *Executor) execNonQuery(ctx context.Context, cmd command.Command, sql string) (int64, error) {
	if f := e.prepare(cmd, sql); f != nil {
		return f.ExecuteSQL(cmd)
	}
	return cmd.ExecNonQuery(ctx)
}

// ScalarValue returns the first column of the first row as the driver reports it.
func (e *Executor) ScalarValue(ctx context.Context, cmd command.Command, sql string) (any, error) {
	if f := e.prepare(cmd, sql); f != nil {
		return f.GetScalar(cmd, nil)
	}
	return cmd.ExecScalar(ctx)
}

// ScalarExpr is ScalarValue for an expression.
func (e *Executor) ScalarExpr(ctx context.Context, cmd command.Command, x expr.Expression) (any, error) {
	if err := e.SetParameters(cmd, x.Params()); err != nil {
		return nil, err
	}
	return e.ScalarValue(ctx, cmd, x.ToSelectStatement())
}

// LongScalar returns the first column of the first row as an int64, or 0 when
// there are no rows.
func (e *Executor) LongScalar(ctx context.Context, cmd command.Command, sql string) (int64, error) {
	if f := e.prepare(cmd, sql); f != nil {
		return f.GetLongScalar(cmd)
	}
	v, err := cmd.ExecScalar(ctx)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, convErr(v, reflect.TypeOf(int64(0)), err)
	}
	return n, nil
}

// RefList returns a []t, as any, with one element per row.
func (e *Executor) RefList(ctx context.Context, cmd command.Command, t reflect.Type, sql string) (any, error) {
	if f := e.prepare(cmd, sql); f != nil {
		v, err := f.GetRefList(cmd, t)
		if err != nil {
			return nil, err
		}
		return materialize.CoerceTo(v, reflect.SliceOf(t), cmd.Dialect())
	}
	rows, err := cmd.ExecReader(ctx)
	if err != nil {
		return nil, err
	}
	return materialize.ListOf(rows, cmd.Dialect(), t)
}

// RefSingle returns the first row as a t, as any, or the zero t when there are no rows.
func (e *Executor) RefSingle(ctx context.Context, cmd command.Command, t reflect.Type, sql string) (any, error) {
	if f := e.prepare(cmd, sql); f != nil {
		v, err := f.GetRefSingle(cmd, t)
		if err != nil {
			return nil, err
		}
		return materialize.CoerceTo(v, t, cmd.Dialect())
	}
	rows, err := cmd.ExecReader(ctx)
	if err != nil {
		return nil, err
	}
	return materialize.SingleOf(rows, cmd.Dialect(), t)
}
