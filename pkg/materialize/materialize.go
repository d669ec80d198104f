package materialize

import (
	"fmt"
	"reflect"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/dialect"
)

// List returns one T per row in cursor order. The result is never nil.
// When only is non-empty, composite mapping is restricted to the named fields.
func List[T any](rows command.Rows, d dialect.Provider, only ...string) ([]T, error) {
	t := reflect.TypeFor[T]()
	out := []T{}
	err := scanDecoded(rows, d, t, IsScalar(t), 0, only, func(v any) error {
		x, err := as[T](v)
		if err != nil {
			return err
		}
		out = append(out, x)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListOf is List for a runtime type. It returns a []t as any.
func ListOf(rows command.Rows, d dialect.Provider, t reflect.Type, only ...string) (any, error) {
	out := reflect.MakeSlice(reflect.SliceOf(t), 0, 0)
	err := scanDecoded(rows, d, t, IsScalar(t), 0, only, func(v any) error {
		ev := reflect.New(t).Elem()
		if err := assign(ev, v); err != nil {
			return err
		}
		out = reflect.Append(out, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// Single returns the first row as a T, or the zero value when there are no rows.
func Single[T any](rows command.Rows, d dialect.Provider, only ...string) (T, error) {
	var out T
	t := reflect.TypeFor[T]()
	err := scanDecoded(rows, d, t, IsScalar(t), 1, only, func(v any) error {
		var err error
		out, err = as[T](v)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// SingleOf is Single for a runtime type.
func SingleOf(rows command.Rows, d dialect.Provider, t reflect.Type, only ...string) (any, error) {
	out := reflect.New(t).Elem()
	err := scanDecoded(rows, d, t, IsScalar(t), 1, only, func(v any) error {
		return assign(out, v)
	})
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// Column returns the first column of every row as a T, regardless of whether T is scalar.
func Column[T any](rows command.Rows, d dialect.Provider) ([]T, error) {
	out := []T{}
	err := scanDecoded(rows, d, reflect.TypeFor[T](), true, 0, nil, func(v any) error {
		x, err := as[T](v)
		if err != nil {
			return err
		}
		out = append(out, x)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ColumnDistinct returns the distinct values of the first column.
func ColumnDistinct[T comparable](rows command.Rows, d dialect.Provider) (map[T]struct{}, error) {
	out := map[T]struct{}{}
	err := scanDecoded(rows, d, reflect.TypeFor[T](), true, 0, nil, func(v any) error {
		x, err := as[T](v)
		if err != nil {
			return err
		}
		out[x] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Scalar returns the first column of the first row, or the zero value when there are no rows.
func Scalar[T any](rows command.Rows, d dialect.Provider) (T, error) {
	var out T
	err := scanDecoded(rows, d, reflect.TypeFor[T](), true, 1, nil, func(v any) error {
		var err error
		out, err = as[T](v)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Dictionary maps the first column to the second. A later row overwrites an earlier
// row with the same key.
func Dictionary[K comparable, V any](rows command.Rows, d dialect.Provider) (map[K]V, error) {
	out := map[K]V{}
	err := scanPairs[K, V](rows, d, func(k K, v V) {
		out[k] = v
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToLookup groups the second column by the first.
func ToLookup[K comparable, V any](rows command.Rows, d dialect.Provider) (*Lookup[K, V], error) {
	out := NewLookup[K, V]()
	if err := scanPairs[K, V](rows, d, out.Add); err != nil {
		return nil, err
	}
	return out, nil
}

func scanPairs[K comparable, V any](rows command.Rows, d dialect.Provider, fn func(K, V)) error {
	kt, vt := reflect.TypeFor[K](), reflect.TypeFor[V]()
	checked := false
	return scan(rows, 0, func(cols []string, row []any) error {
		if !checked {
			if len(cols) < 2 {
				return fmt.Errorf("%w: got %d", ErrColumnCount, len(cols))
			}
			checked = true
		}
		rk, err := d.ScalarConvert(row[0], kt)
		if err != nil {
			return fmt.Errorf("materialize: column %q: %w", cols[0], err)
		}
		rv, err := d.ScalarConvert(row[1], vt)
		if err != nil {
			return fmt.Errorf("materialize: column %q: %w", cols[1], err)
		}
		k, err := as[K](rk)
		if err != nil {
			return err
		}
		v, err := as[V](rv)
		if err != nil {
			return err
		}
		fn(k, v)
		return nil
	})
}

// as converts a decoded value into T.
func as[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	if x, ok := v.(T); ok {
		return x, nil
	}
	out := reflect.New(reflect.TypeFor[T]()).Elem()
	if err := assign(out, v); err != nil {
		return zero, err
	}
	return out.Interface().(T), nil
}
