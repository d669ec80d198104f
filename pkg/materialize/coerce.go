package materialize

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/nnnkkk7/sqlexec/pkg/dialect"
)

// Coerce converts a value produced by a results filter into T.
//
// Values of type T pass through. nil yields the zero value, or an empty slice or map
// for collection types. Slices, arrays and maps are converted element by element,
// map[string]any rows are mapped onto structs and scalars go through ScalarConvert.
func Coerce[T any](v any, d dialect.Provider) (T, error) {
	if x, ok := v.(T); ok {
		return x, nil
	}
	out, err := CoerceTo(v, reflect.TypeFor[T](), d)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](out)
}

// CoerceTo is Coerce for a runtime type.
func CoerceTo(v any, t reflect.Type, d dialect.Provider) (any, error) {
	rv, err := coerceValue(v, t, d)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

// CoerceLookup converts filter output into a Lookup. It accepts a *Lookup[K, V] or a
// map of key to values; keys taken from a map are added in sorted order when they
// are strings or numbers and in map order otherwise.
func CoerceLookup[K comparable, V any](v any, d dialect.Provider) (*Lookup[K, V], error) {
	switch x := v.(type) {
	case nil:
		return NewLookup[K, V](), nil
	case *Lookup[K, V]:
		if x == nil {
			return NewLookup[K, V](), nil
		}
		return x, nil
	}

	groups, err := Coerce[map[K][]V](v, d)
	if err != nil {
		return nil, err
	}
	keys := make([]K, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sortKeys(keys)

	out := NewLookup[K, V]()
	for _, k := range keys {
		for _, value := range groups[k] {
			out.Add(k, value)
		}
	}
	return out, nil
}

func sortKeys[K comparable](keys []K) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := reflect.ValueOf(keys[i]), reflect.ValueOf(keys[j])
		switch a.Kind() {
		case reflect.String:
			return a.String() < b.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return a.Uint() < b.Uint()
		case reflect.Float32, reflect.Float64:
			return a.Float() < b.Float()
		}
		return false
	})
}

func coerceValue(v any, t reflect.Type, d dialect.Provider) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Slice:
			if t != bytesType {
				return reflect.MakeSlice(t, 0, 0), nil
			}
		case reflect.Map:
			return reflect.MakeMap(t), nil
		}
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}

	if IsScalar(t) {
		x, err := d.ScalarConvert(v, t)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t).Elem()
		if err := assign(out, x); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := coerceValue(v, t.Elem(), d)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil

	case reflect.Slice:
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			break
		}
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := coerceValue(rv.Index(i).Interface(), t.Elem(), d)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("materialize: element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case reflect.Map:
		return coerceMap(rv, t, d)

	case reflect.Struct:
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			break
		}
		cols := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			cols = append(cols, k.String())
		}
		sort.Strings(cols)
		row := make([]any, len(cols))
		for i, col := range cols {
			row[i] = rv.MapIndex(reflect.ValueOf(col).Convert(rv.Type().Key())).Interface()
		}
		dec, err := newDecoder(d, t, cols, false, nil)
		if err != nil {
			return reflect.Value{}, err
		}
		x, err := dec.decode(row)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(x), nil
	}

	return reflect.Value{}, fmt.Errorf("materialize: cannot coerce %T to %s: %w", v, t, dialect.ErrConversion)
}

func coerceMap(rv reflect.Value, t reflect.Type, d dialect.Provider) (reflect.Value, error) {
	out := reflect.MakeMap(t)
	set := t.Elem().Kind() == reflect.Struct && t.Elem().NumField() == 0

	switch {
	case rv.Kind() == reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			k, err := coerceValue(iter.Key().Interface(), t.Key(), d)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("materialize: key %v: %w", iter.Key(), err)
			}
			var ev reflect.Value
			if set {
				ev = reflect.Zero(t.Elem())
			} else if ev, err = coerceValue(iter.Value().Interface(), t.Elem(), d); err != nil {
				return reflect.Value{}, fmt.Errorf("materialize: key %v: %w", iter.Key(), err)
			}
			out.SetMapIndex(k, ev)
		}
		return out, nil

	case set && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array):
		for i := 0; i < rv.Len(); i++ {
			k, err := coerceValue(rv.Index(i).Interface(), t.Key(), d)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("materialize: element %d: %w", i, err)
			}
			out.SetMapIndex(k, reflect.Zero(t.Elem()))
		}
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("materialize: cannot coerce %s to %s: %w", rv.Type(), t, dialect.ErrConversion)
}
