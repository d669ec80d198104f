package materialize

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/dialect"
)

var (
	// ErrNoColumns is returned when a scalar is read from a result without columns.
	ErrNoColumns = errors.New("materialize: result has no columns")

	// ErrColumnCount is returned when a keyed shape is read from fewer than two columns.
	ErrColumnCount = errors.New("materialize: result needs at least two columns")
)

// decoder turns one raw row into a value of its target type.
type decoder struct {
	d      dialect.Provider
	t      reflect.Type
	scalar bool
	cols   []string

	// struct targets: field index per column, nil when the column is not mapped
	fields [][]int
}

func newDecoder(d dialect.Provider, t reflect.Type, cols []string, scalar bool, only []string) (*decoder, error) {
	dec := &decoder{d: d, t: t, scalar: scalar, cols: cols}
	if scalar {
		if len(cols) == 0 {
			return nil, ErrNoColumns
		}
		return dec, nil
	}

	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	switch {
	case base.Kind() == reflect.Struct:
		dec.fields = planStruct(base, cols, only)
	case base.Kind() == reflect.Map && base.Key().Kind() == reflect.String:
	case base.Kind() == reflect.Slice && base.Elem().Kind() == reflect.Interface:
	default:
		return nil, fmt.Errorf("materialize: unsupported composite type %s", t)
	}
	return dec, nil
}

func (dec *decoder) decode(row []any) (any, error) {
	if dec.scalar {
		v, err := dec.d.ScalarConvert(row[0], dec.t)
		if err != nil {
			return nil, fmt.Errorf("materialize: column %q: %w", dec.cols[0], err)
		}
		return v, nil
	}

	depth := 0
	base := dec.t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
		depth++
	}

	target := reflect.New(base).Elem()
	var err error
	switch base.Kind() {
	case reflect.Struct:
		err = dec.fillStruct(target, row)
	case reflect.Map:
		err = dec.fillMap(target, row)
	case reflect.Slice:
		values := make([]any, len(row))
		copy(values, row)
		target.Set(reflect.ValueOf(values).Convert(base))
	}
	if err != nil {
		return nil, err
	}

	for ; depth > 0; depth-- {
		ptr := reflect.New(target.Type())
		ptr.Elem().Set(target)
		target = ptr
	}
	return target.Interface(), nil
}

func (dec *decoder) fillStruct(target reflect.Value, row []any) error {
	for i, index := range dec.fields {
		if index == nil {
			continue
		}
		field := fieldByIndexAlloc(target, index)
		v, err := dec.d.FieldConvert(row[i], field.Type())
		if err != nil {
			return fmt.Errorf("materialize: column %q: %w", dec.cols[i], err)
		}
		if err := assign(field, v); err != nil {
			return fmt.Errorf("materialize: column %q: %w", dec.cols[i], err)
		}
	}
	return nil
}

func (dec *decoder) fillMap(target reflect.Value, row []any) error {
	target.Set(reflect.MakeMapWithSize(target.Type(), len(row)))
	elem := target.Type().Elem()
	for i, col := range dec.cols {
		v, err := dec.d.FieldConvert(row[i], elem)
		if err != nil {
			return fmt.Errorf("materialize: column %q: %w", col, err)
		}
		ev := reflect.New(elem).Elem()
		if err := assign(ev, v); err != nil {
			return fmt.Errorf("materialize: column %q: %w", col, err)
		}
		target.SetMapIndex(reflect.ValueOf(col).Convert(target.Type().Key()), ev)
	}
	return nil
}

// planStruct resolves each column to a field of t. Columns match the db tag first,
// then the field name, then its snake_case form, all case-insensitively.
func planStruct(t reflect.Type, cols []string, only []string) [][]int {
	byName := map[string]reflect.StructField{}
	fields := reflect.VisibleFields(t)
	for pass := 0; pass < 3; pass++ {
		for _, f := range fields {
			keys, ok := fieldKeys(f)
			if !ok {
				continue
			}
			key := keys[pass]
			if key == "" {
				continue
			}
			if _, taken := byName[key]; !taken {
				byName[key] = f
			}
		}
	}

	var allowed map[string]bool
	if len(only) > 0 {
		allowed = make(map[string]bool, len(only))
		for _, name := range only {
			allowed[strings.ToLower(name)] = true
		}
	}

	plan := make([][]int, len(cols))
	for i, col := range cols {
		f, ok := byName[strings.ToLower(col)]
		if !ok {
			continue
		}
		if allowed != nil && !subsetAllows(allowed, f) {
			continue
		}
		plan[i] = f.Index
	}
	return plan
}

// fieldKeys returns the lower-cased db tag, field name and snake_case name of f.
// ok is false for fields that never map to a column.
func fieldKeys(f reflect.StructField) (keys [3]string, ok bool) {
	if !f.IsExported() || f.Anonymous {
		return keys, false
	}
	tag := strings.Split(f.Tag.Get("db"), ",")[0]
	if tag == "-" {
		return keys, false
	}
	keys[0] = strings.ToLower(tag)
	keys[1] = strings.ToLower(f.Name)
	keys[2] = strings.ToLower(snakeCase(f.Name))
	return keys, true
}

// subsetAllows reports whether f is named by the field subset under any of its keys.
func subsetAllows(allowed map[string]bool, f reflect.StructField) bool {
	keys, _ := fieldKeys(f)
	for _, k := range keys {
		if k != "" && allowed[k] {
			return true
		}
	}
	return false
}

// fieldByIndexAlloc is reflect.Value.FieldByIndex that allocates nil embedded pointers.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case rv.Type().ConvertibleTo(dst.Type()):
		dst.Set(rv.Convert(dst.Type()))
	default:
		return fmt.Errorf("%w: cannot assign %s to %s", dialect.ErrConversion, rv.Type(), dst.Type())
	}
	return nil
}

func snakeCase(name string) string {
	var sb strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// scan reads rows in cursor order, passing each raw row to fn. It stops after limit
// rows when limit is positive. rows is closed before scan returns; a close error is
// reported only when nothing else failed.
func scan(rows command.Rows, limit int, fn func(cols []string, row []any) error) (err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	n := 0
	for rows.Next() {
		row := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		if err := fn(cols, row); err != nil {
			return err
		}
		n++
		if limit > 0 && n >= limit {
			return nil
		}
	}
	return rows.Err()
}

// scanDecoded is scan with a decoder built from the result columns.
func scanDecoded(rows command.Rows, d dialect.Provider, t reflect.Type, scalar bool, limit int, only []string, fn func(v any) error) error {
	var dec *decoder
	return scan(rows, limit, func(cols []string, row []any) error {
		if dec == nil {
			var err error
			if dec, err = newDecoder(d, t, cols, scalar, only); err != nil {
				return err
			}
		}
		v, err := dec.decode(row)
		if err != nil {
			return err
		}
		return fn(v)
	})
}
