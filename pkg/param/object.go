package param

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

const tagName = "db"

var (
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// FromObject converts an anonymous parameter bag into ordered parameters.
//
// Structs (or pointers to structs) yield one parameter per exported field in declaration
// order, named by the `db` tag when present. Maps with string keys yield parameters in
// ascending key order. A nil bag yields no parameters.
func FromObject(v any) ([]*Parameter, error) {
	if v == nil {
		return nil, nil
	}

	if m, ok := v.(map[string]any); ok {
		return FromMap(m), nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return fromStruct(rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("param: map key must be a string, got %s", rv.Type().Key())
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return FromMap(m), nil
	default:
		return nil, fmt.Errorf("param: unsupported parameter bag %T", v)
	}
}

// FromMap converts a name/value map into parameters ordered by name.
func FromMap(m map[string]any) []*Parameter {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Parameter, 0, len(names))
	for _, name := range names {
		out = append(out, New(name, m[name]))
	}
	return out
}

func fromStruct(rv reflect.Value) ([]*Parameter, error) {
	values := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: tagName,
		Result:  &values,
	})
	if err != nil {
		return nil, fmt.Errorf("param: %w", err)
	}
	if err := dec.Decode(rv.Interface()); err != nil {
		return nil, fmt.Errorf("param: decode %s: %w", rv.Type(), err)
	}

	t := rv.Type()
	out := make([]*Parameter, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, ok := fieldName(f)
		if !ok {
			continue
		}
		if isLeaf(f.Type) {
			out = append(out, New(name, rv.Field(i).Interface()))
			continue
		}
		value, ok := values[name]
		if !ok {
			continue
		}
		out = append(out, New(name, value))
	}
	return out, nil
}

func fieldName(f reflect.StructField) (string, bool) {
	if !f.IsExported() || f.Anonymous {
		return "", false
	}
	tag := f.Tag.Get(tagName)
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return f.Name, true
}

// isLeaf reports whether values of t bind as they are instead of being decoded
// field by field: times, byte slices, arrays such as uuid.UUID, driver.Valuer and
// sql.Scanner implementations, and pointers to any of these.
func isLeaf(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType || t == bytesType || t.Kind() == reflect.Array {
		return true
	}
	return t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType) ||
		reflect.PointerTo(t).Implements(scannerType)
}
