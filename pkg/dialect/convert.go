package dialect

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// ErrConversion is wrapped by every value conversion failure.
var ErrConversion = errors.New("conversion failed")

var (
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
	uuidType    = reflect.TypeOf(uuid.UUID{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// convert turns a raw driver value into a value of type t.
// A nil raw value yields the zero value of t.
func convert(raw any, t reflect.Type) (any, error) {
	if t == nil {
		return raw, nil
	}
	if raw == nil {
		return reflect.Zero(t).Interface(), nil
	}

	rt := reflect.TypeOf(raw)
	if rt.AssignableTo(t) {
		if b, ok := raw.([]byte); ok && t == bytesType {
			// drivers may reuse the scan buffer
			return append([]byte(nil), b...), nil
		}
		return raw, nil
	}

	if t.Kind() == reflect.Pointer {
		v, err := convert(raw, t.Elem())
		if err != nil {
			return nil, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(reflect.ValueOf(v))
		return ptr.Interface(), nil
	}

	if t == uuidType {
		return toUUID(raw)
	}

	if reflect.PointerTo(t).Implements(scannerType) {
		ptr := reflect.New(t)
		if err := ptr.Interface().(sql.Scanner).Scan(raw); err != nil {
			return nil, fmt.Errorf("%w: scan %T into %s: %v", ErrConversion, raw, t, err)
		}
		return ptr.Elem().Interface(), nil
	}

	if b, ok := raw.([]byte); ok && t != bytesType {
		raw = string(b)
	}

	v, err := convertKind(raw, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %T to %s: %v", ErrConversion, raw, t, err)
	}
	return v, nil
}

func convertKind(raw any, t reflect.Type) (any, error) {
	if t == timeType {
		return cast.ToTimeE(raw)
	}
	if t == bytesType {
		if s, ok := raw.(string); ok {
			return []byte(s), nil
		}
	}

	switch t.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(s).Convert(t).Interface(), nil
	case reflect.Bool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(b).Convert(t).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(raw)
		if err != nil {
			return nil, err
		}
		v := reflect.New(t).Elem()
		if v.OverflowInt(n) {
			return nil, fmt.Errorf("%d overflows %s", n, t)
		}
		v.SetInt(n)
		return v.Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toUint64(raw)
		if err != nil {
			return nil, err
		}
		v := reflect.New(t).Elem()
		if v.OverflowUint(n) {
			return nil, fmt.Errorf("%d overflows %s", n, t)
		}
		v.SetUint(n)
		return v.Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(f).Convert(t).Interface(), nil
	case reflect.Interface:
		if reflect.TypeOf(raw).Implements(t) {
			return raw, nil
		}
	}

	rv := reflect.ValueOf(raw)
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t).Interface(), nil
	}
	return nil, errors.New("unsupported conversion")
}

func toUUID(raw any) (any, error) {
	var (
		id  uuid.UUID
		err error
	)
	switch v := raw.(type) {
	case string:
		id, err = uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			id, err = uuid.FromBytes(v)
		} else {
			id, err = uuid.ParseBytes(v)
		}
	case [16]byte:
		id = uuid.UUID(v)
	default:
		err = errors.New("unsupported source type")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %T to uuid.UUID: %v", ErrConversion, raw, err)
	}
	return id, nil
}

// isComposite reports whether t is a structured field type stored as JSON text.
func isComposite(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType || t == bytesType || reflect.PointerTo(t).Implements(scannerType) {
		return false
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}

func decodeJSON(raw any, t reflect.Type) (any, error) {
	if raw == nil {
		return reflect.Zero(t).Interface(), nil
	}
	if reflect.TypeOf(raw).AssignableTo(t) {
		return raw, nil
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return convert(raw, t)
	}

	ptr := reflect.New(t)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("%w: decode json into %s: %v", ErrConversion, t, err)
	}
	return ptr.Elem().Interface(), nil
}

// numericText returns raw as trimmed text when the driver reported it as a string
// or []byte.
func numericText(raw any) (string, bool) {
	switch x := raw.(type) {
	case string:
		return strings.TrimSpace(x), true
	case []byte:
		return strings.TrimSpace(string(x)), true
	}
	return "", false
}

// toInt64 reads text as base 10 so "010" is ten, not an octal literal.
func toInt64(raw any) (int64, error) {
	if s, ok := numericText(raw); ok {
		return strconv.ParseInt(s, 10, 64)
	}
	return cast.ToInt64E(raw)
}

func toUint64(raw any) (uint64, error) {
	if s, ok := numericText(raw); ok {
		return strconv.ParseUint(s, 10, 64)
	}
	return cast.ToUint64E(raw)
}
