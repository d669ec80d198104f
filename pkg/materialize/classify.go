// Package materialize converts row cursors and filter output into typed result shapes.
//
// Target types are classified as scalar or composite. Scalar targets read the first
// column of each row through the dialect's ScalarConvert; composite targets map every
// column onto a struct field, map entry or slice element through FieldConvert.
//
// Every function that accepts a command.Rows closes it before returning.
package materialize

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// IsScalar reports whether t is read from a single column.
//
// Booleans, numbers, strings, time.Time, []byte, arrays (uuid.UUID), interfaces and
// sql.Scanner implementations are scalar. Pointers classify as their element type.
func IsScalar(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType || t == bytesType {
		return true
	}
	if reflect.PointerTo(t).Implements(scannerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.Array, reflect.Interface:
		return true
	default:
		return false
	}
}

// Shape names a result shape.
type Shape int

// Result shapes.
const (
	ShapeScalar Shape = iota
	ShapeSingle
	ShapeList
	ShapeColumn
	ShapeDistinctColumn
	ShapeDictionary
	ShapeLookup
)

var shapeNames = []string{
	ShapeScalar:         "scalar",
	ShapeSingle:         "single",
	ShapeList:           "list",
	ShapeColumn:         "column",
	ShapeDistinctColumn: "distinct",
	ShapeDictionary:     "dictionary",
	ShapeLookup:         "lookup",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// ParseShape returns the shape with the given name.
func ParseShape(name string) (Shape, error) {
	for i, n := range shapeNames {
		if strings.EqualFold(n, name) {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("materialize: unknown shape %q", name)
}
