// Package param provides typed statement parameters and the ordered collections commands bind them into.
package param

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DBType identifies the database type of a parameter value.
type DBType int

// Parameter database types.
const (
	DBTypeObject DBType = iota
	DBTypeString
	DBTypeBoolean
	DBTypeInt16
	DBTypeInt32
	DBTypeInt64
	DBTypeDecimal
	DBTypeDouble
	DBTypeSingle
	DBTypeDateTime
	DBTypeBinary
	DBTypeGUID
)

var dbTypeNames = map[DBType]string{
	DBTypeObject:   "OBJECT",
	DBTypeString:   "STRING",
	DBTypeBoolean:  "BOOLEAN",
	DBTypeInt16:    "INT16",
	DBTypeInt32:    "INT32",
	DBTypeInt64:    "INT64",
	DBTypeDecimal:  "DECIMAL",
	DBTypeDouble:   "DOUBLE",
	DBTypeSingle:   "SINGLE",
	DBTypeDateTime: "DATETIME",
	DBTypeBinary:   "BINARY",
	DBTypeGUID:     "GUID",
}

// String returns the upper-case name of the type.
func (t DBType) String() string {
	if name, ok := dbTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DBType(%d)", int(t))
}

var (
	// ErrAttached is returned by an exclusive List when the parameter already belongs to another list.
	ErrAttached = errors.New("parameter is attached to another command")

	// ErrNilParameter is returned when a nil parameter is added to a List.
	ErrNilParameter = errors.New("nil parameter")
)

// Parameter is a named, typed statement parameter.
//
// Precision, Scale and Size are optional metadata; zero means unset.
type Parameter struct {
	Name      string
	Type      DBType
	Value     any
	Precision uint8
	Scale     uint8
	Size      int

	owner *List
}

// New creates a parameter, inferring its type from the value.
func New(name string, value any) *Parameter {
	return &Parameter{Name: name, Type: InferDBType(value), Value: value}
}

// Attached reports whether the parameter currently belongs to a List.
func (p *Parameter) Attached() bool {
	return p.owner != nil
}

// String renders the parameter for diagnostics.
func (p *Parameter) String() string {
	return fmt.Sprintf("%s=%v(%s)", p.Name, p.Value, p.Type)
}

// InferDBType maps a Go value onto the closest DBType.
func InferDBType(value any) DBType {
	switch value.(type) {
	case string, *string:
		return DBTypeString
	case bool, *bool:
		return DBTypeBoolean
	case int8, int16, uint8, *int16:
		return DBTypeInt16
	case int32, uint16, *int32:
		return DBTypeInt32
	case int, int64, uint32, uint, uint64, *int, *int64:
		return DBTypeInt64
	case float32, *float32:
		return DBTypeSingle
	case float64, *float64:
		return DBTypeDouble
	case time.Time, *time.Time:
		return DBTypeDateTime
	case []byte:
		return DBTypeBinary
	case uuid.UUID, *uuid.UUID:
		return DBTypeGUID
	default:
		return DBTypeObject
	}
}
