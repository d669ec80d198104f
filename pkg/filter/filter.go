// Package filter defines the Results Filter, an interceptor that stands in for the
// database driver and the row materializer.
//
// Type arguments travel as reflect.Type values. Whatever a capability returns is
// coerced by the pipeline into the Go type the caller asked for, so a filter may
// answer with loosely typed values such as []any or map[string]any rows.
package filter

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/nnnkkk7/sqlexec/pkg/command"
)

// ErrUnsupported is returned by Unsupported for every capability.
var ErrUnsupported = errors.New("results filter: capability not supported")

// ResultsFilter intercepts command execution. Each capability receives the live,
// fully bound command.
type ResultsFilter interface {
	// ExecuteSQL stands in for a non-query and returns the affected row count.
	ExecuteSQL(cmd command.Command) (int64, error)

	// GetScalar returns a single value of type t. t is nil for untyped scalars.
	GetScalar(cmd command.Command, t reflect.Type) (any, error)

	// GetLongScalar returns a 64-bit scalar.
	GetLongScalar(cmd command.Command) (int64, error)

	// GetSingle returns one value of type t.
	GetSingle(cmd command.Command, t reflect.Type) (any, error)

	// GetList returns a slice of t.
	GetList(cmd command.Command, t reflect.Type) (any, error)

	// GetColumn returns a slice of scalar t.
	GetColumn(cmd command.Command, t reflect.Type) (any, error)

	// GetColumnDistinct returns a set of t, as a slice or a map keyed by value.
	GetColumnDistinct(cmd command.Command, t reflect.Type) (any, error)

	// GetDictionary returns a map from k to v.
	GetDictionary(cmd command.Command, k, v reflect.Type) (any, error)

	// GetLookup returns a map from k to slices of v, or a materialize.Lookup.
	GetLookup(cmd command.Command, k, v reflect.Type) (any, error)

	// GetRefSingle is GetSingle for callers holding only a runtime type.
	GetRefSingle(cmd command.Command, t reflect.Type) (any, error)

	// GetRefList is GetList for callers holding only a runtime type.
	GetRefList(cmd command.Command, t reflect.Type) (any, error)
}

// Unsupported implements ResultsFilter by failing every capability. Embed it to
// implement only the capabilities a test needs.
type Unsupported struct{}

var _ ResultsFilter = Unsupported{}

func unsupported(capability string) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, capability)
}

func (Unsupported) ExecuteSQL(command.Command) (int64, error) {
	return 0, unsupported("ExecuteSQL")
}

func (Unsupported) GetScalar(command.Command, reflect.Type) (any, error) {
	return nil, unsupported("GetScalar")
}

func (Unsupported) GetLongScalar(command.Command) (int64, error) {
	return 0, unsupported("GetLongScalar")
}

func (Unsupported) GetSingle(command.Command, reflect.Type) (any, error) {
	return nil, unsupported("GetSingle")
}

func (Unsupported) GetList(command.Command, reflect.Type) (any, error) {
	return nil, unsupported("GetList")
}

func (Unsupported) GetColumn(command.Command, reflect.Type) (any, error) {
	return nil, unsupported("GetColumn")
}

func (Unsupported) GetColumnDistinct(command.Command, reflect.Type) (any, error) {
	return nil, unsupported("GetColumnDistinct")
}

func (Unsupported) GetDictionary(command.Command, reflect.Type, reflect.Type) (any, error) {
	return nil, unsupported("GetDictionary")
}

func (Unsupported) GetLookup(command.Command, reflect.Type, reflect.Type) (any, error) {
	return nil, unsupported("GetLookup")
}

func (Unsupported) GetRefSingle(command.Command, reflect.Type) (any, error) {
	return nil, unsupported("GetRefSingle")
}

func (Unsupported) GetRefList(command.Command, reflect.Type) (any, error) {
	return nil, unsupported("GetRefList")
}
