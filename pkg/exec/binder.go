package exec

import (
	"errors"
	"fmt"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

const reuseFallbackMsg = "reusing parameters failed, binding cloned parameters instead"

// SetParameters replaces the parameters of cmd with params. A nil slice leaves cmd
// untouched.
//
// The parameters are attached directly first. If the collection refuses any of them,
// as exclusive collections do for parameters attached to another command, the
// collection is cleared and a clone of every parameter is attached instead.
func (e *Executor) SetParameters(cmd command.Command, params []*param.Parameter) error {
	if params == nil {
		return nil
	}

	coll := cmd.Parameters()
	coll.Clear()

	var addErr error
	for _, p := range params {
		if addErr = coll.Add(p); addErr != nil {
			break
		}
	}
	if addErr == nil {
		return nil
	}

	if log := e.Logger(); log.DebugEnabled() {
		log.Debug(reuseFallbackMsg, addErr)
	}

	coll.Clear()
	if err := addClones(cmd, params); err != nil {
		return errors.Join(addErr, err)
	}
	return nil
}

// SetParameterDict replaces the parameters of cmd with one new parameter per entry
// of dict, in ascending name order. A nil map leaves cmd untouched.
func (e *Executor) SetParameterDict(cmd command.Command, dict map[string]any) error {
	if dict == nil {
		return nil
	}
	return bindFresh(cmd, param.FromMap(dict))
}

// PopulateWith copies from onto to and returns to. Name, type and value are always
// copied; precision, scale and size only when set.
func PopulateWith(to, from *param.Parameter) *param.Parameter {
	to.Name = from.Name
	to.Type = from.Type
	to.Value = from.Value

	if from.Precision != 0 {
		to.Precision = from.Precision
	}
	if from.Scale != 0 {
		to.Scale = from.Scale
	}
	if from.Size != 0 {
		to.Size = from.Size
	}
	return to
}

// bindFresh clears cmd's parameters and attaches clones of params.
func bindFresh(cmd command.Command, params []*param.Parameter) error {
	cmd.Parameters().Clear()
	return addClones(cmd, params)
}

func addClones(cmd command.Command, params []*param.Parameter) error {
	coll := cmd.Parameters()
	for i, p := range params {
		if p == nil {
			return fmt.Errorf("exec: parameter %d: %w", i, param.ErrNilParameter)
		}
		if err := coll.Add(PopulateWith(cmd.CreateParameter(), p)); err != nil {
			return fmt.Errorf("exec: bind parameter %q: %w", p.Name, err)
		}
	}
	return nil
}
