package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/triggertree/internal/ir"
)

// CompileTriggerSet compiles a whole trigger file. The CUE value is the
// file root:
//
//	comparers: { "turn.score": "ordered" }
//	trigger: greet: {
//		when:   "exists(turn.text) && intent == \"greet\""
//		action: "greeting"
//	}
//
// Triggers keep their declaration order.
func CompileTriggerSet(v cue.Value) (*ir.TriggerSet, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	set := &ir.TriggerSet{}

	comparersVal := v.LookupPath(cue.ParsePath("comparers"))
	if comparersVal.Exists() {
		comparers, err := CompileComparers(comparersVal)
		if err != nil {
			return nil, err
		}
		set.Comparers = comparers
	}

	triggersVal := v.LookupPath(cue.ParsePath("trigger"))
	if !triggersVal.Exists() {
		return set, nil
	}
	iter, err := triggersVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		spec, err := CompileTrigger(iter.Value())
		if err != nil {
			return nil, err
		}
		set.Triggers = append(set.Triggers, *spec)
	}
	return set, nil
}

// CompileTrigger parses one trigger struct. The trigger ID is the struct's
// label, e.g. for the value at `trigger.greet` the ID is "greet".
func CompileTrigger(v cue.Value) (*ir.TriggerSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.TriggerSpec{}

	sels := v.Path().Selectors()
	if len(sels) > 0 {
		spec.ID = label(sels[len(sels)-1])
	}

	// when (required)
	whenVal := v.LookupPath(cue.ParsePath("when"))
	if !whenVal.Exists() {
		return nil, &CompileError{
			Field:   "when",
			Message: "when is required",
			Pos:     v.Pos(),
		}
	}
	when, err := whenVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.When = when

	// action (any concrete value; checked by Validate)
	actionVal := v.LookupPath(cue.ParsePath("action"))
	if actionVal.Exists() {
		action, err := valueToIR(actionVal)
		if err != nil {
			return nil, err
		}
		spec.Action = action
	}

	quantVal := v.LookupPath(cue.ParsePath("quantifiers"))
	if quantVal.Exists() {
		spec.Quantifiers, err = parseQuantifiers(quantVal)
		if err != nil {
			return nil, err
		}
	}

	return spec, nil
}

func parseQuantifiers(v cue.Value) ([]ir.QuantifierSpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var quantifiers []ir.QuantifierSpec
	for iter.Next() {
		qv := iter.Value()
		var q ir.QuantifierSpec

		if q.Binding, err = requiredString(qv, "binding"); err != nil {
			return nil, err
		}
		if q.Kind, err = requiredString(qv, "kind"); err != nil {
			return nil, err
		}

		mappingsVal := qv.LookupPath(cue.ParsePath("mappings"))
		if mappingsVal.Exists() {
			mIter, err := mappingsVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for mIter.Next() {
				m, err := mIter.Value().String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				q.Mappings = append(q.Mappings, m)
			}
		}

		quantifiers = append(quantifiers, q)
	}
	return quantifiers, nil
}

// CompileComparers reads the `comparers` struct: property path to comparer
// name.
func CompileComparers(v cue.Value) (map[string]string, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	comparers := make(map[string]string)
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "comparers." + iter.Selector().Unquoted(),
				Message: "comparer name must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		comparers[iter.Selector().Unquoted()] = name
	}
	return comparers, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func label(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

// valueToIR converts a concrete CUE value into the IR value model.
func valueToIR(v cue.Value) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.IRNull{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(i), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRFloat(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for iter.Next() {
			elem, err := valueToIR(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			elem, err := valueToIR(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Selector().Unquoted()] = elem
		}
		return obj, nil
	default:
		return nil, &CompileError{
			Field:   "action",
			Message: fmt.Sprintf("action must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
