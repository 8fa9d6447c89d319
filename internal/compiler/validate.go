package compiler

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/triggertree/internal/expr"
	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/triggertree"
)

// Validation error codes (E120-E129)
const (
	ErrWhenEmpty          = "E120" // when expression is empty
	ErrWhenUnparsable     = "E121" // when expression does not parse
	ErrInvalidQuantifier  = "E122" // quantifier kind is not any/all
	ErrEmptyBinding       = "E123" // quantifier binding is empty
	ErrDuplicateMapping   = "E124" // mapping listed twice in one quantifier
	ErrUnknownComparer    = "E125" // comparer name not registered
	ErrMissingAction      = "E126" // trigger has no action
	ErrDuplicateTriggerID = "E127" // two triggers share an ID
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled trigger set. It returns every error found
// instead of stopping at the first.
func Validate(set *ir.TriggerSet) []ValidationError {
	var errs []ValidationError

	for _, prop := range slices.Sorted(maps.Keys(set.Comparers)) {
		name := set.Comparers[prop]
		if _, err := triggertree.ComparerByName(name); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("comparers.%q", prop),
				Message: fmt.Sprintf("unknown comparer %q", name),
				Code:    ErrUnknownComparer,
			})
		}
	}

	seen := make(map[string]bool, len(set.Triggers))
	for i := range set.Triggers {
		spec := &set.Triggers[i]
		if seen[spec.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("trigger.%s", spec.ID),
				Message: fmt.Sprintf("duplicate trigger id %q", spec.ID),
				Code:    ErrDuplicateTriggerID,
			})
		}
		seen[spec.ID] = true
		errs = append(errs, ValidateTrigger(spec)...)
	}
	return errs
}

// ValidateTrigger checks a single trigger definition.
func ValidateTrigger(spec *ir.TriggerSpec) []ValidationError {
	var errs []ValidationError
	prefix := "trigger." + spec.ID

	// E120/E121: when must be a parsable expression
	if strings.TrimSpace(spec.When) == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".when",
			Message: "when is required and must be non-empty",
			Code:    ErrWhenEmpty,
		})
	} else if _, err := expr.Parse(spec.When); err != nil {
		ve := ValidationError{
			Field:   prefix + ".when",
			Message: err.Error(),
			Code:    ErrWhenUnparsable,
		}
		var se *expr.SyntaxError
		if errors.As(err, &se) {
			ve.Message = se.Message
			ve.Line = se.Line
		}
		errs = append(errs, ve)
	}

	// E126: action is required
	if spec.Action == nil {
		errs = append(errs, ValidationError{
			Field:   prefix + ".action",
			Message: "action is required",
			Code:    ErrMissingAction,
		})
	}

	for i, q := range spec.Quantifiers {
		field := fmt.Sprintf("%s.quantifiers[%d]", prefix, i)

		// E123: binding must be non-empty
		if strings.TrimSpace(q.Binding) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".binding",
				Message: "binding is required and must be non-empty",
				Code:    ErrEmptyBinding,
			})
		}

		// E122: kind must be any or all
		if !ir.ValidQuantifierKinds[q.Kind] {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("invalid quantifier kind %q, must be \"any\" or \"all\"", q.Kind),
				Code:    ErrInvalidQuantifier,
			})
		}

		// E124: mappings must be distinct
		mapped := make(map[string]bool, len(q.Mappings))
		for j, m := range q.Mappings {
			if mapped[m] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.mappings[%d]", field, j),
					Message: fmt.Sprintf("duplicate mapping %q", m),
					Code:    ErrDuplicateMapping,
				})
			}
			mapped[m] = true
		}
	}

	return errs
}
