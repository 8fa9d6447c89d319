package expr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrSyntax is the kind of every parse failure.
	ErrSyntax = errors.New("expression syntax error")

	// ErrEvaluation is the kind of every data-shape mismatch found while
	// evaluating against a frame.
	ErrEvaluation = errors.New("expression evaluation error")
)

// SyntaxError reports malformed or unsupported expression source.
type SyntaxError struct {
	Source  string
	Line    int // 1-based, 0 when unknown
	Column  int // 1-based, 0 when unknown
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at %d:%d in %q: %s", e.Line, e.Column, e.Source, e.Message)
	}
	return fmt.Sprintf("syntax error in %q: %s", e.Source, e.Message)
}

// Is makes errors.Is(err, ErrSyntax) hold for every SyntaxError.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// EvalError reports an expression that could not be evaluated against a
// frame, such as an ordering comparison between a string and a number.
type EvalError struct {
	Expr    string
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %s: %s", e.Expr, e.Message)
}

// Is makes errors.Is(err, ErrEvaluation) hold for every EvalError.
func (e *EvalError) Is(target error) bool {
	return target == ErrEvaluation
}

// IsSyntaxError reports whether err is (or wraps) a SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
