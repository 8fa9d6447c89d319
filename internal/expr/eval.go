package expr

import (
	"fmt"

	"github.com/roach88/triggertree/internal/ir"
)

// Frame is the read-only memory a trigger is evaluated against.
// ir.IRObject satisfies it.
type Frame interface {
	Lookup(path string) (ir.IRValue, bool)
}

// Evaluate evaluates e against frame.
//
// Evaluation is three-valued: a sub-expression is true, false, or failed.
// And is false if any child is false, failed if any other child failed;
// Or is true if any child is true, failed if any other child failed.
// Negations are pushed to the leaves first, so Evaluate agrees with the
// clause decomposition returned by Clauses. A failure is reported as
// (false, err) with err satisfying errors.Is(err, ErrEvaluation).
func Evaluate(e Expr, frame Frame) (bool, error) {
	return EvaluateNormalized(PushDownNot(e), frame)
}

// EvaluateNormalized is Evaluate for an expression already in negation
// normal form, such as a leaf returned by Clauses. It skips the rewrite.
func EvaluateNormalized(e Expr, frame Frame) (bool, error) {
	if frame == nil {
		frame = ir.IRObject(nil)
	}
	return eval(e, frame)
}

func eval(e Expr, frame Frame) (bool, error) {
	switch node := e.(type) {
	case Constant:
		return ir.Truthy(node.Value), nil

	case Accessor:
		v, ok := frame.Lookup(node.Path)
		return ok && ir.Truthy(v), nil

	case Exists:
		v, ok := frame.Lookup(node.Path)
		return ok && !ir.IsNull(v), nil

	case Comparison:
		return compare(node, frame)

	case And:
		var firstErr error
		for _, c := range node.Children {
			ok, err := eval(c, frame)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if !ok {
				return false, nil
			}
		}
		if firstErr != nil {
			return false, firstErr
		}
		return true, nil

	case Or:
		var firstErr error
		for _, c := range node.Children {
			ok, err := eval(c, frame)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if ok {
				return true, nil
			}
		}
		return false, firstErr

	case Not:
		ok, err := eval(node.Child, frame)
		if err != nil {
			return false, err
		}
		return !ok, nil

	case Ignore:
		return eval(node.Child, frame)

	case Optional:
		return true, nil

	case nil:
		return false, &EvalError{Expr: "<nil>", Message: "nil expression"}

	default:
		return false, &EvalError{Expr: e.String(), Message: fmt.Sprintf("unknown expression type %T", e)}
	}
}

func operand(e Expr, frame Frame) ir.IRValue {
	switch node := e.(type) {
	case Constant:
		return node.Value
	case Accessor:
		if v, ok := frame.Lookup(node.Path); ok {
			return v
		}
	}
	return ir.IRNull{}
}

func compare(c Comparison, frame Frame) (bool, error) {
	left := operand(c.Left, frame)
	right := operand(c.Right, frame)

	switch c.Op {
	case OpEQ:
		return ir.Equal(left, right), nil
	case OpNE:
		return !ir.Equal(left, right), nil
	}

	order, ok := ir.Compare(left, right)
	if !ok {
		return false, &EvalError{
			Expr:    c.String(),
			Message: fmt.Sprintf("cannot order %s against %s", ir.KindOf(left), ir.KindOf(right)),
		}
	}

	switch c.Op {
	case OpLT:
		return order < 0, nil
	case OpLE:
		return order <= 0, nil
	case OpGT:
		return order > 0, nil
	case OpGE:
		return order >= 0, nil
	default:
		return false, &EvalError{Expr: c.String(), Message: "unknown operator"}
	}
}
