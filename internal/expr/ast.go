package expr

import (
	"strconv"
	"strings"

	"github.com/roach88/triggertree/internal/ir"
)

// Expr is a sealed interface for trigger expressions.
// Only Constant, Accessor, Exists, Comparison, And, Or, Not, Ignore, and
// Optional implement it.
type Expr interface {
	expr() // Sealed - only these types implement it

	// String renders the expression in source syntax. Two expressions are
	// structurally equal iff their renderings are equal.
	String() string
}

// Constant is a literal value. Used bare it evaluates by truthiness;
// inside a Comparison it is an operand.
type Constant struct {
	Value ir.IRValue
}

func (Constant) expr() {}

// Accessor reads a dotted property path from the frame.
type Accessor struct {
	Path string
}

func (Accessor) expr() {}

// Exists is true when the path resolves to a non-null value.
type Exists struct {
	Path string
}

func (Exists) expr() {}

// Comparison relates two operands, each an Accessor or a Constant.
type Comparison struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (Comparison) expr() {}

// And is a conjunction. Nested conjunctions are flattened by NewAnd.
type And struct {
	Children []Expr
}

func (And) expr() {}

// Or is a disjunction. Nested disjunctions are flattened by NewOr.
type Or struct {
	Children []Expr
}

func (Or) expr() {}

// Not negates its child.
type Not struct {
	Child Expr
}

func (Not) expr() {}

// Ignore marks a sub-expression that is still evaluated when matching but
// takes no part in clause relationships.
type Ignore struct {
	Child Expr
}

func (Ignore) expr() {}

// Optional(x) behaves like `true || x`: it decomposes into one clause
// without x and one with it, so the trigger matches either way but the
// clause carrying x is preferred when x holds.
type Optional struct {
	Child Expr
}

func (Optional) expr() {}

// Compile-time check that all variants implement Expr.
var (
	_ Expr = Constant{}
	_ Expr = Accessor{}
	_ Expr = Exists{}
	_ Expr = Comparison{}
	_ Expr = And{}
	_ Expr = Or{}
	_ Expr = Not{}
	_ Expr = Ignore{}
	_ Expr = Optional{}
)

// True and False are the boolean constants.
var (
	True  = Constant{Value: ir.IRBool(true)}
	False = Constant{Value: ir.IRBool(false)}
)

// NewAnd builds a conjunction, flattening nested And children.
// A single child is returned unwrapped.
func NewAnd(children ...Expr) Expr {
	flat := make([]Expr, 0, len(children))
	for _, c := range children {
		if a, ok := c.(And); ok {
			flat = append(flat, a.Children...)
			continue
		}
		flat = append(flat, c)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return And{Children: flat}
}

// NewOr builds a disjunction, flattening nested Or children.
// A single child is returned unwrapped.
func NewOr(children ...Expr) Expr {
	flat := make([]Expr, 0, len(children))
	for _, c := range children {
		if o, ok := c.(Or); ok {
			flat = append(flat, o.Children...)
			continue
		}
		flat = append(flat, c)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Or{Children: flat}
}

// Equal reports structural equality.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

func (c Constant) String() string {
	return formatValue(c.Value)
}

func (a Accessor) String() string {
	return a.Path
}

func (e Exists) String() string {
	return "exists(" + e.Path + ")"
}

func (c Comparison) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

func (a And) String() string {
	return joinChildren(a.Children, " && ", func(e Expr) bool {
		switch e.(type) {
		case And, Or:
			return true
		}
		return false
	})
}

func (o Or) String() string {
	return joinChildren(o.Children, " || ", func(e Expr) bool {
		_, nested := e.(Or)
		return nested
	})
}

func (n Not) String() string {
	switch n.Child.(type) {
	case Comparison, And, Or:
		return "!(" + n.Child.String() + ")"
	}
	return "!" + n.Child.String()
}

func (i Ignore) String() string {
	return "ignore(" + i.Child.String() + ")"
}

func (o Optional) String() string {
	return "optional(" + o.Child.String() + ")"
}

func joinChildren(children []Expr, sep string, wrap func(Expr) bool) string {
	var sb strings.Builder
	for i, c := range children {
		if i > 0 {
			sb.WriteString(sep)
		}
		if wrap(c) {
			sb.WriteString("(" + c.String() + ")")
		} else {
			sb.WriteString(c.String())
		}
	}
	return sb.String()
}

func formatValue(v ir.IRValue) string {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return "null"
	case ir.IRString:
		return strconv.Quote(string(val))
	case ir.IRInt:
		return strconv.FormatInt(int64(val), 10)
	case ir.IRFloat:
		return ir.FormatFloat(float64(val))
	case ir.IRBool:
		return strconv.FormatBool(bool(val))
	default:
		data, err := ir.MarshalCanonical(val)
		if err != nil {
			return "<" + ir.KindOf(val) + ">"
		}
		return string(data)
	}
}
