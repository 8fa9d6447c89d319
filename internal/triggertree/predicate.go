package triggertree

import (
	"github.com/roach88/triggertree/internal/expr"
	"github.com/roach88/triggertree/internal/ir"
)

// PredicateKind classifies the leaf a Predicate was built from.
type PredicateKind int

const (
	// KindOther covers leaves that read no single property, such as a
	// comparison between two paths.
	KindOther PredicateKind = iota
	// KindTruthy is a bare accessor: `turn.flag`.
	KindTruthy
	// KindExists is `exists(path)`.
	KindExists
	// KindCompare is a comparison of one property against a constant.
	KindCompare
)

// Predicate is one atomic condition of a clause.
//
// Property, Op, and Operand are a normalized reading of Expr used by
// comparers: `3 < x` reads as Property "x", Op >, Operand 3. Expr is kept
// for evaluation and rendering.
type Predicate struct {
	Expr     expr.Expr
	Kind     PredicateKind
	Property string
	Op       expr.Op
	Operand  ir.IRValue
	Negated  bool
}

// NewPredicate reads a leaf expression as a Predicate. e must be in
// negation normal form, as every leaf returned by expr.Clauses is. A
// leading Not is recorded in Negated and stripped from the normalized
// fields.
func NewPredicate(e expr.Expr) Predicate {
	p := Predicate{Expr: e}
	leaf := e
	if n, ok := e.(expr.Not); ok {
		p.Negated = true
		leaf = n.Child
	}

	switch node := leaf.(type) {
	case expr.Accessor:
		p.Kind = KindTruthy
		p.Property = node.Path
	case expr.Exists:
		p.Kind = KindExists
		p.Property = node.Path
	case expr.Comparison:
		left, lok := node.Left.(expr.Accessor)
		right, rok := node.Right.(expr.Constant)
		if lok && rok {
			p.Kind = KindCompare
			p.Property = left.Path
			p.Op = node.Op
			p.Operand = right.Value
			break
		}
		lconst, lok := node.Left.(expr.Constant)
		raccess, rok := node.Right.(expr.Accessor)
		if lok && rok {
			p.Kind = KindCompare
			p.Property = raccess.Path
			p.Op = node.Op.Flip()
			p.Operand = lconst.Value
		}
	}
	return p
}

// String renders the predicate's source form.
func (p Predicate) String() string {
	return p.Expr.String()
}

// Evaluate evaluates the predicate against frame. Leaves are built from
// Clauses output, so Expr is already in negation normal form.
func (p Predicate) Evaluate(frame expr.Frame) (bool, error) {
	return expr.EvaluateNormalized(p.Expr, frame)
}

// positive returns the predicate with any negation removed.
func (p Predicate) positive() Predicate {
	if !p.Negated {
		return p
	}
	q := p
	q.Negated = false
	if n, ok := p.Expr.(expr.Not); ok {
		q.Expr = n.Child
	}
	return q
}

// predicateRelationship compares two predicates. Structurally equal
// predicates are equal; otherwise a comparer registered for their shared
// property decides, and without one they are incomparable. Negation on both
// sides reverses the comparer's verdict.
func predicateRelationship(a, b Predicate, comparers Comparers) Relationship {
	if expr.Equal(a.Expr, b.Expr) {
		return Equal
	}
	if a.Negated != b.Negated || a.Property == "" || a.Property != b.Property {
		return Incomparable
	}
	c, ok := comparers[a.Property]
	if !ok || c == nil {
		return Incomparable
	}

	rel := safeRelationship(c, a.positive(), b.positive())
	if a.Negated {
		rel = rel.Swap()
	}
	return rel
}

// safeRelationship calls a comparer and reads a panic as Incomparable.
func safeRelationship(c Comparer, a, b Predicate) (rel Relationship) {
	defer func() {
		if recover() != nil {
			rel = Incomparable
		}
	}()
	return c.Relationship(a, b)
}
