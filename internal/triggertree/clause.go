package triggertree

import (
	"sort"
	"strings"

	"github.com/roach88/triggertree/internal/expr"
)

// Clause is a conjunction of predicates: one disjunct of a trigger's
// expression after quantifier expansion.
//
// Predicates take part in relationship computation. Ignored predicates come
// from ignore(...) and are evaluated when matching but never compared.
// AnyBindings records, for clauses produced by an `any` quantifier, which
// mapping each binding was expanded to.
type Clause struct {
	Predicates  []Predicate
	Ignored     []Predicate
	AnyBindings map[string]string

	// Subsumed is set when another clause of the same trigger is more
	// general. Trigger.Relationship skips subsumed clauses.
	Subsumed bool
}

// newClause splits leaf expressions into relationship predicates and
// ignored predicates, dropping structural duplicates in each.
func newClause(leaves []expr.Expr, bindings map[string]string) *Clause {
	c := &Clause{AnyBindings: bindings}
	for _, leaf := range leaves {
		if ig, ok := leaf.(expr.Ignore); ok {
			c.Ignored = appendUnique(c.Ignored, NewPredicate(ig.Child))
			continue
		}
		c.Predicates = appendUnique(c.Predicates, NewPredicate(leaf))
	}
	return c
}

func appendUnique(preds []Predicate, p Predicate) []Predicate {
	for _, existing := range preds {
		if expr.Equal(existing.Expr, p.Expr) {
			return preds
		}
	}
	return append(preds, p)
}

// Relationship compares c with other over their non-ignored predicates.
//
// c implies other when every predicate of other is matched by a predicate
// of c that is equal or stricter. Mutual implication is Equal, which is then
// refined by any-bindings: a clause whose bindings strictly extend the
// other's specializes it, conflicting bindings are Incomparable.
func (c *Clause) Relationship(other *Clause, comparers Comparers) Relationship {
	rel := fromImplication(
		covers(c.Predicates, other.Predicates, comparers),
		covers(other.Predicates, c.Predicates, comparers),
	)
	if rel != Equal {
		return rel
	}
	return bindingRelationship(c.AnyBindings, other.AnyBindings)
}

// covers reports whether every predicate in required is implied by some
// predicate in have.
func covers(have, required []Predicate, comparers Comparers) bool {
	for _, q := range required {
		found := false
		for _, p := range have {
			rel := predicateRelationship(p, q, comparers)
			if rel == Equal || rel == Specializes {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func bindingRelationship(a, b map[string]string) Relationship {
	aInB := bindingsWithin(a, b)
	bInA := bindingsWithin(b, a)
	switch {
	case aInB && bInA:
		return Equal
	case aInB:
		return Generalizes
	case bInA:
		return Specializes
	default:
		return Incomparable
	}
}

// bindingsWithin reports whether every binding in a appears in b with the
// same mapping.
func bindingsWithin(a, b map[string]string) bool {
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// Matches evaluates every predicate, ignored ones included. Evaluation
// stops at the first false predicate; an evaluation failure makes the
// clause false and is returned alongside.
func (c *Clause) Matches(frame expr.Frame) (bool, error) {
	if ok, err := evaluateAll(c.Predicates, frame); !ok {
		return false, err
	}
	return evaluateAll(c.Ignored, frame)
}

// gate evaluates only the relationship predicates. A node whose
// representative clause fails its gate cannot have matching descendants.
func (c *Clause) gate(frame expr.Frame) (bool, error) {
	return evaluateAll(c.Predicates, frame)
}

func evaluateAll(preds []Predicate, frame expr.Frame) (bool, error) {
	for _, p := range preds {
		ok, err := p.Evaluate(frame)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// sameIgnored reports whether both clauses carry the same ignored
// predicates, in any order.
func (c *Clause) sameIgnored(other *Clause) bool {
	if len(c.Ignored) != len(other.Ignored) {
		return false
	}
	for _, p := range c.Ignored {
		found := false
		for _, q := range other.Ignored {
			if expr.Equal(p.Expr, q.Expr) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// String renders the clause as `a && b && ignore(c) {x->turn.a}`.
// The empty clause renders as "true"; subsumed clauses are prefixed "*".
func (c *Clause) String() string {
	var sb strings.Builder
	if c.Subsumed {
		sb.WriteByte('*')
	}

	parts := make([]string, 0, len(c.Predicates)+len(c.Ignored))
	for _, p := range c.Predicates {
		parts = append(parts, p.String())
	}
	for _, p := range c.Ignored {
		parts = append(parts, "ignore("+p.String()+")")
	}
	if len(parts) == 0 {
		sb.WriteString("true")
	} else {
		sb.WriteString(strings.Join(parts, " && "))
	}

	if len(c.AnyBindings) > 0 {
		keys := make([]string, 0, len(c.AnyBindings))
		for k := range c.AnyBindings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k + "->" + c.AnyBindings[k])
		}
		sb.WriteByte('}')
	}
	return sb.String()
}
