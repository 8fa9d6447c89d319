package triggertree

import (
	"github.com/roach88/triggertree/internal/expr"
)

// Trigger is the handle returned by AddTrigger. It pairs an expression with
// an opaque action and records where its clauses were placed in the tree.
type Trigger struct {
	ID          string
	Expression  expr.Expr
	Action      any
	Quantifiers []Quantifier

	clauses    []*Clause
	placements []placement
	seq        int64
	tree       *Tree
	removed    bool
}

// placement records one clause of a trigger attached to one node.
type placement struct {
	node   NodeID
	clause *Clause
}

// Clauses returns every clause of the trigger, subsumed ones included.
func (t *Trigger) Clauses() []*Clause {
	return t.clauses
}

// Nodes returns the IDs of the nodes holding this trigger's clauses, in
// placement order. A clause that specializes several incomparable siblings
// contributes one node per branch.
func (t *Trigger) Nodes() []NodeID {
	ids := make([]NodeID, len(t.placements))
	for i, p := range t.placements {
		ids[i] = p.node
	}
	return ids
}

// Seq is the trigger's insertion order within its tree, starting at 1.
func (t *Trigger) Seq() int64 {
	return t.seq
}

// Live reports whether the trigger is still in its tree.
func (t *Trigger) Live() bool {
	return t.tree != nil && !t.removed
}

// String renders the trigger's expression.
func (t *Trigger) String() string {
	if t.Expression == nil {
		return "<nil>"
	}
	return t.Expression.String()
}

// Relationship compares two triggers by their non-subsumed clauses.
// t implies other when each of t's clauses implies some clause of other.
// A trigger with no clauses can never hold and so implies everything.
func (t *Trigger) Relationship(other *Trigger, comparers Comparers) Relationship {
	return fromImplication(
		clausesImply(t.clauses, other.clauses, comparers),
		clausesImply(other.clauses, t.clauses, comparers),
	)
}

func clausesImply(from, to []*Clause, comparers Comparers) bool {
	for _, c := range from {
		if c.Subsumed {
			continue
		}
		found := false
		for _, d := range to {
			if d.Subsumed {
				continue
			}
			rel := c.Relationship(d, comparers)
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

// buildClauses turns an expression into the clauses that get placed in the
// tree: negation normal form, DNF decomposition, duplicate predicate
// removal, quantifier expansion, ignore splitting, duplicate clause removal,
// and subsumption marking.
func buildClauses(e expr.Expr, quantifiers []Quantifier, comparers Comparers) []*Clause {
	dnf := expr.Clauses(e)
	raw := make([]rawClause, len(dnf))
	for i, leaves := range dnf {
		raw[i] = rawClause{leaves: dedupeLeaves(leaves)}
	}

	for _, q := range quantifiers {
		raw = q.expand(raw)
	}

	var clauses []*Clause
	for _, rc := range raw {
		clauses = append(clauses, newClause(rc.leaves, rc.bindings))
	}
	return markSubsumed(clauses, comparers)
}

// markSubsumed drops clauses equal to an earlier one and flags every
// clause that specializes another clause of the same trigger. Subsumed
// clauses are still placed in the tree, so optional(x) can prefer the
// clause carrying x when x holds; the flag only matters when comparing
// whole triggers. Clauses with different ignored predicates are never
// compared.
func markSubsumed(clauses []*Clause, comparers Comparers) []*Clause {
	var kept []*Clause
	for _, c := range clauses {
		duplicate := false
		for _, k := range kept {
			if c.sameIgnored(k) && c.Relationship(k, comparers) == Equal {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, c)
		}
	}

	for i, a := range kept {
		for j, b := range kept {
			if i == j || !a.sameIgnored(b) {
				continue
			}
			if a.Relationship(b, comparers) == Specializes {
				a.Subsumed = true
			}
		}
	}
	return kept
}
