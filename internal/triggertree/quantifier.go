package triggertree

import (
	"maps"

	"github.com/cockroachdb/errors"

	"github.com/roach88/triggertree/internal/expr"
)

// QuantifierKind selects how a quantifier expands.
type QuantifierKind int

const (
	// Any expands to one clause per mapping: the trigger holds if the
	// placeholder predicate holds for any mapping.
	Any QuantifierKind = iota + 1
	// All expands into a single clause with one predicate per mapping.
	All
)

func (k QuantifierKind) String() string {
	switch k {
	case Any:
		return "any"
	case All:
		return "all"
	default:
		return "unknown"
	}
}

// ParseQuantifierKind reads "any" or "all".
func ParseQuantifierKind(s string) (QuantifierKind, error) {
	switch s {
	case "any":
		return Any, nil
	case "all":
		return All, nil
	default:
		return 0, errors.Newf("unknown quantifier kind %q (want any or all)", s)
	}
}

// Quantifier expands a placeholder binding used in a trigger expression
// over a list of property paths. With Binding "x" and Mappings
// ["turn.a", "turn.b"], `exists(x)` becomes `exists(turn.a)` and
// `exists(turn.b)`, joined by AND for All and by OR for Any.
type Quantifier struct {
	Binding  string
	Kind     QuantifierKind
	Mappings []string
}

// rawClause is a clause before ignore splitting: the DNF leaves plus the
// any-bindings gathered so far.
type rawClause struct {
	leaves   []expr.Expr
	bindings map[string]string
}

func (rc rawClause) references(binding string) bool {
	for _, leaf := range rc.leaves {
		if expr.References(leaf, binding) {
			return true
		}
	}
	return false
}

// expand applies q to every clause. Clauses that never mention the binding
// pass through unchanged. A quantifier with no mappings contributes no
// clauses for any branch that mentions its binding, for both kinds.
func (q Quantifier) expand(clauses []rawClause) []rawClause {
	var out []rawClause
	for _, rc := range clauses {
		if !rc.references(q.Binding) {
			out = append(out, rc)
			continue
		}
		if len(q.Mappings) == 0 {
			continue
		}

		switch q.Kind {
		case All:
			leaves := make([]expr.Expr, 0, len(rc.leaves)*len(q.Mappings))
			for _, leaf := range rc.leaves {
				if !expr.References(leaf, q.Binding) {
					leaves = append(leaves, leaf)
					continue
				}
				for _, m := range q.Mappings {
					leaves = append(leaves, expr.Substitute(leaf, q.Binding, m))
				}
			}
			out = append(out, rawClause{leaves: dedupeLeaves(leaves), bindings: rc.bindings})

		case Any:
			for _, m := range q.Mappings {
				leaves := make([]expr.Expr, len(rc.leaves))
				for i, leaf := range rc.leaves {
					leaves[i] = expr.Substitute(leaf, q.Binding, m)
				}
				bindings := make(map[string]string, len(rc.bindings)+1)
				maps.Copy(bindings, rc.bindings)
				bindings[q.Binding] = m
				out = append(out, rawClause{leaves: dedupeLeaves(leaves), bindings: bindings})
			}
		}
	}
	return out
}

func dedupeLeaves(leaves []expr.Expr) []expr.Expr {
	out := make([]expr.Expr, 0, len(leaves))
	seen := make(map[string]bool, len(leaves))
	for _, leaf := range leaves {
		key := leaf.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, leaf)
	}
	return out
}
