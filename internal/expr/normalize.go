package expr

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/triggertree/internal/ir"
)

// PushDownNot rewrites e into negation normal form: Not appears only
// directly above an Accessor or Exists. De Morgan is applied over And/Or,
// comparisons flip to their negated operator, double negation cancels,
// negated constants fold, and negation passes through Ignore and Optional.
func PushDownNot(e Expr) Expr {
	return pushDown(e, false)
}

func pushDown(e Expr, negate bool) Expr {
	switch node := e.(type) {
	case Constant:
		if negate {
			return Constant{Value: ir.IRBool(!ir.Truthy(node.Value))}
		}
		return node

	case Accessor, Exists:
		if negate {
			return Not{Child: node}
		}
		return node

	case Comparison:
		if negate {
			return Comparison{Op: node.Op.Negate(), Left: node.Left, Right: node.Right}
		}
		return node

	case And:
		children := make([]Expr, len(node.Children))
		for i, c := range node.Children {
			children[i] = pushDown(c, negate)
		}
		if negate {
			return NewOr(children...)
		}
		return NewAnd(children...)

	case Or:
		children := make([]Expr, len(node.Children))
		for i, c := range node.Children {
			children[i] = pushDown(c, negate)
		}
		if negate {
			return NewAnd(children...)
		}
		return NewOr(children...)

	case Not:
		return pushDown(node.Child, !negate)

	case Ignore:
		return Ignore{Child: pushDown(node.Child, negate)}

	case Optional:
		return Optional{Child: pushDown(node.Child, negate)}

	default:
		return e
	}
}

// Clauses decomposes e into disjunctive normal form: a list of clauses, each
// a list of leaf predicates to be conjoined. A clause with no predicates is
// the constant true; no clauses at all means the expression can never hold.
// Ignore sub-expressions stay whole as single leaves.
func Clauses(e Expr) [][]Expr {
	return clauses(PushDownNot(e))
}

func clauses(e Expr) [][]Expr {
	switch node := e.(type) {
	case Constant:
		if ir.Truthy(node.Value) {
			return [][]Expr{{}}
		}
		return nil

	case And:
		result := [][]Expr{{}}
		for _, c := range node.Children {
			next := clauses(c)
			if len(next) == 0 {
				return nil
			}
			product := make([][]Expr, 0, len(result)*len(next))
			for _, left := range result {
				for _, right := range next {
					merged := make([]Expr, 0, len(left)+len(right))
					merged = append(merged, left...)
					merged = append(merged, right...)
					product = append(product, merged)
				}
			}
			result = product
		}
		return result

	case Or:
		var result [][]Expr
		for _, c := range node.Children {
			result = append(result, clauses(c)...)
		}
		return result

	case Optional:
		return append([][]Expr{{}}, clauses(node.Child)...)

	default:
		return [][]Expr{{e}}
	}
}

// Paths returns every property path e reads, in first-seen order.
func Paths(e Expr) []string {
	var paths []string
	seen := make(map[string]bool)
	walk(e, func(path string) {
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	})
	return paths
}

// References reports whether e reads any path rooted at binding.
func References(e Expr, binding string) bool {
	binding = norm.NFC.String(binding)
	found := false
	walk(e, func(path string) {
		if rootedAt(path, binding) {
			found = true
		}
	})
	return found
}

func walk(e Expr, visit func(path string)) {
	switch node := e.(type) {
	case Accessor:
		visit(node.Path)
	case Exists:
		visit(node.Path)
	case Comparison:
		walk(node.Left, visit)
		walk(node.Right, visit)
	case And:
		for _, c := range node.Children {
			walk(c, visit)
		}
	case Or:
		for _, c := range node.Children {
			walk(c, visit)
		}
	case Not:
		walk(node.Child, visit)
	case Ignore:
		walk(node.Child, visit)
	case Optional:
		walk(node.Child, visit)
	}
}

// Substitute replaces the leading binding segment of every path in e with
// mapping: with binding "x" and mapping "turn.a", `x.score > 3` becomes
// `turn.a.score > 3` and `exists(x)` becomes `exists(turn.a)`.
func Substitute(e Expr, binding, mapping string) Expr {
	switch node := e.(type) {
	case Accessor:
		return Accessor{Path: rebind(node.Path, binding, mapping)}
	case Exists:
		return Exists{Path: rebind(node.Path, binding, mapping)}
	case Comparison:
		return Comparison{
			Op:    node.Op,
			Left:  Substitute(node.Left, binding, mapping),
			Right: Substitute(node.Right, binding, mapping),
		}
	case And:
		children := make([]Expr, len(node.Children))
		for i, c := range node.Children {
			children[i] = Substitute(c, binding, mapping)
		}
		return And{Children: children}
	case Or:
		children := make([]Expr, len(node.Children))
		for i, c := range node.Children {
			children[i] = Substitute(c, binding, mapping)
		}
		return Or{Children: children}
	case Not:
		return Not{Child: Substitute(node.Child, binding, mapping)}
	case Ignore:
		return Ignore{Child: Substitute(node.Child, binding, mapping)}
	case Optional:
		return Optional{Child: Substitute(node.Child, binding, mapping)}
	default:
		return e
	}
}

func rootedAt(path, binding string) bool {
	return path == binding || strings.HasPrefix(path, binding+".")
}

func rebind(path, binding, mapping string) string {
	binding = norm.NFC.String(binding)
	if !rootedAt(path, binding) {
		return path
	}
	return norm.NFC.String(mapping) + strings.TrimPrefix(path, binding)
}

// IsIgnore reports whether e is an Ignore wrapper.
func IsIgnore(e Expr) bool {
	_, ok := e.(Ignore)
	return ok
}
