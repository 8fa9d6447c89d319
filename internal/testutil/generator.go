package testutil

import (
	"fmt"
	"math/rand/v2"

	"github.com/roach88/triggertree/internal/expr"
	"github.com/roach88/triggertree/internal/ir"
)

// Generator produces random trigger expressions and frames from a fixed
// seed. Every predicate reads its own property "p<i>", so relationships
// between generated clauses come only from shared predicates and, when the
// "ordered" comparer is registered, from comparisons on the same property.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator. The same seed yields the same sequence.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Property names the i-th generated property.
func Property(i int) string {
	return fmt.Sprintf("p%d", i)
}

// Predicates returns n single-predicate expressions, cycling through
// exists, ==, > and <=. Comparison operands are ints in [0, 5).
func (g *Generator) Predicates(n int) []expr.Expr {
	out := make([]expr.Expr, n)
	for i := range n {
		prop := Property(i)
		switch i % 4 {
		case 0:
			out[i] = expr.Exists{Path: prop}
		case 1:
			out[i] = g.comparison(prop, expr.OpEQ)
		case 2:
			out[i] = g.comparison(prop, expr.OpGT)
		default:
			out[i] = g.comparison(prop, expr.OpLE)
		}
	}
	return out
}

func (g *Generator) comparison(prop string, op expr.Op) expr.Expr {
	return expr.Comparison{
		Op:    op,
		Left:  expr.Accessor{Path: prop},
		Right: expr.Constant{Value: ir.IRInt(g.rng.IntN(5))},
	}
}

// pick returns k distinct elements of preds, k in [2, maxLen].
func (g *Generator) pick(preds []expr.Expr, maxLen int) []expr.Expr {
	k := 2
	if maxLen > 2 {
		k += g.rng.IntN(maxLen - 1)
	}
	if k > len(preds) {
		k = len(preds)
	}
	idx := g.rng.Perm(len(preds))[:k]
	out := make([]expr.Expr, k)
	for i, j := range idx {
		out[i] = preds[j]
	}
	return out
}

// Conjunctions returns count conjunctions of 2 to maxLen predicates.
func (g *Generator) Conjunctions(preds []expr.Expr, count, maxLen int) []expr.Expr {
	out := make([]expr.Expr, count)
	for i := range out {
		out[i] = expr.NewAnd(g.pick(preds, maxLen)...)
	}
	return out
}

// Disjunctions returns count disjunctions of 2 to maxLen predicates.
func (g *Generator) Disjunctions(preds []expr.Expr, count, maxLen int) []expr.Expr {
	out := make([]expr.Expr, count)
	for i := range out {
		out[i] = expr.NewOr(g.pick(preds, maxLen)...)
	}
	return out
}

// Optionals returns count expressions of the form a && optional(b).
func (g *Generator) Optionals(preds []expr.Expr, count int) []expr.Expr {
	out := make([]expr.Expr, count)
	for i := range out {
		pair := g.pick(preds, 2)
		out[i] = expr.NewAnd(pair[0], expr.Optional{Child: pair[1]})
	}
	return out
}

// Negations returns count expressions negating a single predicate or a
// conjunction of two.
func (g *Generator) Negations(preds []expr.Expr, count int) []expr.Expr {
	out := make([]expr.Expr, count)
	for i := range out {
		if g.rng.IntN(2) == 0 {
			out[i] = expr.Not{Child: preds[g.rng.IntN(len(preds))]}
			continue
		}
		out[i] = expr.Not{Child: expr.NewAnd(g.pick(preds, 2)...)}
	}
	return out
}

// Quantified is a generated expression whose binding must be expanded
// before insertion.
type Quantified struct {
	Expr     expr.Expr
	Binding  string
	All      bool
	Mappings []string
}

// Quantified returns count expressions `exists(x) && <pred>` with binding
// x mapped onto 1 to 3 of the properties "q0".."q3".
func (g *Generator) Quantified(preds []expr.Expr, count int) []Quantified {
	out := make([]Quantified, count)
	for i := range out {
		n := 1 + g.rng.IntN(3)
		mappings := make([]string, n)
		for j, k := range g.rng.Perm(4)[:n] {
			mappings[j] = fmt.Sprintf("q%d", k)
		}
		out[i] = Quantified{
			Expr:     expr.NewAnd(expr.Exists{Path: "x"}, preds[g.rng.IntN(len(preds))]),
			Binding:  "x",
			All:      g.rng.IntN(2) == 0,
			Mappings: mappings,
		}
	}
	return out
}

// Frame returns a frame over properties p0..p<props-1> and q0..q3. Each
// property is present with probability 0.6 and holds an int in [0, 6).
func (g *Generator) Frame(props int) ir.IRObject {
	frame := ir.IRObject{}
	set := func(name string) {
		if g.rng.Float64() < 0.6 {
			frame[name] = ir.IRInt(g.rng.IntN(6))
		}
	}
	for i := range props {
		set(Property(i))
	}
	for k := range 4 {
		set(fmt.Sprintf("q%d", k))
	}
	return frame
}
