package triggertree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/triggertree/internal/expr"
	"github.com/roach88/triggertree/internal/ir"
)

func clausesOf(t *testing.T, source string, quantifiers ...Quantifier) []*Clause {
	t.Helper()
	return buildClauses(expr.MustParse(source), quantifiers, nil)
}

func clause(t *testing.T, source string) *Clause {
	t.Helper()
	cs := clausesOf(t, source)
	require.Len(t, cs, 1, source)
	return cs[0]
}

func TestClause_Relationship(t *testing.T) {
	tests := []struct {
		a, b string
		want Relationship
	}{
		{"exists(a)", "exists(a)", Equal},
		{"exists(a) && exists(b)", "exists(b) && exists(a)", Equal},
		{"exists(a) && exists(b)", "exists(a)", Specializes},
		{"exists(a)", "exists(a) && exists(b)", Generalizes},
		{"exists(a)", "exists(b)", Incomparable},
		{"exists(a) && exists(b)", "exists(a) && exists(c)", Incomparable},
		{"true", "exists(a)", Generalizes},
		{"exists(a) && ignore(b > 1)", "exists(a)", Equal},
		{"exists(a) && ignore(b > 1)", "exists(a) && ignore(c)", Equal},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, clause(t, tt.a).Relationship(clause(t, tt.b), nil))
		})
	}
}

func TestClause_BindingRelationship(t *testing.T) {
	preds := []expr.Expr{expr.Exists{Path: "turn.a"}}
	none := newClause(preds, nil)
	x := newClause(preds, map[string]string{"x": "turn.a"})
	xy := newClause(preds, map[string]string{"x": "turn.a", "y": "turn.b"})
	other := newClause(preds, map[string]string{"x": "turn.c"})

	assert.Equal(t, Specializes, x.Relationship(none, nil))
	assert.Equal(t, Generalizes, none.Relationship(x, nil))
	assert.Equal(t, Specializes, xy.Relationship(x, nil))
	assert.Equal(t, Incomparable, x.Relationship(other, nil))
	assert.Equal(t, Equal, x.Relationship(newClause(preds, map[string]string{"x": "turn.a"}), nil))
}

func TestClause_String(t *testing.T) {
	assert.Equal(t, "true", clause(t, "true").String())
	assert.Equal(t, "exists(a) && ignore(b > 1)", clause(t, "ignore(b > 1) && exists(a)").String())
	assert.Equal(t, "!exists(a)", clause(t, "!exists(a)").String())
	assert.Equal(t, "a != 1", clause(t, "!(a == 1)").String())
}

func TestClause_DuplicatesRemoved(t *testing.T) {
	assert.Len(t, clause(t, "exists(a) && exists(a)").Predicates, 1)
	assert.Len(t, clausesOf(t, "exists(a) || exists(a)"), 1)

	// Differing ignored predicates keep both clauses.
	assert.Len(t, clausesOf(t, "exists(a) && ignore(b) || exists(a) && ignore(c)"), 2)
}

func TestClause_SubsumedMarking(t *testing.T) {
	cs := clausesOf(t, "exists(a) && exists(b) || exists(a)")
	require.Len(t, cs, 2)
	assert.True(t, cs[0].Subsumed)
	assert.False(t, cs[1].Subsumed)
	assert.Equal(t, "*exists(a) && exists(b)", cs[0].String())
}

func TestClause_Matches(t *testing.T) {
	c := clause(t, "exists(a) && ignore(b > 1)")
	f := ir.IRObject{"a": ir.IRInt(1), "b": ir.IRInt(0)}

	ok, err := c.Matches(f)
	require.NoError(t, err)
	assert.False(t, ok, "ignored predicates still count when matching")

	ok, err = c.gate(f)
	require.NoError(t, err)
	assert.True(t, ok, "the gate skips ignored predicates")

	_, err = clause(t, "a > 1").Matches(ir.IRObject{"a": ir.IRString("x")})
	assert.ErrorIs(t, err, expr.ErrEvaluation)
}

func TestQuantifier_Expand(t *testing.T) {
	anyQ := Quantifier{Binding: "x", Kind: Any, Mappings: []string{"m1", "m2"}}
	allQ := Quantifier{Binding: "x", Kind: All, Mappings: []string{"m1", "m2"}}

	cs := clausesOf(t, "exists(x.name) && ready", anyQ)
	require.Len(t, cs, 2)
	assert.Equal(t, "exists(m1.name) && ready {x->m1}", cs[0].String())
	assert.Equal(t, "exists(m2.name) && ready {x->m2}", cs[1].String())

	cs = clausesOf(t, "exists(x.name) && ready", allQ)
	require.Len(t, cs, 1)
	assert.Equal(t, "exists(m1.name) && exists(m2.name) && ready", cs[0].String())

	// Paths that merely start with the binding name are left alone.
	cs = clausesOf(t, "exists(xy)", anyQ)
	require.Len(t, cs, 1)
	assert.Equal(t, "exists(xy)", cs[0].String())
}

func TestQuantifier_Nested(t *testing.T) {
	cs := clausesOf(t, "exists(x) && exists(y)",
		Quantifier{Binding: "x", Kind: Any, Mappings: []string{"a", "b"}},
		Quantifier{Binding: "y", Kind: Any, Mappings: []string{"c"}},
	)

	require.Len(t, cs, 2)
	assert.Equal(t, "exists(a) && exists(c) {x->a, y->c}", cs[0].String())
	assert.Equal(t, "exists(b) && exists(c) {x->b, y->c}", cs[1].String())
}

func TestParseQuantifierKind(t *testing.T) {
	k, err := ParseQuantifierKind("any")
	require.NoError(t, err)
	assert.Equal(t, Any, k)

	k, err = ParseQuantifierKind("all")
	require.NoError(t, err)
	assert.Equal(t, All, k)

	_, err = ParseQuantifierKind("some")
	assert.Error(t, err)
}
