package expr

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/triggertree/internal/ir"
)

func TestParseRendering(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`true`, `true`},
		{`exists(blah) && woof==3`, `exists(blah) && woof == 3`},
		{`a || b && c`, `a || b && c`},
		{`(a || b) && c`, `(a || b) && c`},
		{`a && (b && c)`, `a && b && c`},
		{`!(x > 3)`, `!(x > 3)`},
		{`!flag`, `!flag`},
		{`turn.entities[0].type == "city"`, `turn.entities.0.type == "city"`},
		{`turn["with space"] != 1`, `turn.with space != 1`},
		{`score >= -1.5`, `score >= -1.5`},
		{`score < 2.0`, `score < 2.0`},
		{`x == null`, `x == null`},
		{`3 < x`, `3 < x`},
		{`ignore(exists(x)) && y`, `ignore(exists(x)) && y`},
		{`optional(exists(x))`, `optional(exists(x))`},
		{`count == 1_000`, `count == 1000`},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			e, err := Parse(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.String())
		})
	}
}

func TestParseStructure(t *testing.T) {
	e, err := Parse(`exists(blah) && woof == 3`)
	require.NoError(t, err)

	want := And{Children: []Expr{
		Exists{Path: "blah"},
		Comparison{Op: OpEQ, Left: Accessor{Path: "woof"}, Right: Constant{Value: ir.IRInt(3)}},
	}}
	assert.Equal(t, want, e)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"dangling operator", "a &&"},
		{"arithmetic", "a + b"},
		{"unification", "a & b"},
		{"regex match", `a =~ "x"`},
		{"unknown function", "foo(x)"},
		{"exists on literal", "exists(1)"},
		{"exists arity", "exists(a, b)"},
		{"compound operand", "(a && b) == c"},
		{"bound", "<3"},
		{"unbalanced", "(a || b"},
		{"dotted string index", `turn["a.b"] == 1`},
		{"empty string index", `turn[""] == 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax), "want ErrSyntax, got %v", err)
			assert.True(t, IsSyntaxError(err))
			assert.NotEmpty(t, errors.GetAllHints(err))
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("a && foo(b)")
	require.Error(t, err)

	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Line)
	assert.Equal(t, 6, se.Column)
	assert.Contains(t, se.Message, `unknown function "foo"`)
}

func TestParseNormalizesPaths(t *testing.T) {
	nfc := Exists{Path: "turn.caf\u00e9"}

	e, err := Parse("exists(turn[\"cafe\u0301\"])")
	require.NoError(t, err)
	assert.Equal(t, nfc, e)

	e, err = Parse("exists(turn[\"caf\u00e9\"])")
	require.NoError(t, err)
	assert.Equal(t, nfc, e)
}

func TestSubstituteNormalizesMapping(t *testing.T) {
	e := Substitute(MustParse("exists(x.name)"), "x", "cafe\u0301")
	assert.Equal(t, Exists{Path: "caf\u00e9.name"}, e)
	assert.True(t, References(MustParse(`exists(turn["cafe\u0301"])`), "turn"))
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("a &&") })
	assert.NotPanics(t, func() { MustParse("a && b") })
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(MustParse("a && b == 1"), MustParse("a&&b==1")))
	assert.False(t, Equal(MustParse("b == 1"), MustParse("b == 1.0")))
	assert.False(t, Equal(MustParse("a"), nil))
	assert.True(t, Equal(nil, nil))
}
