package expr

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/triggertree/internal/ir"
)

func testFrame() ir.IRObject {
	return ir.IRObject{
		"blah":    ir.IRInt(1),
		"woof":    ir.IRInt(3),
		"name":    ir.IRString("bob"),
		"flag":    ir.IRBool(false),
		"nothing": ir.IRNull{},
		"turn": ir.IRObject{
			"score": ir.IRFloat(0.85),
			"entities": ir.IRArray{
				ir.IRObject{"type": ir.IRString("city")},
			},
		},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{`true`, true},
		{`false`, false},
		{`exists(blah)`, true},
		{`exists(foo)`, false},
		{`exists(nothing)`, false},
		{`blah`, true},
		{`flag`, false},
		{`!flag`, true},
		{`foo`, false},
		{`woof == 3`, true},
		{`woof == 3.0`, true},
		{`woof != 3`, false},
		{`name == "bob"`, true},
		{`foo == null`, true},
		{`nothing == null`, true},
		{`blah != null`, true},
		{`turn.score >= 0.8`, true},
		{`turn.score > 0.9`, false},
		{`3 < woof`, false},
		{`name < "carl"`, true},
		{`turn.entities[0].type == "city"`, true},
		{`exists(blah) && woof == 3`, true},
		{`exists(blah) && exists(foo)`, false},
		{`exists(woof) || exists(blah)`, true},
		{`!(exists(foo) || woof > 5)`, true},
		{`optional(exists(foo))`, true},
		{`ignore(exists(blah))`, true},
		{`ignore(exists(foo))`, false},
	}

	frame := testFrame()
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := Evaluate(MustParse(tt.source), frame)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	frame := testFrame()

	for _, source := range []string{
		`name > 3`,
		`foo > 3`,
		`!(foo > 3)`,
		`exists(blah) && foo > 3`,
		`exists(foo) || foo > 3`,
	} {
		t.Run(source, func(t *testing.T) {
			got, err := Evaluate(MustParse(source), frame)
			require.Error(t, err)
			assert.False(t, got)
			assert.True(t, errors.Is(err, ErrEvaluation))
		})
	}
}

func TestEvaluateThreeValued(t *testing.T) {
	frame := testFrame()

	got, err := Evaluate(MustParse(`foo > 3 || exists(blah)`), frame)
	require.NoError(t, err, "a true disjunct absorbs the failure")
	assert.True(t, got)

	got, err = Evaluate(MustParse(`foo > 3 && exists(nope)`), frame)
	require.NoError(t, err, "a false conjunct absorbs the failure")
	assert.False(t, got)
}

func TestEvaluateNilFrame(t *testing.T) {
	got, err := Evaluate(MustParse(`exists(x)`), nil)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = Evaluate(MustParse(`x == null`), nil)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateNormalized(t *testing.T) {
	frame := testFrame()
	sources := []string{
		`!exists(nope)`,
		`!(woof > 3)`,
		`!(blah == 1 || name == "bob")`,
		`turn.score >= 0.8 && !flag`,
	}
	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			e := MustParse(source)
			want, err := Evaluate(e, frame)
			require.NoError(t, err)

			got, err := EvaluateNormalized(PushDownNot(e), frame)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			for _, clause := range Clauses(e) {
				for _, leaf := range clause {
					want, wantErr := Evaluate(leaf, frame)
					got, gotErr := EvaluateNormalized(leaf, frame)
					assert.Equal(t, want, got, "leaf %s", leaf)
					assert.Equal(t, wantErr, gotErr, "leaf %s", leaf)
				}
			}
		})
	}
}

func TestEvaluateNormalizedSkipsRewrite(t *testing.T) {
	var frame Frame = testFrame()
	leaf := MustParse(`!exists(nope)`)

	full := testing.AllocsPerRun(100, func() {
		_, _ = Evaluate(leaf, frame)
	})
	normalized := testing.AllocsPerRun(100, func() {
		_, _ = EvaluateNormalized(leaf, frame)
	})
	assert.Less(t, normalized, full)
}
