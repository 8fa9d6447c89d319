package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/triggertree/internal/ir"
)

func compileString(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v
}

func TestCompileTriggerSet(t *testing.T) {
	v := compileString(t, `
		comparers: "turn.score": "ordered"

		trigger: greet: {
			when:   "exists(turn.text) && intent == \"greet\""
			action: "greeting"
		}

		trigger: "high-score": {
			when: "turn.score > 0.8"
			action: {reply: "nice", weight: 2, tags: ["a", "b"], final: true}
			quantifiers: [{binding: "x", kind: "any", mappings: ["a", "b"]}]
		}
	`)

	set, err := CompileTriggerSet(v)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"turn.score": "ordered"}, set.Comparers)
	require.Len(t, set.Triggers, 2)

	greet := set.Triggers[0]
	assert.Equal(t, "greet", greet.ID)
	assert.Equal(t, `exists(turn.text) && intent == "greet"`, greet.When)
	assert.Equal(t, ir.IRString("greeting"), greet.Action)
	assert.Empty(t, greet.Quantifiers)

	high := set.Triggers[1]
	assert.Equal(t, "high-score", high.ID)
	assert.Equal(t, ir.IRObject{
		"reply":  ir.IRString("nice"),
		"weight": ir.IRInt(2),
		"tags":   ir.IRArray{ir.IRString("a"), ir.IRString("b")},
		"final":  ir.IRBool(true),
	}, high.Action)
	require.Len(t, high.Quantifiers, 1)
	assert.Equal(t, ir.QuantifierSpec{Binding: "x", Kind: "any", Mappings: []string{"a", "b"}}, high.Quantifiers[0])
}

func TestCompileTriggerSet_Empty(t *testing.T) {
	set, err := CompileTriggerSet(compileString(t, `other: 1`))
	require.NoError(t, err)
	assert.Empty(t, set.Triggers)
	assert.Empty(t, set.Comparers)
}

func TestCompileTrigger_MissingWhen(t *testing.T) {
	v := compileString(t, `trigger: bad: { action: "x" }`)

	_, err := CompileTrigger(v.LookupPath(cue.ParsePath("trigger.bad")))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "when", ce.Field)
	assert.Contains(t, err.Error(), "required")
}

func TestCompileTrigger_WhenNotString(t *testing.T) {
	v := compileString(t, `trigger: bad: { when: 3, action: "x" }`)

	_, err := CompileTrigger(v.LookupPath(cue.ParsePath("trigger.bad")))
	assert.Error(t, err)
}

func TestCompileTrigger_MissingAction(t *testing.T) {
	v := compileString(t, `trigger: quiet: { when: "true" }`)

	spec, err := CompileTrigger(v.LookupPath(cue.ParsePath("trigger.quiet")))
	require.NoError(t, err)
	assert.Nil(t, spec.Action)
}

func TestCompileTrigger_NullAction(t *testing.T) {
	v := compileString(t, `trigger: n: { when: "true", action: null }`)

	spec, err := CompileTrigger(v.LookupPath(cue.ParsePath("trigger.n")))
	require.NoError(t, err)
	assert.Equal(t, ir.IRNull{}, spec.Action)
}

func TestCompileTrigger_IncompleteAction(t *testing.T) {
	v := compileString(t, `trigger: t: { when: "true", action: string }`)

	_, err := CompileTrigger(v.LookupPath(cue.ParsePath("trigger.t")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concrete")
}

func TestCompileTrigger_QuantifierMissingKind(t *testing.T) {
	v := compileString(t, `trigger: q: {
		when: "exists(x)"
		action: 1
		quantifiers: [{binding: "x", mappings: ["a"]}]
	}`)

	_, err := CompileTrigger(v.LookupPath(cue.ParsePath("trigger.q")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind")
}

func TestCompileComparers_NonString(t *testing.T) {
	v := compileString(t, `comparers: score: 1`)

	_, err := CompileComparers(v.LookupPath(cue.ParsePath("comparers")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comparers.score")
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "when", Message: "when is required"}
	assert.Equal(t, "when: when is required", err.Error())
}
