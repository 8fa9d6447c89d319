package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/store"
	"github.com/roach88/triggertree/internal/triggertree"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Kind: StepAdd, Seq: 1, TriggerID: "a"},
		{Kind: StepMatch, Seq: 2, Matches: []string{"a"}},
		{Kind: StepRemove, Seq: 3, TriggerID: "a"},
		{Kind: StepMatch, Seq: 4, Matches: []string{}},
	}
}

func TestAssertMatches(t *testing.T) {
	assert.NoError(t, assertMatches(sampleTrace(), Assertion{Type: AssertMatches, Trigger: "a"}))

	err := assertMatches(sampleTrace(), Assertion{Type: AssertMatches, Trigger: "b"})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertMatches, ae.Type)
	assert.Equal(t, "never returned", ae.Actual)
}

func TestAssertTotalTriggers(t *testing.T) {
	tree := triggertree.New()
	_, err := tree.AddTrigger("exists(a)", "a")
	require.NoError(t, err)

	assert.NoError(t, assertTotalTriggers(tree, nil, Assertion{Count: 1}))
	assert.Error(t, assertTotalTriggers(tree, nil, Assertion{Count: 2}))
}

func TestAssertTraceCount(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	for _, ev := range sampleTrace() {
		_, _, err := st.WriteEvent(ctx, ir.Event{Seq: ev.Seq, Kind: ir.EventKind(ev.Kind), TriggerID: ev.TriggerID})
		require.NoError(t, err)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	assert.NoError(t, assertTraceCount(actx, nil, Assertion{Kind: StepMatch, Count: 2}))
	assert.Error(t, assertTraceCount(actx, nil, Assertion{Kind: StepMatch, Count: 1}))

	// Events at or before FromSeq belong to an earlier run.
	actx.FromSeq = 2
	assert.NoError(t, assertTraceCount(actx, nil, Assertion{Kind: StepMatch, Count: 1}))
	assert.NoError(t, assertTraceCount(actx, nil, Assertion{Kind: StepAdd, Count: 0}))
}

func TestEvaluateAssertions_MissingContext(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTotalTriggers, Count: 0},
		{Type: AssertTraceCount, Kind: StepAdd, Count: 1},
		{Type: AssertMatches, Trigger: "a"},
		{Type: "final_state"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "total_triggers requires the tree")
	assert.Contains(t, errs[1], "trace_count requires database context")
	assert.Contains(t, errs[2], `unknown assertion type "final_state"`)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertMatches,
		Expected: "trigger b in a match result",
		Actual:   "never returned",
		Trace:    sampleTrace(),
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: matches")
	assert.Contains(t, msg, "Expected: trigger b in a match result")
	assert.Contains(t, msg, "[1] add a")
	assert.Contains(t, msg, "[2] match -> [a]")
	assert.Contains(t, msg, "[4] match -> []")
}
