package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/triggertree/internal/expr"
	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/store"
	"github.com/roach88/triggertree/internal/triggertree"
)

func inlineScenario(steps []Step, assertions ...Assertion) *Scenario {
	if len(assertions) == 0 {
		assertions = []Assertion{{Type: AssertTotalTriggers, Count: 2}}
	}
	return &Scenario{
		Name:        "inline",
		Description: "inline test scenario",
		Triggers: []TriggerDef{
			{ID: "any", When: "exists(a)", Action: "any"},
			{ID: "big", When: "exists(a) && b > 1", Action: "big"},
		},
		Steps:      steps,
		Assertions: assertions,
	}
}

func TestRun_Passing(t *testing.T) {
	result, err := Run(inlineScenario([]Step{
		{Match: map[string]any{"a": 1, "b": 2}, Expect: []string{"big"}},
		{Match: map[string]any{"a": 1}, Expect: []string{"any"}},
		{Verify: true},
	}))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.TotalTriggers)

	kinds := make([]string, len(result.Trace))
	for i, ev := range result.Trace {
		kinds[i] = ev.Kind
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Equal(t, []string{"add", "add", "match", "match", "verify"}, kinds)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	result, err := Run(inlineScenario([]Step{
		{Match: map[string]any{"a": 1, "b": 2}, Expect: []string{"any"}},
	}))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "match returned [big], expected [any]")
}

func TestRun_EmptyExpectMeansNoMatch(t *testing.T) {
	result, err := Run(inlineScenario([]Step{
		{Match: map[string]any{"z": 1}, Expect: []string{}},
	}))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_RemoveUnknown(t *testing.T) {
	result, err := Run(inlineScenario([]Step{{Remove: "missing"}}))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `no live trigger "missing"`)
}

func TestRun_AddStep(t *testing.T) {
	result, err := Run(inlineScenario(
		[]Step{
			{Add: &TriggerDef{ID: "huge", When: "exists(a) && b > 1 && c", Action: "huge"}},
			{Match: map[string]any{"a": 1, "b": 2, "c": true}, Expect: []string{"huge"}},
			{Add: &TriggerDef{ID: "broken", When: "b >", Action: "x"}},
			{Add: &TriggerDef{ID: "big", When: "exists(q)", Action: "dup"}},
		},
		Assertion{Type: AssertTotalTriggers, Count: 3},
		Assertion{Type: AssertTraceCount, Kind: StepAdd, Count: 3},
	))
	require.NoError(t, err)

	// The unparsable and duplicate adds fail; the rest of the run holds.
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "E121")
	assert.Contains(t, result.Errors[1], "already installed")
}

func TestRun_InvalidTriggerSet(t *testing.T) {
	scenario := inlineScenario([]Step{{Verify: true}})
	scenario.Triggers = append(scenario.Triggers, TriggerDef{ID: "any", When: "exists(b)", Action: "again"})

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E127")
}

func TestRun_UnknownComparer(t *testing.T) {
	scenario := inlineScenario([]Step{{Verify: true}})
	scenario.Comparers = map[string]string{"b": "fuzzy"}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E125")
}

func TestRunContext_ContinuesExistingLog(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	scenario := inlineScenario(
		[]Step{{Match: map[string]any{"a": 1}}},
		Assertion{Type: AssertTraceCount, Kind: StepMatch, Count: 1},
	)

	for run := range 2 {
		result, err := RunContext(ctx, scenario, Options{Store: st})
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d errors: %v", run, result.Errors)
		assert.Equal(t, int64(run*3+1), result.Trace[0].Seq)
	}

	n, err := st.CountEvents(ctx, ir.EventMatch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err := st.ReadEvents(ctx, store.EventFilter{Kind: ir.EventMatch, Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].FrameHash)
	assert.True(t, ir.Equal(ir.IRArray{ir.IRString("any")}, events[0].Payload["matches"]))
}

func TestRunContext_Hooks(t *testing.T) {
	var added, matched int
	_, err := RunContext(context.Background(), inlineScenario([]Step{
		{Match: map[string]any{"a": 1}},
	}), Options{Hooks: triggertree.Hooks{
		OnAdd:   func(*triggertree.Trigger) { added++ },
		OnMatch: func(expr.Frame, []triggertree.Match) { matched++ },
	}})
	require.NoError(t, err)

	assert.Equal(t, 2, added)
	assert.Equal(t, 1, matched)
}
