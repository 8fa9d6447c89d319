package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/triggertree/internal/compiler"
	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/logging"
	"github.com/roach88/triggertree/internal/store"
	"github.com/roach88/triggertree/internal/testutil"
	"github.com/roach88/triggertree/internal/triggertree"
)

// Options tune a scenario run. The zero value runs against a fresh
// in-memory store with logs discarded.
type Options struct {
	// Store receives the event log. If nil, a fresh in-memory store is
	// opened and closed by the run.
	Store *store.Store

	Logger *slog.Logger

	// Hooks are installed on the tree next to the harness's own.
	Hooks triggertree.Hooks
}

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and trigger IDs.
type Harness struct {
	store     *store.Store
	tree      *triggertree.Tree
	installed *compiler.Installed
	clock     *testutil.DeterministicClock
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, Options{})
}

// RunContext executes a test scenario.
//
// Execution flow:
// 1. Compile the spec file and inline triggers into one trigger set
// 2. Install the set on a fresh tree, logging an add event per trigger
// 3. Execute steps, checking match expectations
// 4. Evaluate assertions against the trace and the store
func RunContext(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	st := opts.Store
	if st == nil {
		var err error
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	set, err := buildTriggerSet(scenario)
	if err != nil {
		return nil, err
	}
	if errs := compiler.Validate(set); len(errs) > 0 {
		return nil, fmt.Errorf("invalid trigger set: %w", errs[0])
	}

	// Continue an existing log rather than colliding with its seqs.
	start, err := st.MaxSeq(ctx)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		logger: logger,
	}
	h.clock.Advance(start)
	h.tree = triggertree.New(
		triggertree.WithLogger(logger),
		triggertree.WithIDGenerator(testutil.NewSequenceIDs("trigger")),
		triggertree.WithHooks(opts.Hooks),
	)

	result := NewResult()
	result.StartSeq = start

	h.installed, err = compiler.Install(h.tree, &ir.TriggerSet{Comparers: set.Comparers})
	if err != nil {
		return nil, err
	}
	for i := range set.Triggers {
		if err := h.add(ctx, &set.Triggers[i], result); err != nil {
			return nil, err
		}
	}

	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}
	result.TotalTriggers = h.tree.TotalTriggers()

	actx := &AssertionContext{
		Store:   st,
		Ctx:     ctx,
		Tree:    h.tree,
		FromSeq: start,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// buildTriggerSet compiles the scenario's spec file, if any, and appends
// its inline triggers and comparers.
func buildTriggerSet(scenario *Scenario) (*ir.TriggerSet, error) {
	set := &ir.TriggerSet{}
	if scenario.Spec != "" {
		data, err := os.ReadFile(scenario.Spec)
		if err != nil {
			return nil, fmt.Errorf("failed to read spec: %w", err)
		}
		v := cuecontext.New().CompileBytes(data, cue.Filename(scenario.Spec))
		if set, err = compiler.CompileTriggerSet(v); err != nil {
			return nil, fmt.Errorf("failed to compile spec: %w", err)
		}
	}

	if len(scenario.Comparers) > 0 && set.Comparers == nil {
		set.Comparers = make(map[string]string, len(scenario.Comparers))
	}
	for prop, name := range scenario.Comparers {
		set.Comparers[prop] = name
	}

	for i, def := range scenario.Triggers {
		spec, err := def.toSpec()
		if err != nil {
			return nil, fmt.Errorf("triggers[%d]: %w", i, err)
		}
		set.Triggers = append(set.Triggers, *spec)
	}
	return set, nil
}

func (d *TriggerDef) toSpec() (*ir.TriggerSpec, error) {
	spec := &ir.TriggerSpec{ID: d.ID, When: d.When}
	if d.Action != nil {
		action, err := ir.FromGo(d.Action)
		if err != nil {
			return nil, fmt.Errorf("action: %w", err)
		}
		spec.Action = action
	}
	for _, q := range d.Quantifiers {
		spec.Quantifiers = append(spec.Quantifiers, ir.QuantifierSpec{
			Binding:  q.Binding,
			Kind:     q.Kind,
			Mappings: q.Mappings,
		})
	}
	return spec, nil
}

// executeSteps runs all steps in order. A failing expectation marks the
// result failed; a failing store write aborts the run.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		var err error
		switch step.Op() {
		case StepMatch:
			err = h.match(ctx, i, step, result)
		case StepAdd:
			var spec *ir.TriggerSpec
			if spec, err = step.Add.toSpec(); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			if errs := compiler.ValidateTrigger(spec); len(errs) > 0 {
				result.AddError(fmt.Sprintf("step %d: %s", i, errs[0].Error()))
				continue
			}
			err = h.add(ctx, spec, result)
		case StepRemove:
			err = h.remove(ctx, i, step.Remove, result)
		case StepVerify:
			err = h.verify(ctx, i, result)
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (h *Harness) add(ctx context.Context, spec *ir.TriggerSpec, result *Result) error {
	if _, err := h.installed.Add(h.tree, spec); err != nil {
		result.AddError(err.Error())
		return nil
	}

	payload := ir.IRObject{"when": ir.IRString(spec.When)}
	if spec.Action != nil {
		payload["action"] = spec.Action
	}
	ev := TraceEvent{Kind: StepAdd, TriggerID: spec.ID}
	return h.record(ctx, ev, "", payload, result)
}

func (h *Harness) remove(ctx context.Context, step int, id string, result *Result) error {
	if !h.installed.Remove(h.tree, id) {
		result.AddError(fmt.Sprintf("step %d: no live trigger %q to remove", step, id))
		return nil
	}
	ev := TraceEvent{Kind: StepRemove, TriggerID: id}
	return h.record(ctx, ev, "", ir.IRObject{}, result)
}

func (h *Harness) match(ctx context.Context, step int, s Step, result *Result) error {
	frame, err := ir.FromGo(s.Match)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	obj := frame.(ir.IRObject)

	report := h.tree.MatchDetailed(obj)
	ids := make([]string, 0, len(report.Matches))
	for _, m := range report.Matches {
		if spec := h.installed.Spec(m); spec != nil {
			ids = append(ids, spec.ID)
		}
	}

	if s.Expect != nil && !slices.Equal(s.Expect, ids) {
		result.AddError(fmt.Sprintf("step %d: match returned %v, expected %v", step, ids, s.Expect))
	}

	hash, err := ir.FrameHash(obj)
	if err != nil {
		return err
	}
	matched := make(ir.IRArray, len(ids))
	for i, id := range ids {
		matched[i] = ir.IRString(id)
	}
	payload := ir.IRObject{
		"matches":    matched,
		"candidates": ir.IRInt(report.Candidates),
		"failures":   ir.IRInt(len(report.Failures)),
	}
	ev := TraceEvent{Kind: StepMatch, Frame: obj, Matches: ids}
	return h.record(ctx, ev, hash, payload, result)
}

func (h *Harness) verify(ctx context.Context, step int, result *Result) error {
	ev := TraceEvent{Kind: StepVerify}
	payload := ir.IRObject{"nodes": ir.IRInt(h.tree.NodeCount())}
	if v := h.tree.VerifyTree(); v != nil {
		ev.Error = v.Error()
		payload["violation"] = ir.IRString(v.Error())
		result.AddError(fmt.Sprintf("step %d: %s", step, v.Error()))
	}
	return h.record(ctx, ev, "", payload, result)
}

// record stamps ev with the next seq, writes it to the store, and appends
// it to the trace. clock.Next() is called exactly once per event.
func (h *Harness) record(ctx context.Context, ev TraceEvent, frameHash string, payload ir.IRObject, result *Result) error {
	ev.Seq = h.clock.Next()
	_, _, err := h.store.WriteEvent(ctx, ir.Event{
		Seq:       ev.Seq,
		Kind:      ir.EventKind(ev.Kind),
		TriggerID: ev.TriggerID,
		FrameHash: frameHash,
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to write %s event: %w", ev.Kind, err)
	}
	result.AddTrace(ev)

	h.logger.Debug("scenario event",
		"kind", ev.Kind,
		"seq", ev.Seq,
		"trigger_id", ev.TriggerID,
		"matches", len(ev.Matches),
	)
	return nil
}
