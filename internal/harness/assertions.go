package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/store"
	"github.com/roach88/triggertree/internal/triggertree"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Kind)
			if event.TriggerID != "" {
				fmt.Fprintf(&buf, " %s", event.TriggerID)
			}
			if event.Kind == StepMatch {
				fmt.Fprintf(&buf, " -> %v", event.Matches)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// assertTotalTriggers checks the final tree's trigger count.
func assertTotalTriggers(tree *triggertree.Tree, trace []TraceEvent, assertion Assertion) error {
	if got := tree.TotalTriggers(); got != assertion.Count {
		return &AssertionError{
			Type:     AssertTotalTriggers,
			Expected: fmt.Sprintf("%d triggers", assertion.Count),
			Actual:   fmt.Sprintf("%d triggers", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks that the event log holds exactly Count events of
// Kind written by this run.
func assertTraceCount(actx *AssertionContext, trace []TraceEvent, assertion Assertion) error {
	events, err := actx.Store.ReadEvents(actx.Ctx, store.EventFilter{
		Kind:     ir.EventKind(assertion.Kind),
		AfterSeq: actx.FromSeq,
	})
	if err != nil {
		return fmt.Errorf("trace_count: %w", err)
	}

	if len(events) != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s events", assertion.Count, assertion.Kind),
			Actual:   fmt.Sprintf("%d events", len(events)),
			Trace:    trace,
		}
	}
	return nil
}

// assertMatches checks that Trigger was returned by at least one match
// step.
func assertMatches(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Kind == StepMatch && slices.Contains(event.Matches, assertion.Trigger) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertMatches,
		Expected: fmt.Sprintf("trigger %s in a match result", assertion.Trigger),
		Actual:   "never returned",
		Trace:    trace,
	}
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
	Tree  *triggertree.Tree

	// FromSeq excludes events logged before the run.
	FromSeq int64
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTotalTriggers:
			if actx == nil || actx.Tree == nil {
				err = fmt.Errorf("assertion[%d]: total_triggers requires the tree", i)
			} else {
				err = assertTotalTriggers(actx.Tree, result.Trace, assertion)
			}
		case AssertTraceCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: trace_count requires database context", i)
			} else {
				err = assertTraceCount(actx, result.Trace, assertion)
			}
		case AssertMatches:
			err = assertMatches(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
