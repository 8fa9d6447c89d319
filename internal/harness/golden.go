package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/triggertree/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName  string       `json:"scenario_name"`
	TotalTriggers int          `json:"total_triggers"`
	Trace         []TraceEvent `json:"trace"`

	// StartSeq is subtracted from every seq so a run appended to a
	// non-empty event log snapshots like a fresh one.
	StartSeq int64 `json:"-"`
}

// toCanonical converts a TraceSnapshot to an IR object for canonical JSON
// serialization. ir.MarshalCanonical only handles IR types and primitives.
func (s *TraceSnapshot) toCanonical() (ir.IRObject, error) {
	trace := make(ir.IRArray, len(s.Trace))
	for i, event := range s.Trace {
		obj := ir.IRObject{
			"kind": ir.IRString(event.Kind),
			"seq":  ir.IRInt(event.Seq - s.StartSeq),
		}
		if event.TriggerID != "" {
			obj["trigger_id"] = ir.IRString(event.TriggerID)
		}
		if event.Frame != nil {
			frame, err := ir.FromGo(event.Frame)
			if err != nil {
				return nil, err
			}
			obj["frame"] = frame
		}
		if event.Kind == StepMatch {
			matches := make(ir.IRArray, len(event.Matches))
			for j, id := range event.Matches {
				matches[j] = ir.IRString(id)
			}
			obj["matches"] = matches
		}
		if event.Error != "" {
			obj["error"] = ir.IRString(event.Error)
		}
		trace[i] = obj
	}

	return ir.IRObject{
		"scenario_name":  ir.IRString(s.ScenarioName),
		"total_triggers": ir.IRInt(s.TotalTriggers),
		"trace":          trace,
	}, nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}

// SnapshotJSON renders a result's trace as canonical JSON, the format of
// the golden files.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName:  scenarioName,
		TotalTriggers: result.TotalTriggers,
		Trace:         result.Trace,
		StartSeq:      result.StartSeq,
	}
	obj, err := snapshot.toCanonical()
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(obj)
}
