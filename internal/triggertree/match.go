package triggertree

import (
	"sort"

	"github.com/roach88/triggertree/internal/expr"
)

// Match is one trigger that holds for a frame, with the clause that held.
type Match struct {
	Action  any
	Clause  *Clause
	Trigger *Trigger
}

// EvalFailure records a clause that could not be evaluated during a match.
// The clause counted as false.
type EvalFailure struct {
	Node   NodeID
	Clause *Clause
	Err    error
}

// MatchReport is the detailed result of MatchDetailed.
type MatchReport struct {
	Matches  []Match
	Failures []EvalFailure

	// Candidates is the number of clauses that held before the
	// most-specific filter ran.
	Candidates int
}

// Matches returns the most specific triggers that hold for frame: every
// trigger with a clause that holds and is not a strict generalization of
// another holding clause. Each trigger appears at most once; results are
// ordered by trigger insertion order.
func (t *Tree) Matches(frame expr.Frame) []Match {
	return t.MatchDetailed(frame).Matches
}

// MatchDetailed is Matches plus the evaluation failures met on the way.
// A failing clause counts as false and prunes its node's subtree; matching
// continues elsewhere.
func (t *Tree) MatchDetailed(frame expr.Frame) MatchReport {
	var report MatchReport
	candidates := t.collect(RootID, frame, nil, &report)
	report.Candidates = len(candidates)
	report.Matches = t.mostSpecific(candidates)

	for _, f := range report.Failures {
		t.logger.Warn("clause evaluation failed",
			"node", f.Node,
			"clause", f.Clause.String(),
			"err", f.Err,
		)
		if t.hooks.OnEvalError != nil {
			t.hooks.OnEvalError(f.Clause, f.Err)
		}
	}
	if t.hooks.OnMatch != nil {
		t.hooks.OnMatch(frame, report.Matches)
	}
	return report
}

// collect walks the subtree at id depth first. The node's gate has
// already passed (the root has none).
func (t *Tree) collect(id NodeID, frame expr.Frame, out []Match, report *MatchReport) []Match {
	n := t.nodes[id]
	for _, e := range n.entries {
		ok, err := e.clause.Matches(frame)
		if err != nil {
			report.Failures = append(report.Failures, EvalFailure{Node: id, Clause: e.clause, Err: err})
			continue
		}
		if ok {
			out = append(out, Match{Action: e.trigger.Action, Clause: e.clause, Trigger: e.trigger})
		}
	}

	for _, childID := range n.children {
		child := t.nodes[childID]
		ok, err := child.clause.gate(frame)
		if err != nil {
			report.Failures = append(report.Failures, EvalFailure{Node: childID, Clause: child.clause, Err: err})
			continue
		}
		if ok {
			out = t.collect(childID, frame, out, report)
		}
	}
	return out
}

// mostSpecific drops every candidate whose clause generalizes another
// candidate's clause, keeps the first surviving clause per trigger, and
// orders the result by trigger insertion.
func (t *Tree) mostSpecific(candidates []Match) []Match {
	survivors := make([]Match, 0, len(candidates))
	for i, a := range candidates {
		general := false
		for j, b := range candidates {
			if i == j || a.Trigger == b.Trigger && a.Clause == b.Clause {
				continue
			}
			if a.Clause.Relationship(b.Clause, t.comparers) == Generalizes {
				general = true
				break
			}
		}
		if !general {
			survivors = append(survivors, a)
		}
	}

	seen := make(map[*Trigger]bool, len(survivors))
	result := survivors[:0]
	for _, m := range survivors {
		if seen[m.Trigger] {
			continue
		}
		seen[m.Trigger] = true
		result = append(result, m)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Trigger.seq < result[j].Trigger.seq
	})
	return result
}
