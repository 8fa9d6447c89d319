// Package harness runs trigger tree scenarios as executable tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: greetings
//	description: "More specific greetings win"
//	spec: triggers.cue        # optional CUE trigger file
//	comparers:
//	  score: ordered
//	triggers:
//	  - id: hello
//	    when: exists(text)
//	    action: hello
//	steps:
//	  - match: { text: "hi", intent: "greet" }
//	    expect: [greet]
//	  - remove: greet
//	  - verify: true
//	assertions:
//	  - type: total_triggers
//	    count: 1
//	  - type: trace_count
//	    kind: match
//	    count: 1
//	  - type: matches
//	    trigger: greet
//
// # Assertion Types
//
//   - total_triggers: Verifies the final tree holds exactly N triggers
//   - trace_count: Verifies the event log holds exactly N events of a kind
//   - matches: Verifies a trigger was returned by at least one match step
//
// # Deterministic Testing
//
// The harness uses:
//   - Deterministic logical clock (testutil.DeterministicClock) for event seqs
//   - Sequential trigger IDs (testutil.SequenceIDs)
//   - In-memory SQLite event log (isolated per run) unless Options.Store
//     supplies a shared one; snapshots number seqs from the run's start
//
// This ensures identical traces across runs for golden file comparison.
package harness
