package harness

// TraceEvent is one logged tree operation.
type TraceEvent struct {
	Kind      string   `json:"kind"` // "add", "remove", "match", or "verify"
	Seq       int64    `json:"seq"`
	TriggerID string   `json:"trigger_id,omitempty"`
	Frame     any      `json:"frame,omitempty"`
	Matches   []string `json:"matches,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains all tree operations in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// TotalTriggers is the tree's trigger count after the last step.
	TotalTriggers int `json:"total_triggers"`

	// StartSeq is the event log's last seq before the run. Trace seqs
	// continue after it.
	StartSeq int64 `json:"start_seq,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
