package ir

// NOTE: These are store-internal types. They use auto-increment IDs and
// logical sequence numbers, never wall-clock timestamps.

// EventKind names a recorded tree operation.
type EventKind string

const (
	EventAdd    EventKind = "add"
	EventRemove EventKind = "remove"
	EventMatch  EventKind = "match"
	EventVerify EventKind = "verify"
)

// Event is one row of the tree's append-only event log.
type Event struct {
	ID        int64     `json:"id"`  // Auto-increment
	Seq       int64     `json:"seq"` // Logical clock
	Kind      EventKind `json:"kind"`
	TriggerID string    `json:"trigger_id,omitempty"`
	FrameHash string    `json:"frame_hash,omitempty"`
	Payload   IRObject  `json:"payload"`
}
