// Package store provides a SQLite-backed event log for trigger trees.
//
// The log is an audit trail, not tree persistence: a tree is rebuilt from
// its trigger set, and the log records what happened to it.
//
//   - add / remove: a trigger handle entered or left the tree
//   - match: a frame was matched; payload lists the returned triggers
//   - verify: a structural check ran; payload carries any violation
//
// # Ordering
//
// Every event carries a logical seq, unique within the log. Reads order by
// seq ASC, id ASC so replays of the same scenario produce identical output.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Payloads are stored as RFC 8785 canonical JSON (see ir.MarshalCanonical).
package store
