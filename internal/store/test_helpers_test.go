package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/triggertree/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates an event with an empty payload.
func createTestEvent(kind ir.EventKind, triggerID string, seq int64) ir.Event {
	return ir.Event{
		Seq:       seq,
		Kind:      kind,
		TriggerID: triggerID,
		Payload:   ir.IRObject{},
	}
}

func mustWrite(t *testing.T, s *Store, ev ir.Event) int64 {
	t.Helper()
	id, _, err := s.WriteEvent(t.Context(), ev)
	if err != nil {
		t.Fatalf("WriteEvent(seq=%d) failed: %v", ev.Seq, err)
	}
	return id
}
