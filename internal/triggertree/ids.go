package triggertree

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator assigns trigger IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 trigger IDs.
// It is the default generator.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// clock is the logical clock that stamps trigger insertion order.
type clock struct {
	seq atomic.Int64
}

// next returns the next sequence number, starting at 1.
func (c *clock) next() int64 {
	return c.seq.Add(1)
}
