package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDs generates predictable trigger IDs: "<prefix>-0001",
// "<prefix>-0002", and so on. Golden traces stay byte-identical across
// runs because no random or time-based IDs leak into them.
//
// SequenceIDs satisfies triggertree.IDGenerator.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDs creates a generator. An empty prefix defaults to "trigger".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "trigger"
	}
	return &SequenceIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
