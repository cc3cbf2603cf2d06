package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs returns run IDs of the form "<prefix>-0001", "<prefix>-0002", ...
//
// Reports created with it get stable IDs, which keeps stored history and
// golden output byte-identical across test runs. It satisfies the
// harness.RunIDGenerator interface.
type SequentialRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRunIDs creates a generator. An empty prefix becomes "run".
func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialRunIDs{prefix: prefix}
}

// Generate returns the next ID in the sequence.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
