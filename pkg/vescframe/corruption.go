package vescframe

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// CorruptionCounter deduplicates repeated-corruption log spam: instead of
// logging every rejected byte run, it counts occurrences keyed by an
// xxhash of the garbage itself, so a flaky line producing the same noise
// pattern doesn't flood a log. Unframe itself never looks at this type;
// pkg/vesc.Session owns one and calls Note whenever Unframe reports
// skipped garbage bytes on its resync path.
type CorruptionCounter struct {
	mu     sync.Mutex
	counts map[uint64]int
}

// NewCorruptionCounter returns an empty counter.
func NewCorruptionCounter() *CorruptionCounter {
	return &CorruptionCounter{counts: make(map[uint64]int)}
}

// Note records one occurrence of the given garbage byte run and returns
// the running count for that exact byte pattern.
func (c *CorruptionCounter) Note(garbage []byte) int {
	key := xxhash.Sum64(garbage)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key]
}

// Len returns the number of distinct garbage patterns seen so far.
func (c *CorruptionCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}
