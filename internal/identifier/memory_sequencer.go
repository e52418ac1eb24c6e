package identifier

import (
	"context"
	"sync"
)

// MemorySequencer is a process-local sequencer backed by a mutex. It is used
// in tests and as a fallback when no counter store is configured; numbers are
// only unique within a single process.
type MemorySequencer struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemorySequencer builds an empty in-memory sequencer.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{counters: make(map[string]int64)}
}

// Next atomically increments and returns the counter for key.
func (s *MemorySequencer) Next(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}
