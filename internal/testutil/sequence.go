package testutil

import "sync"

// IDSequence hands out deterministic ontology identifiers for fixtures.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type IDSequence struct {
	mu   sync.Mutex
	next int64
	base int64
}

// NewIDSequence creates a sequence whose first identifier is base.
func NewIDSequence(base int64) *IDSequence {
	return &IDSequence{next: base, base: base}
}

// Next returns the next identifier.
func (s *IDSequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	return id
}

// Reset restarts the sequence at its base.
func (s *IDSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = s.base
}
