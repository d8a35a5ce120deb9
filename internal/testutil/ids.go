package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// SequentialIDs hands out identifiers 00000000-0000-0000-0000-000000000001,
// ...-000000000002 and so on.
//
// This enables deterministic test execution and golden file comparison: the
// same test building the same tree produces byte-identical sofer output.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu   sync.Mutex
	next uint64
}

// NewSequentialIDs creates a source whose first identifier ends in start.
// A start of 0 is bumped to 1 so the nil identifier is never produced.
func NewSequentialIDs(start uint64) *SequentialIDs {
	if start == 0 {
		start = 1
	}
	return &SequentialIDs{next: start}
}

// NewID returns the next identifier in sequence.
func (s *SequentialIDs) NewID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ID(s.next)
	s.next++
	return id
}

// ID builds the identifier whose low 64 bits hold n.
//
// Example: ID(2) is 00000000-0000-0000-0000-000000000002.
func ID(n uint64) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], n)
	return id
}

// FixedIDs returns predetermined identifiers in order.
//
// Panics once all identifiers have been consumed. This is a fail-fast
// approach to catch test misconfiguration (the test created more nodes than
// it declared).
type FixedIDs struct {
	mu  sync.Mutex
	ids []uuid.UUID
	idx int
}

// NewFixedIDs creates a source that returns ids in order.
func NewFixedIDs(ids ...uuid.UUID) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// NewID returns the next predetermined identifier.
func (f *FixedIDs) NewID() uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx >= len(f.ids) {
		panic("FixedIDs: all identifiers exhausted")
	}
	id := f.ids[f.idx]
	f.idx++
	return id
}
