package tree

import "github.com/google/uuid"

// IDSource supplies fresh node identifiers.
//
// Implementations must never return uuid.Nil.
type IDSource interface {
	NewID() uuid.UUID
}

// TimeOrderedIDs generates UUIDv7 identifiers.
//
// UUIDv7 embeds a millisecond timestamp in the most significant bits and the
// google/uuid implementation keeps values monotonic within a process, so
// identifier order follows creation order. The sofer codec orders records and
// siblings by identifier, which keeps authored sibling order across a round
// trip.
//
// Thread-safety: TimeOrderedIDs is stateless and safe for concurrent use.
type TimeOrderedIDs struct{}

// NewID returns a new UUIDv7. Panics if the random source fails.
func (TimeOrderedIDs) NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// RandomIDs generates random (version 4) identifiers.
type RandomIDs struct{}

// NewID returns a new UUIDv4.
func (RandomIDs) NewID() uuid.UUID {
	return uuid.New()
}
