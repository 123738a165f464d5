// Package identity produces unique, immutable task identifiers.
package identity

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/naskhq/nask/internal/domain"
)

// Allocator hands out task identifiers. Identifiers are never reused,
// even after a task is gone.
type Allocator interface {
	// NewID returns an identifier that is unique for the lifetime of the
	// deployment.
	NewID() domain.TaskID
}

// UUID allocates random 128-bit identifiers. Collision-resistant without
// coordination, so it is the right choice once multiple dispatcher
// instances share a store.
type UUID struct{}

// NewID returns a fresh UUIDv4 identifier.
func (UUID) NewID() domain.TaskID {
	return domain.TaskID(uuid.NewString())
}

// Sequence allocates monotonically increasing integer identifiers.
// Only safe for single-instance deployments: two processes would hand out
// colliding values. Kept for parity with early iterations of the service
// that used small integer ids.
type Sequence struct {
	next atomic.Uint64
}

// NewID returns the next identifier in the sequence.
func (s *Sequence) NewID() domain.TaskID {
	return domain.TaskID(strconv.FormatUint(s.next.Add(1), 10))
}
