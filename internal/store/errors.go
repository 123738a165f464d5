package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store. Entity-specific errors wrap it so callers can match on
	// either.
	ErrNotFound = errors.New("entity not found")

	// ErrTaskNotFound indicates that the requested task does not exist in
	// the store. The API layer surfaces this as a 404.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrUpdateFailed is returned when a read-modify-write cycle fails,
	// for example because the mutator rejected the change.
	ErrUpdateFailed = errors.New("update failed")

	// ErrDuplicate is returned when inserting a task whose id already
	// exists. The allocator makes this unreachable in practice, so a
	// sighting points at an allocator or wiring bug.
	ErrDuplicate = errors.New("duplicate task id")
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
