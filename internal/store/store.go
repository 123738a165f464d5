package store

import (
	"context"

	"github.com/naskhq/nask/internal/domain"
)

// Mutator is applied to a task inside Update. It runs with the store's
// write lock held (or inside a database transaction), so concurrent
// updates to the same task never interleave partially. Returning an error
// aborts the update without persisting anything.
type Mutator func(task *domain.Task) error

// TaskStore is the concurrency-safe registry of task snapshots. All
// operations are safe under concurrent access from the dispatcher, the
// worker pool, and read requests.
//
// Implementations hand out copies: mutating a returned *domain.Task has
// no effect on stored state unless the change goes through Update.
type TaskStore interface {
	// Put persists a new task snapshot. Putting an existing ID overwrites
	// the stored snapshot; the dispatcher guarantees fresh IDs so this
	// only happens during ingestion merges.
	Put(ctx context.Context, task *domain.Task) error

	// Get returns the snapshot for id, or ErrTaskNotFound.
	Get(ctx context.Context, id domain.TaskID) (*domain.Task, error)

	// List returns all snapshots in insertion order. Callers must not
	// depend on the ordering being stable across implementations.
	List(ctx context.Context) ([]*domain.Task, error)

	// Update applies mutate to the stored task under the store lock and
	// persists the outcome. Returns ErrTaskNotFound for an absent id and
	// the mutator's error, wrapped in ErrUpdateFailed, if it rejects the
	// change.
	Update(ctx context.Context, id domain.TaskID, mutate Mutator) (*domain.Task, error)
}
