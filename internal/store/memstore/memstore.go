// Package memstore implements a thread-safe, in-memory task store.
//
// Tasks live in a map for O(1) lookup with a separate slice preserving
// insertion order for stable iteration in List. State is ephemeral and
// lives only for the duration of the server process.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/store"
)

// Store holds all tasks in memory, protected by a mutex. A single lock is
// enough here: operations are copy-in/copy-out and hold the lock only for
// map access, so contention stays low even with many concurrent requests.
type Store struct {
	mu    sync.RWMutex
	tasks map[domain.TaskID]*domain.Task
	order []domain.TaskID
}

var _ store.TaskStore = (*Store)(nil)

// New creates an empty in-memory task store.
func New() *Store {
	return &Store{
		tasks: make(map[domain.TaskID]*domain.Task),
	}
}

// Put persists a snapshot. The store keeps its own clone so later caller
// mutations cannot leak in.
func (s *Store) Put(_ context.Context, task *domain.Task) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", store.ErrUpdateFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		s.order = append(s.order, task.ID)
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get returns a copy of the snapshot for id, or ErrTaskNotFound.
func (s *Store) Get(_ context.Context, id domain.TaskID) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// List returns copies of all snapshots in insertion order.
func (s *Store) List(_ context.Context) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*domain.Task, 0, len(s.order))
	for _, id := range s.order {
		tasks = append(tasks, s.tasks[id].Clone())
	}
	return tasks, nil
}

// Update applies mutate under the write lock. The mutator operates on a
// clone; the stored snapshot is only replaced if the mutator succeeds, so
// a failed update leaves the previous state intact.
func (s *Store) Update(_ context.Context, id domain.TaskID, mutate store.Mutator) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	updated := task.Clone()
	if err := mutate(updated); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUpdateFailed, err)
	}

	s.tasks[id] = updated
	return updated.Clone(), nil
}
