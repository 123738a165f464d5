// Package reconcile merges externally-reported execution state into the
// locally-held task snapshot on read. The result backend is the source
// of truth for a task that may have completed without the store having
// heard about it yet.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/naskhq/nask/internal/broker"
	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/store"
)

// ErrBackendInconsistent is returned when the result backend has no
// record for a task the store knows about. This is a fault between
// subsystems, surfaced as a 500, unlike store.ErrTaskNotFound which is a
// client-visible 404.
var ErrBackendInconsistent = errors.New("result backend inconsistent with task store")

// Reconciler produces up-to-date snapshots for read requests.
type Reconciler struct {
	taskStore store.TaskStore
	backend   broker.Backend
	logger    *slog.Logger
}

// New creates a Reconciler.
func New(taskStore store.TaskStore, backend broker.Backend, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		taskStore: taskStore,
		backend:   backend,
		logger:    logger.With("component", "reconciler"),
	}
}

// Reconcile returns the freshest snapshot for id. A locally-terminal
// task is returned as-is without touching the backend: terminal states
// are immutable, so repeated reads stay byte-identical and can never be
// demoted. For a non-terminal task the backend state is merged in and
// persisted, so a later read through this reconciler never observes an
// earlier lifecycle state than this one returned.
func (r *Reconciler) Reconcile(ctx context.Context, id domain.TaskID) (*domain.Task, error) {
	task, err := r.taskStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if task.Status.IsTerminal() {
		return task, nil
	}

	res, err := r.backend.Result(ctx, id)
	if err != nil {
		if errors.Is(err, broker.ErrNoRecord) {
			// A PENDING task has not reached a worker yet, so the backend
			// legitimately knows nothing about it. Once the task is
			// STARTED a missing backend record means the record was lost.
			if task.Status == domain.TaskStatusPending {
				return task, nil
			}
			r.logger.Error("task known locally but absent from result backend",
				"task_id", id,
				"local_status", task.Status)
			return nil, fmt.Errorf("%w: task %s", ErrBackendInconsistent, id)
		}
		return nil, fmt.Errorf("failed to query result backend for task %s: %w", id, err)
	}

	if res.Status == task.Status {
		return task, nil
	}

	updated, err := r.taskStore.Update(ctx, id, func(t *domain.Task) error {
		return t.ApplyReported(res.Status, res.Result)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist reconciled state for task %s: %w", id, err)
	}
	return updated, nil
}
