// Package broker defines the contracts for the distributed work queue
// and the result backend that the executor pool and status reconciler
// share. Both are external collaborators from the registry's point of
// view; this package pins down the minimal surface the rest of the
// system is allowed to depend on.
package broker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/naskhq/nask/internal/domain"
)

// Common broker and backend errors.
var (
	// ErrUnavailable is returned when the broker cannot accept a
	// submission. The dispatcher surfaces this as a 5xx after bounded
	// retries rather than silently dropping the task.
	ErrUnavailable = errors.New("broker unavailable")

	// ErrNoRecord is returned by a result backend that has no knowledge
	// of the task id at all, for example after the worker subsystem
	// purged old records. Distinct from store.ErrTaskNotFound: the former
	// is a cross-subsystem inconsistency, the latter a client-visible
	// absence.
	ErrNoRecord = errors.New("result backend has no record")
)

// Job is the unit handed to the work queue: which executor to run, with
// what input, correlated by task id across the registry, the queue, and
// the result backend.
type Job struct {
	TaskID  domain.TaskID   `json:"task_id"`
	Type    domain.TaskType `json:"type"`
	Payload domain.Payload  `json:"payload"`
}

// Broker accepts jobs for asynchronous execution and delivers them to
// workers.
type Broker interface {
	// Enqueue submits a job. Returns ErrUnavailable (possibly wrapped)
	// when the queue cannot accept it.
	Enqueue(ctx context.Context, job Job) error

	// Jobs returns the read side of the queue consumed by workers.
	Jobs() <-chan Job

	// Close stops delivery. After Close, Enqueue returns ErrUnavailable.
	Close() error
}

// ExecResult is the externally-reported execution state for a task.
type ExecResult struct {
	Status domain.TaskStatus `json:"status"`
	Result json.RawMessage   `json:"result,omitempty"`
}

// Backend is the store, shared with the workers, holding authoritative
// execution status and result per task id. Workers write to it at the
// end of their own execution; the status reconciler polls it on read.
type Backend interface {
	// Set records the execution state for id, overwriting any previous
	// record.
	Set(ctx context.Context, id domain.TaskID, res ExecResult) error

	// Result returns the recorded state for id, or ErrNoRecord.
	Result(ctx context.Context, id domain.TaskID) (ExecResult, error)
}
