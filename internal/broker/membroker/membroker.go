// Package membroker provides in-process implementations of the broker
// and result backend, backed by a buffered channel and a mutex-guarded
// map. The default for single-binary deployments and tests; swap in the
// Redis implementations to run workers in separate processes.
package membroker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/naskhq/nask/internal/broker"
	"github.com/naskhq/nask/internal/domain"
)

// Broker is a buffered-channel work queue satisfying broker.Broker.
type Broker struct {
	jobs   chan broker.Job
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

var _ broker.Broker = (*Broker)(nil)

// NewBroker creates a queue with the given buffer size.
func NewBroker(size int, logger *slog.Logger) *Broker {
	return &Broker{
		jobs:   make(chan broker.Job, size),
		logger: logger.With("component", "membroker"),
	}
}

// Enqueue adds a job to the queue. Returns ErrUnavailable when the
// queue is closed or full; the dispatcher decides whether to retry.
func (b *Broker) Enqueue(_ context.Context, job broker.Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("%w: queue closed", broker.ErrUnavailable)
	}

	select {
	case b.jobs <- job:
		b.logger.Debug("job enqueued",
			"task_id", job.TaskID,
			"task_type", job.Type,
			"queue_len", len(b.jobs),
			"queue_cap", cap(b.jobs))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", broker.ErrUnavailable, cap(b.jobs))
	}
}

// Jobs returns the read side consumed by workers.
func (b *Broker) Jobs() <-chan broker.Job {
	return b.jobs
}

// Close closes the queue, preventing further submission.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.jobs)
		b.logger.Info("job queue closed")
	}
	return nil
}

// Backend is an in-memory result backend satisfying broker.Backend.
type Backend struct {
	mu      sync.RWMutex
	results map[domain.TaskID]broker.ExecResult
}

var _ broker.Backend = (*Backend)(nil)

// NewBackend creates an empty result backend.
func NewBackend() *Backend {
	return &Backend{
		results: make(map[domain.TaskID]broker.ExecResult),
	}
}

// Set records the execution state for id.
func (b *Backend) Set(_ context.Context, id domain.TaskID, res broker.ExecResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[id] = res
	return nil
}

// Result returns the recorded state for id, or ErrNoRecord.
func (b *Backend) Result(_ context.Context, id domain.TaskID) (broker.ExecResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	res, ok := b.results[id]
	if !ok {
		return broker.ExecResult{}, broker.ErrNoRecord
	}
	return res, nil
}

// Forget drops the record for id. Mirrors the external worker subsystem
// purging old results; only exercised by tests.
func (b *Backend) Forget(id domain.TaskID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.results, id)
}
