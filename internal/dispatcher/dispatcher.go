// Package dispatcher is the public entry point for new work: it
// validates a submission, allocates an identity, writes the initial
// PENDING snapshot, and hands the job to the work queue.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/naskhq/nask/internal/backoff"
	"github.com/naskhq/nask/internal/broker"
	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/executor"
	"github.com/naskhq/nask/internal/identity"
	"github.com/naskhq/nask/internal/store"
)

// Submission is a validated request for new work.
type Submission struct {
	Type      domain.TaskType
	NotifyURL string
	Payload   domain.Payload
}

// Config holds dispatcher tuning.
type Config struct {
	// EnqueueAttempts is the total number of broker submissions tried
	// before giving up. If zero or negative, defaults to 3.
	EnqueueAttempts int

	// Backoff computes the delay between enqueue attempts. If nil, the
	// default strategy is used.
	Backoff backoff.Strategy
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		EnqueueAttempts: 3,
		Backoff:         backoff.Exponential{Initial: 100 * time.Millisecond, Max: time.Second},
	}
}

// Dispatcher validates, registers, and enqueues new tasks.
type Dispatcher struct {
	taskStore store.TaskStore
	queue     broker.Broker
	registry  *executor.Registry
	allocator identity.Allocator
	attempts  int
	retry     backoff.Strategy
	logger    *slog.Logger
}

// New creates a Dispatcher.
func New(
	taskStore store.TaskStore,
	queue broker.Broker,
	registry *executor.Registry,
	allocator identity.Allocator,
	config Config,
	logger *slog.Logger,
) *Dispatcher {
	if config.EnqueueAttempts <= 0 {
		config.EnqueueAttempts = DefaultConfig().EnqueueAttempts
	}
	if config.Backoff == nil {
		config.Backoff = DefaultConfig().Backoff
	}

	return &Dispatcher{
		taskStore: taskStore,
		queue:     queue,
		registry:  registry,
		allocator: allocator,
		attempts:  config.EnqueueAttempts,
		retry:     config.Backoff,
		logger:    logger.With("component", "dispatcher"),
	}
}

// Submit accepts a unit of work. On success the returned snapshot is
// PENDING and the job is on the queue. Validation failures wrap
// domain.ErrValidation or domain.ErrInvalidTaskType (422-class); a
// broker that stays unreachable across the bounded retries yields
// broker.ErrUnavailable (5xx-class) and the snapshot is marked FAILURE
// rather than being left as an orphaned PENDING record.
func (d *Dispatcher) Submit(ctx context.Context, sub Submission) (*domain.Task, error) {
	if err := d.registry.Validate(sub.Type, sub.Payload); err != nil {
		return nil, err
	}

	id := d.allocator.NewID()
	task, err := domain.NewTask(id, sub.Type, sub.Payload, sub.NotifyURL)
	if err != nil {
		return nil, err
	}

	if err := d.taskStore.Put(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist task %s: %w", id, err)
	}

	logger := d.logger.With("task_id", id, "task_type", sub.Type)

	if err := d.enqueue(ctx, broker.Job{TaskID: id, Type: sub.Type, Payload: sub.Payload}, logger); err != nil {
		failed := d.retract(ctx, id, err, logger)
		if failed != nil {
			return failed, fmt.Errorf("task %s not accepted: %w", id, err)
		}
		return nil, fmt.Errorf("task %s not accepted: %w", id, err)
	}

	logger.Info("task submitted")
	return task, nil
}

// enqueue tries the broker up to the configured number of attempts,
// backing off between tries.
func (d *Dispatcher) enqueue(ctx context.Context, job broker.Job, logger *slog.Logger) error {
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		lastErr = d.queue.Enqueue(ctx, job)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, broker.ErrUnavailable) {
			return lastErr
		}

		logger.Warn("broker rejected submission",
			"attempt", attempt,
			"max_attempts", d.attempts,
			"error", lastErr)

		if attempt == d.attempts {
			break
		}
		select {
		case <-time.After(d.retry.Delay(attempt)):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", broker.ErrUnavailable, ctx.Err())
		}
	}
	return lastErr
}

// retract marks the freshly written PENDING record as FAILURE with a
// descriptive result, so a rejected submission is visible in the
// registry instead of lingering as a task that will never run.
func (d *Dispatcher) retract(ctx context.Context, id domain.TaskID, cause error, logger *slog.Logger) *domain.Task {
	failed, err := d.taskStore.Update(ctx, id, func(task *domain.Task) error {
		return task.CompleteFailure(fmt.Sprintf("broker rejected submission: %v", cause))
	})
	if err != nil {
		logger.Error("failed to mark rejected task as FAILURE", "error", err)
		return nil
	}
	logger.Error("task marked FAILURE after broker rejection", "cause", cause)
	return failed
}
