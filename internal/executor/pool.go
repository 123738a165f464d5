package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/naskhq/nask/internal/broker"
	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/events"
	"github.com/naskhq/nask/internal/store"
)

// PoolConfig holds configuration for the worker pool.
type PoolConfig struct {
	// WorkerCount determines how many concurrent workers consume jobs.
	// If zero or negative, defaults to 1.
	WorkerCount int
}

// DefaultPoolConfig returns a PoolConfig with reasonable defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{WorkerCount: 2}
}

// Pool manages the worker goroutines that execute tasks. A worker, upon
// finishing, persists the outcome into the result backend it shares with
// the status reconciler, updates the task store, and emits the
// completion event that triggers notification. Workers never wait on
// their own completion status; they report it directly.
type Pool struct {
	taskStore store.TaskStore
	backend   broker.Backend
	registry  *Registry
	jobs      <-chan broker.Job
	emitter   events.Emitter

	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger
}

// NewPool creates a worker pool consuming from jobs.
func NewPool(
	taskStore store.TaskStore,
	backend broker.Backend,
	registry *Registry,
	jobs <-chan broker.Job,
	emitter events.Emitter,
	config PoolConfig,
	logger *slog.Logger,
) *Pool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		taskStore:   taskStore,
		backend:     backend,
		registry:    registry,
		jobs:        jobs,
		emitter:     emitter,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.With("component", "executor_pool"),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started", "worker_count", p.workerCount)
}

// Stop cancels in-flight work and waits for all workers to exit.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker consumes jobs until the pool stops or the job channel closes.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-p.jobs:
			if !ok {
				p.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}
			p.process(job, id)
		}
	}
}

// process handles execution of a single job through to its terminal
// state.
func (p *Pool) process(job broker.Job, workerID int) {
	logger := p.logger.With(
		"task_id", job.TaskID,
		"task_type", job.Type,
		"worker_id", workerID,
	)

	exec, err := p.registry.Lookup(job.Type)
	if err != nil {
		// The dispatcher validates types before enqueueing, so this only
		// happens when another producer pushed an unknown type onto the
		// shared queue.
		logger.Error("no executor registered for job", "error", err)
		p.finish(p.ctx, job.TaskID, failureResult(err.Error()), logger)
		return
	}

	p.markStarted(job.TaskID, logger)
	logger.Info("processing task")

	result, err := p.run(exec.Run, job.Payload)
	if err != nil {
		logger.Error("task execution failed", "error", err)
		p.finish(p.ctx, job.TaskID, failureResult(err.Error()), logger)
		return
	}

	logger.Info("task completed successfully")
	p.finish(p.ctx, job.TaskID, broker.ExecResult{Status: domain.TaskStatusSuccess, Result: result}, logger)
}

// run invokes the executor, converting a panic into an ordinary error so
// one bad payload cannot take a worker down.
func (p *Pool) run(fn Func, payload domain.Payload) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panicked: %v", r)
		}
	}()
	return fn(p.ctx, payload)
}

// markStarted records the STARTED transition in both the result backend
// and the local store. Failures are logged but do not stop execution:
// STARTED is a progress signal, not a correctness requirement.
func (p *Pool) markStarted(id domain.TaskID, logger *slog.Logger) {
	if err := p.backend.Set(p.ctx, id, broker.ExecResult{Status: domain.TaskStatusStarted}); err != nil {
		logger.Error("failed to record STARTED in result backend", "error", err)
	}
	if _, err := p.taskStore.Update(p.ctx, id, func(task *domain.Task) error {
		return task.Transition(domain.TaskStatusStarted)
	}); err != nil {
		logger.Error("failed to update task status to STARTED", "error", err)
	}
}

// finish persists the terminal outcome: result backend first (the source
// of truth the reconciler polls), then the local snapshot, then the
// completion event that triggers notification. The event is emitted even
// if the store update fails, so the caller's endpoint still hears about
// the completed work.
func (p *Pool) finish(ctx context.Context, id domain.TaskID, res broker.ExecResult, logger *slog.Logger) {
	if err := p.backend.Set(ctx, id, res); err != nil {
		logger.Error("failed to persist result to backend", "error", err, "status", res.Status)
	}

	updated, err := p.taskStore.Update(ctx, id, func(task *domain.Task) error {
		if res.Status == domain.TaskStatusSuccess {
			return task.CompleteSuccess(res.Result)
		}
		var reason string
		if jsonErr := json.Unmarshal(res.Result, &reason); jsonErr != nil {
			reason = string(res.Result)
		}
		return task.CompleteFailure(reason)
	})
	if err != nil {
		logger.Error("failed to update task snapshot", "error", err, "status", res.Status)
		return
	}

	p.emitter.EmitCompleted(ctx, events.NewTaskCompletedEvent(updated))
}

func failureResult(reason string) broker.ExecResult {
	encoded, err := json.Marshal(reason)
	if err != nil {
		encoded = []byte(`"task failed"`)
	}
	return broker.ExecResult{Status: domain.TaskStatusFailure, Result: encoded}
}
