package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/naskhq/nask/internal/domain"
)

// Func is a pure compute function from payload to result. The returned
// value must be valid JSON; an error marks the task FAILURE with the
// error text captured as the result.
type Func func(ctx context.Context, payload domain.Payload) (json.RawMessage, error)

// Executor pairs a compute function with its payload schema check.
type Executor struct {
	// Run performs the compute.
	Run Func

	// ValidatePayload rejects inputs the executor cannot handle. Nil
	// means any payload is acceptable. Called by the dispatcher before a
	// task is accepted, so a rejected payload never reaches a worker.
	ValidatePayload func(payload domain.Payload) error
}

// Registry is the closed mapping from task type to executor. Adding a
// type is a registration, never an edit to dispatch logic.
type Registry struct {
	mu        sync.RWMutex
	executors map[domain.TaskType]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[domain.TaskType]Executor),
	}
}

// Register binds an executor to a task type, replacing any previous
// binding.
func (r *Registry) Register(taskType domain.TaskType, exec Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[taskType] = exec
}

// Lookup returns the executor for taskType, or ErrInvalidTaskType.
func (r *Registry) Lookup(taskType domain.TaskType) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exec, ok := r.executors[taskType]
	if !ok {
		return Executor{}, fmt.Errorf("%w: %q", domain.ErrInvalidTaskType, taskType)
	}
	return exec, nil
}

// Validate checks that taskType is registered and that payload passes
// its schema check. Failures wrap domain validation errors, which the
// API layer maps to 422.
func (r *Registry) Validate(taskType domain.TaskType, payload domain.Payload) error {
	exec, err := r.Lookup(taskType)
	if err != nil {
		return err
	}
	if exec.ValidatePayload != nil {
		if err := exec.ValidatePayload(payload); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}
	return nil
}

// Types returns the registered task types, for diagnostics.
func (r *Registry) Types() []domain.TaskType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.TaskType, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	return types
}
