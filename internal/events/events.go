// Package events decouples terminal state persistence from notification
// delivery. The worker pool emits a completion event after the terminal
// state is durably recorded; subscribers (the notifier) act on it without
// ever being able to block or fail the state transition itself.
package events

import (
	"context"
	"time"

	"github.com/naskhq/nask/internal/domain"
)

// TaskCompletedEvent is published once a task reaches a terminal state.
// It carries the full snapshot so handlers never need to read the store.
type TaskCompletedEvent struct {
	// Task is the terminal snapshot at the time of completion.
	Task *domain.Task `json:"task"`

	// OccurredAt is when the terminal transition was persisted.
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTaskCompletedEvent creates a completion event for the given snapshot.
func NewTaskCompletedEvent(task *domain.Task) *TaskCompletedEvent {
	return &TaskCompletedEvent{
		Task:       task.Clone(),
		OccurredAt: time.Now().UTC(),
	}
}

// Handler processes completion events.
type Handler interface {
	// HandleCompleted processes the given event within the provided
	// context. Returns an error if the event cannot be handled; emitters
	// log but never propagate handler errors into the worker's path.
	HandleCompleted(ctx context.Context, event *TaskCompletedEvent) error
}

// Emitter publishes completion events to registered handlers.
type Emitter interface {
	// EmitCompleted publishes the event to all registered handlers.
	EmitCompleted(ctx context.Context, event *TaskCompletedEvent)
}
