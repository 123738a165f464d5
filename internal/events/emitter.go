package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter dispatches completion events to in-process handlers.
// Dispatch is fire-and-forget: each emit runs on its own goroutine so a
// slow or hung handler can never delay the worker that emitted.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	wg       sync.WaitGroup
	logger   *slog.Logger
}

var _ Emitter = (*InMemoryEmitter)(nil)

// NewInMemoryEmitter creates an emitter with no handlers registered.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		logger: logger.With("component", "event_emitter"),
	}
}

// RegisterHandler adds a handler to receive future events.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered event handler", "handler_count", len(e.handlers))
}

// EmitCompleted publishes the event to all registered handlers on a
// detached goroutine. Handler errors are logged, never returned: a failed
// notification must not surface into the completion bookkeeping.
func (e *InMemoryEmitter) EmitCompleted(ctx context.Context, event *TaskCompletedEvent) {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for completion event",
			"task_id", event.Task.ID)
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for i, handler := range handlers {
			if err := handler.HandleCompleted(ctx, event); err != nil {
				e.logger.Error("completion handler failed",
					"error", err,
					"handler_index", i,
					"task_id", event.Task.ID,
					"task_status", event.Task.Status)
			}
		}
	}()
}

// Wait blocks until all in-flight event dispatches have finished. Used
// during shutdown and by tests.
func (e *InMemoryEmitter) Wait() {
	e.wg.Wait()
}
