package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/naskhq/nask/internal/api/shared"
	"github.com/naskhq/nask/internal/dispatcher"
	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/reconcile"
	"github.com/naskhq/nask/internal/store"
)

// TaskHandler handles task submission and status reads.
type TaskHandler struct {
	dispatcher *dispatcher.Dispatcher
	reconciler *reconcile.Reconciler
	taskStore  store.TaskStore
	logger     *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(
	d *dispatcher.Dispatcher,
	r *reconcile.Reconciler,
	taskStore store.TaskStore,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		dispatcher: d,
		reconciler: r,
		taskStore:  taskStore,
		logger:     logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks/ requests.
// It validates the submission, dispatches it for asynchronous execution,
// and returns the created snapshot with status 201.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusUnprocessableEntity, "Invalid request body", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusUnprocessableEntity, "Invalid task data", err)
		return
	}

	task, err := h.dispatcher.Submit(r.Context(), dispatcher.Submission{
		Type:      domain.TaskType(req.Type),
		NotifyURL: req.NotifyURL,
		Payload:   domain.Payload{Input: *req.Payload.Input},
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.Info("task submitted",
		slog.String("task_id", string(task.ID)),
		slog.String("task_type", string(task.Type)))

	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskResponse(task))
}

// GetTask handles GET /api/tasks/{id} requests.
// It returns the reconciled snapshot, folding in anything the result
// backend knows that the store does not yet.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := domain.TaskID(chi.URLParam(r, "id"))

	task, err := h.reconciler.Reconcile(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			shared.RespondWithError(w, r, http.StatusNotFound,
				fmt.Sprintf("task with id: %s not found", id))
		case errors.Is(err, reconcile.ErrBackendInconsistent):
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				fmt.Sprintf("error with task: %s", id), err)
		default:
			shared.RespondWithErrorAndLog(w, r,
				MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(task))
}

// ListTasks handles GET /api/tasks/ requests, returning every known task
// in insertion order.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskStore.List(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskListResponse(tasks))
}
