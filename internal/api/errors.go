package api

import (
	"errors"
	"net/http"

	"github.com/naskhq/nask/internal/broker"
	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/reconcile"
	"github.com/naskhq/nask/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Validation errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTaskType),
		errors.Is(err, domain.ErrInvalidNotifyURL),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrEmptyPayload):
		return http.StatusUnprocessableEntity

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors: a report that would demote an already-terminal task
	case errors.Is(err, domain.ErrStatusRegression),
		errors.Is(err, store.ErrUpdateFailed):
		return http.StatusConflict

	// Broker rejected the submission
	case errors.Is(err, broker.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Result backend lost a task the store still knows about
	case errors.Is(err, reconcile.ErrBackendInconsistent):
		return http.StatusInternalServerError

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrInvalidTaskType):
		return "Unknown task type"

	case errors.Is(err, domain.ErrInvalidNotifyURL):
		return "Invalid notify URL"

	case errors.Is(err, domain.ErrEmptyPayload):
		return "Empty task payload"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidStatus):
		return "Invalid task data"

	case errors.Is(err, store.ErrNotFound):
		return "Task not found"

	case errors.Is(err, domain.ErrStatusRegression),
		errors.Is(err, store.ErrUpdateFailed):
		return "Task state conflict"

	case errors.Is(err, broker.ErrUnavailable):
		return "Task queue unavailable"

	default:
		return "An unexpected error occurred"
	}
}
