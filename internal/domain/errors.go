package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a task fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTaskType is returned when a task type is not part of the
	// known set and has no registered executor.
	ErrInvalidTaskType = errors.New("invalid task type")

	// ErrInvalidStatus is returned when a status value is not one of the
	// recognized lifecycle states.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidNotifyURL is returned when a notify URL is missing or is
	// not a well-formed absolute URL.
	ErrInvalidNotifyURL = errors.New("invalid notify URL")

	// ErrEmptyPayload is returned when a submission carries no payload.
	ErrEmptyPayload = errors.New("payload cannot be empty")

	// ErrStatusRegression is returned when a transition would move a task
	// backwards through its lifecycle, for example from a terminal state
	// back to PENDING.
	ErrStatusRegression = errors.New("status transition not allowed")
)
