// Package api provides HTTP handlers for the task API.
package api

import (
	"encoding/json"
	"time"

	"github.com/naskhq/nask/internal/domain"
)

// PayloadInput is the wire form of a task payload. Input is a pointer so
// an empty payload object is distinguishable from input: 0 and rejected
// by validation.
type PayloadInput struct {
	Input *int `json:"input" validate:"required"`
}

// CreateTaskRequest represents the request body for task submission.
type CreateTaskRequest struct {
	Type      string        `json:"type"       validate:"required"`
	NotifyURL string        `json:"notify_url" validate:"required,url"`
	Payload   *PayloadInput `json:"payload"    validate:"required"`
}

// IngestRequest represents a self-reported task snapshot POSTed to the
// ingestion endpoint. Fields beyond these are accepted and ignored, so a
// full snapshot body round-trips.
type IngestRequest struct {
	ID     string          `json:"id"     validate:"required"`
	Status string          `json:"status" validate:"required"`
	Result json.RawMessage `json:"result"`
}

// IngestResponse acknowledges an ingested notification.
type IngestResponse struct {
	Status string `json:"status"`
}

// TaskResponse represents the response data for a single task.
type TaskResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Payload       domain.Payload  `json:"payload"`
	Status        string          `json:"status"`
	Result        json.RawMessage `json:"result"`
	NotifyURL     string          `json:"notify_url"`
	QueuePosition int             `json:"queue_position"`
	PercentDone   int             `json:"percent_done"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TaskListResponse wraps the task collection for list responses.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// NewTaskResponse builds the wire representation of a task snapshot.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:            string(task.ID),
		Type:          string(task.Type),
		Payload:       task.Payload,
		Status:        string(task.Status),
		Result:        task.Result,
		NotifyURL:     task.NotifyURL,
		QueuePosition: task.QueuePosition,
		PercentDone:   task.PercentDone,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}

// NewTaskListResponse builds the wire representation of a task collection.
func NewTaskListResponse(tasks []*domain.Task) TaskListResponse {
	out := TaskListResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, task := range tasks {
		out.Tasks = append(out.Tasks, NewTaskResponse(task))
	}
	return out
}
