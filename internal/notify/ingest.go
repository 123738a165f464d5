package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/store"
)

// Outcome is the ingestion verdict reported back to the worker.
type Outcome string

// Ingestion outcomes, mirrored on the wire.
const (
	// OutcomeOK acknowledges a successfully-completed task.
	OutcomeOK Outcome = "ok"

	// OutcomeUnfinished acknowledges a report for a task that has not
	// (successfully) finished.
	OutcomeUnfinished Outcome = "task not finished"
)

// Report is a self-reported task snapshot arriving at the ingestion
// endpoint.
type Report struct {
	ID     domain.TaskID     `json:"id"`
	Status domain.TaskStatus `json:"status"`
	Result []byte            `json:"result"`
}

// IngestService accepts self-reported completion. Some deployments route
// completion back through this endpoint instead of granting workers
// direct registry access.
type IngestService struct {
	taskStore store.TaskStore
	logger    *slog.Logger
}

// NewIngestService creates an IngestService.
func NewIngestService(taskStore store.TaskStore, logger *slog.Logger) *IngestService {
	return &IngestService{
		taskStore: taskStore,
		logger:    logger.With("component", "ingest"),
	}
}

// Ingest merges a self-reported snapshot into the registry.
//
// Returns store.ErrTaskNotFound for an unknown id (404) and a
// domain.ErrValidation wrap for a malformed report (422). Re-ingesting
// the same terminal snapshot is a no-op acknowledged with OutcomeOK;
// reports that have not reached SUCCESS are acknowledged with
// OutcomeUnfinished.
func (s *IngestService) Ingest(ctx context.Context, report Report) (Outcome, error) {
	if report.ID == "" {
		return "", fmt.Errorf("%w: notification missing task id", domain.ErrValidation)
	}
	if !report.Status.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", domain.ErrValidation, report.Status)
	}

	updated, err := s.taskStore.Update(ctx, report.ID, func(task *domain.Task) error {
		return task.ApplyReported(report.Status, report.Result)
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("notification ingested",
		"task_id", report.ID,
		"reported_status", report.Status,
		"stored_status", updated.Status)

	if updated.Status == domain.TaskStatusSuccess {
		return OutcomeOK, nil
	}
	return OutcomeUnfinished, nil
}
