package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/store"
	"github.com/naskhq/nask/internal/store/memstore"
)

func seedTask(t *testing.T, s *memstore.Store, id domain.TaskID, status domain.TaskStatus) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(id, domain.TaskTypePrime, domain.Payload{Input: 7}, "http://127.0.0.1:9/notify")
	require.NoError(t, err)
	if status != domain.TaskStatusPending {
		require.NoError(t, task.ApplyReported(status, json.RawMessage(`true`)))
	}
	require.NoError(t, s.Put(context.Background(), task))
	return task
}

func TestIngestSuccessReport(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	seedTask(t, s, "task-1", domain.TaskStatusStarted)
	svc := NewIngestService(s, slog.Default())

	outcome, err := svc.Ingest(context.Background(), Report{
		ID:     "task-1",
		Status: domain.TaskStatusSuccess,
		Result: []byte(`true`),
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, outcome)

	stored, err := s.Get(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusSuccess, stored.Status)
	assert.JSONEq(t, `true`, string(stored.Result))
}

func TestIngestDuplicateTerminalReportIsIdempotent(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	seedTask(t, s, "task-1", domain.TaskStatusSuccess)
	svc := NewIngestService(s, slog.Default())

	before, err := s.Get(context.Background(), "task-1")
	require.NoError(t, err)

	report := Report{ID: "task-1", Status: domain.TaskStatusSuccess, Result: []byte(`false`)}
	for i := 0; i < 2; i++ {
		outcome, err := svc.Ingest(context.Background(), report)
		require.NoError(t, err)
		assert.Equal(t, OutcomeOK, outcome)
	}

	after, err := s.Get(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, before.Result, after.Result, "re-ingesting a terminal snapshot must not rewrite the result")
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestIngestNonSuccessReports(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		seeded   domain.TaskStatus
		reported domain.TaskStatus
	}{
		{name: "started report", seeded: domain.TaskStatusPending, reported: domain.TaskStatusStarted},
		{name: "failure report", seeded: domain.TaskStatusStarted, reported: domain.TaskStatusFailure},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := memstore.New()
			seedTask(t, s, "task-1", tc.seeded)
			svc := NewIngestService(s, slog.Default())

			outcome, err := svc.Ingest(context.Background(), Report{
				ID:     "task-1",
				Status: tc.reported,
				Result: []byte(`"boom"`),
			})
			require.NoError(t, err)
			assert.Equal(t, OutcomeUnfinished, outcome)

			stored, err := s.Get(context.Background(), "task-1")
			require.NoError(t, err)
			assert.Equal(t, tc.reported, stored.Status)
		})
	}
}

func TestIngestUnknownTask(t *testing.T) {
	t.Parallel()

	svc := NewIngestService(memstore.New(), slog.Default())
	_, err := svc.Ingest(context.Background(), Report{ID: "ghost", Status: domain.TaskStatusSuccess})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestIngestMalformedReports(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	seedTask(t, s, "task-1", domain.TaskStatusStarted)
	svc := NewIngestService(s, slog.Default())

	cases := []struct {
		name   string
		report Report
	}{
		{name: "missing id", report: Report{Status: domain.TaskStatusSuccess}},
		{name: "unknown status", report: Report{ID: "task-1", Status: "DONE"}},
		{name: "empty status", report: Report{ID: "task-1"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Ingest(context.Background(), tc.report)
			assert.ErrorIs(t, err, domain.ErrValidation)

			stored, getErr := s.Get(context.Background(), "task-1")
			require.NoError(t, getErr)
			assert.Equal(t, domain.TaskStatusStarted, stored.Status)
		})
	}
}
