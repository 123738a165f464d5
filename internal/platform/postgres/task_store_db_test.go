package postgres_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/platform/postgres"
	"github.com/naskhq/nask/internal/store"
	"github.com/naskhq/nask/internal/testdb"
)

func newTask(t *testing.T, id string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.TaskID(id), domain.TaskTypePrime,
		domain.Payload{Input: 7}, "http://127.0.0.1:9/notify")
	require.NoError(t, err)
	return task
}

func TestTaskStorePutGetRoundTrip(t *testing.T) {
	db := testdb.Get(t)
	s := postgres.NewPostgresTaskStore(db)
	ctx := context.Background()

	task := newTask(t, "task-1")
	require.NoError(t, s.Put(ctx, task))

	got, err := s.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Type, got.Type)
	assert.Equal(t, task.Payload, got.Payload)
	assert.Equal(t, domain.TaskStatusPending, got.Status)
	assert.Nil(t, got.Result)
	assert.Equal(t, task.NotifyURL, got.NotifyURL)
}

func TestTaskStoreGetUnknownID(t *testing.T) {
	db := testdb.Get(t)
	s := postgres.NewPostgresTaskStore(db)

	_, err := s.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskStoreListInsertionOrder(t *testing.T) {
	db := testdb.Get(t)
	s := postgres.NewPostgresTaskStore(db)
	ctx := context.Background()

	ids := []string{"task-1", "task-2", "task-3"}
	for _, id := range ids {
		require.NoError(t, s.Put(ctx, newTask(t, id)))
	}

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for i, task := range tasks {
		assert.Equal(t, domain.TaskID(ids[i]), task.ID)
	}
}

func TestTaskStoreUpdateAppliesMutation(t *testing.T) {
	db := testdb.Get(t)
	s := postgres.NewPostgresTaskStore(db)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newTask(t, "task-1")))

	updated, err := s.Update(ctx, "task-1", func(task *domain.Task) error {
		if err := task.Transition(domain.TaskStatusStarted); err != nil {
			return err
		}
		return task.CompleteSuccess(json.RawMessage(`true`))
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusSuccess, updated.Status)

	got, err := s.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusSuccess, got.Status)
	assert.JSONEq(t, `true`, string(got.Result))
	assert.Equal(t, 100, got.PercentDone)
}

func TestTaskStoreUpdateRejectedMutationLeavesRow(t *testing.T) {
	db := testdb.Get(t)
	s := postgres.NewPostgresTaskStore(db)
	ctx := context.Background()

	task := newTask(t, "task-1")
	require.NoError(t, task.Transition(domain.TaskStatusStarted))
	require.NoError(t, task.CompleteSuccess(json.RawMessage(`true`)))
	require.NoError(t, s.Put(ctx, task))

	_, err := s.Update(ctx, "task-1", func(tk *domain.Task) error {
		return tk.CompleteFailure("boom")
	})
	assert.ErrorIs(t, err, store.ErrUpdateFailed)

	got, err := s.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusSuccess, got.Status)
}

func TestTaskStoreConcurrentUpdatesSerialize(t *testing.T) {
	db := testdb.Get(t)
	s := postgres.NewPostgresTaskStore(db)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, newTask(t, "task-1")))

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "task-1", func(task *domain.Task) error {
				task.PercentDone++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, workers, got.PercentDone,
		"row-locked updates must not lose increments")
}
