package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naskhq/nask/internal/backoff"
	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/events"
)

func successfulTask(t *testing.T, notifyURL string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("task-1", domain.TaskTypePrime, domain.Payload{Input: 7}, notifyURL)
	require.NoError(t, err)
	require.NoError(t, task.CompleteSuccess(json.RawMessage(`true`)))
	return task
}

func TestNotifyDeliversSnapshot(t *testing.T) {
	t.Parallel()

	received := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(DefaultConfig(), slog.Default())
	task := successfulTask(t, server.URL)

	require.NoError(t, n.Notify(context.Background(), task))

	body := <-received
	assert.Equal(t, "task-1", body["id"])
	assert.Equal(t, "SUCCESS", body["status"])
	assert.Equal(t, true, body["result"])
}

func TestNotifyNonSuccessStatusStillCountsAsDelivered(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := New(DefaultConfig(), slog.Default())
	err := n.Notify(context.Background(), successfulTask(t, server.URL))
	assert.NoError(t, err, "an HTTP exchange that completed is a delivery; the receiver owns its semantics")
}

func TestNotifyUnreachableTarget(t *testing.T) {
	t.Parallel()

	n := New(Config{ConnectTimeout: 200 * time.Millisecond, ReadTimeout: 500 * time.Millisecond}, slog.Default())
	// A port from TEST-NET that nothing listens on.
	task := successfulTask(t, "http://127.0.0.1:1/notify")

	err := n.Notify(context.Background(), task)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	// Delivery failure leaves the snapshot untouched.
	assert.Equal(t, domain.TaskStatusSuccess, task.Status)
}

func TestNotifyHungTargetTimesOut(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	n := New(Config{ConnectTimeout: time.Second, ReadTimeout: 300 * time.Millisecond}, slog.Default())

	start := time.Now()
	err := n.Notify(context.Background(), successfulTask(t, server.URL))
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Less(t, time.Since(start), 5*time.Second,
		"a target that never responds must not hold the notifier hostage")
}

func TestNotifyBoundedRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			// Drop the connection so the client sees a network error.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(Config{
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
		MaxAttempts:    3,
		Backoff:        backoff.Constant{Interval: time.Millisecond},
	}, slog.Default())

	require.NoError(t, n.Notify(context.Background(), successfulTask(t, server.URL)))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHandleCompletedDelegatesToNotify(t *testing.T) {
	t.Parallel()

	received := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := New(DefaultConfig(), slog.Default())
	event := events.NewTaskCompletedEvent(successfulTask(t, server.URL))

	require.NoError(t, n.HandleCompleted(context.Background(), event))
	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("expected the event's snapshot to be delivered")
	}
}
