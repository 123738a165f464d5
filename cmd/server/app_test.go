package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naskhq/nask/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 0, LogLevel: "error"},
		Store:  config.StoreConfig{Driver: "memory"},
		Broker: config.BrokerConfig{Driver: "memory", Queue: "nask:jobs", QueueSize: 64},
		Worker: config.WorkerConfig{Count: 2},
		Notifier: config.NotifierConfig{
			ConnectTimeout: time.Second,
			ReadTimeout:    time.Second,
			MaxAttempts:    1,
		},
	}
}

func startTestApp(t *testing.T) (*application, http.Handler) {
	t.Helper()

	app, err := newApplication(memoryConfig(), slog.Default())
	require.NoError(t, err)

	app.pool.Start()
	t.Cleanup(app.cleanup)

	return app, app.setupRouter()
}

func TestApplicationWiringServesHealth(t *testing.T) {
	_, router := startTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"task": "nask"}`, rec.Body.String())
}

func TestApplicationSubmitExecutePollCycle(t *testing.T) {
	_, router := startTestApp(t)

	submit := httptest.NewRequest(http.MethodPost, "/api/tasks/",
		strings.NewReader(`{"type": "fibonacci", "notify_url": "http://127.0.0.1:9/notify", "payload": {"input": 10}}`))
	submit.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, submit)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	deadline := time.After(5 * time.Second)
	for {
		poll := httptest.NewRequest(http.MethodGet, "/api/tasks/"+created.ID, nil)
		pollRec := httptest.NewRecorder()
		router.ServeHTTP(pollRec, poll)
		require.Equal(t, http.StatusOK, pollRec.Code, pollRec.Body.String())

		var snapshot struct {
			Status string          `json:"status"`
			Result json.RawMessage `json:"result"`
		}
		require.NoError(t, json.Unmarshal(pollRec.Body.Bytes(), &snapshot))
		if snapshot.Status == "SUCCESS" {
			assert.JSONEq(t, `55`, string(snapshot.Result))
			return
		}

		select {
		case <-deadline:
			t.Fatalf("task %s never completed", created.ID)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestApplicationRejectsUnknownDrivers(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Driver = "sqlite"
	_, err := newApplication(cfg, slog.Default())
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.Broker.Driver = "rabbitmq"
	_, err = newApplication(cfg, slog.Default())
	assert.Error(t, err)
}
