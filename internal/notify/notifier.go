// Package notify delivers completion callbacks to caller-supplied
// endpoints and ingests self-reported completion snapshots. Delivery is
// a best-effort side channel: its failure is recorded but never causes
// the underlying task to be reported as failed.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/naskhq/nask/internal/backoff"
	"github.com/naskhq/nask/internal/domain"
	"github.com/naskhq/nask/internal/events"
)

// ErrDeliveryFailed is returned when the notification POST could not be
// completed. Non-fatal by design: callers log it and move on.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// Config holds notifier tuning.
type Config struct {
	// ConnectTimeout bounds connection establishment. Defaults to 5s.
	ConnectTimeout time.Duration

	// ReadTimeout bounds the whole exchange including reading the
	// response. Defaults to 30s.
	ReadTimeout time.Duration

	// MaxAttempts is the total number of delivery attempts. The baseline
	// behavior is a single attempt; raising this enables bounded retries
	// with backoff. Because delivery is at-least-once either way,
	// receivers must dedupe on task id. Defaults to 1.
	MaxAttempts int

	// Backoff computes the delay between attempts when MaxAttempts > 1.
	// If nil, the default jittered exponential strategy is used.
	Backoff backoff.Strategy
}

// DefaultConfig returns the baseline notifier configuration.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    30 * time.Second,
		MaxAttempts:    1,
	}
}

// Notifier POSTs terminal task snapshots to their notify URL. It
// subscribes to completion events, so delivery runs detached from the
// worker's own completion bookkeeping.
type Notifier struct {
	client      *http.Client
	maxAttempts int
	retry       backoff.Strategy
	logger      *slog.Logger
}

var _ events.Handler = (*Notifier)(nil)

// New creates a Notifier with its own HTTP client configured from cfg.
func New(cfg Config, logger *slog.Logger) *Notifier {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConfig().ConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultConfig().ReadTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff == nil {
		cfg.Backoff = backoff.Default()
	}

	return &Notifier{
		client: &http.Client{
			Timeout: cfg.ReadTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.ConnectTimeout,
				}).DialContext,
			},
		},
		maxAttempts: cfg.MaxAttempts,
		retry:       cfg.Backoff,
		logger:      logger.With("component", "notifier"),
	}
}

// Notify delivers the snapshot to the task's notify URL. A completed
// HTTP exchange counts as delivered regardless of status code, since the
// receiver owns its own semantics. A network-level failure after all
// attempts yields ErrDeliveryFailed.
func (n *Notifier) Notify(ctx context.Context, task *domain.Task) error {
	logger := n.logger.With("task_id", task.ID, "notify_url", task.NotifyURL)

	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode notification for task %s: %w", task.ID, err)
	}

	var lastErr error
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		lastErr = n.post(ctx, task.NotifyURL, body, logger)
		if lastErr == nil {
			logger.Info("notification delivered", "attempt", attempt)
			return nil
		}

		logger.Warn("notification attempt failed",
			"attempt", attempt,
			"max_attempts", n.maxAttempts,
			"error", lastErr)

		if attempt == n.maxAttempts {
			break
		}
		select {
		case <-time.After(n.retry.Delay(attempt)):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, ctx.Err())
		}
	}

	return fmt.Errorf("%w: %v", ErrDeliveryFailed, lastErr)
}

func (n *Notifier) post(ctx context.Context, url string, body []byte, logger *slog.Logger) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		logger.Warn("notification target returned non-success status",
			"status_code", resp.StatusCode)
	}
	return nil
}

// HandleCompleted delivers the completed task's snapshot. Implements
// events.Handler so the notifier can subscribe to the completion event
// stream.
func (n *Notifier) HandleCompleted(ctx context.Context, event *events.TaskCompletedEvent) error {
	return n.Notify(ctx, event.Task)
}
