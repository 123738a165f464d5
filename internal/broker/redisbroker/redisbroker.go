// Package redisbroker implements the broker and result backend on Redis
// for deployments where workers run out-of-process. Jobs travel through
// a List used as a FIFO queue and execution state lives in per-task
// Hashes, so any process holding the Redis address can consume work or
// report results.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: cfg.Broker.RedisAddr})
//	b := redisbroker.NewBroker(client, cfg.Broker.Queue, logger)
//	go b.Run(ctx)
package redisbroker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/naskhq/nask/internal/broker"
	"github.com/naskhq/nask/internal/domain"
)

const (
	// popTimeout bounds each blocking pop so the consume loop can notice
	// context cancellation.
	popTimeout = 2 * time.Second

	resultKeyPrefix = "nask:result:"
)

func resultKey(id domain.TaskID) string {
	return resultKeyPrefix + string(id)
}

// Broker is a Redis-list-backed work queue satisfying broker.Broker.
type Broker struct {
	client goredis.UniversalClient
	queue  string
	jobs   chan broker.Job
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

var _ broker.Broker = (*Broker)(nil)

// NewBroker creates a broker over the given Redis client. The caller
// owns the client lifecycle.
func NewBroker(client goredis.UniversalClient, queue string, logger *slog.Logger) *Broker {
	return &Broker{
		client: client,
		queue:  queue,
		jobs:   make(chan broker.Job),
		logger: logger.With("component", "redisbroker", "queue", queue),
	}
}

// Enqueue pushes the job onto the queue list.
func (b *Broker) Enqueue(ctx context.Context, job broker.Job) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: broker closed", broker.ErrUnavailable)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("redisbroker: marshal job: %w", err)
	}

	if err := b.client.LPush(ctx, b.queue, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", broker.ErrUnavailable, err)
	}

	b.logger.Debug("job enqueued", "task_id", job.TaskID, "task_type", job.Type)
	return nil
}

// Run consumes the queue until ctx is cancelled, delivering jobs to the
// channel returned by Jobs. Malformed entries are logged and skipped.
func (b *Broker) Run(ctx context.Context) {
	defer close(b.jobs)

	for {
		if ctx.Err() != nil {
			return
		}

		values, err := b.client.BRPop(ctx, popTimeout, b.queue).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			b.logger.Error("queue pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(popTimeout):
			}
			continue
		}
		if len(values) != 2 {
			continue
		}

		var job broker.Job
		if err := json.Unmarshal([]byte(values[1]), &job); err != nil {
			b.logger.Error("dropping malformed job", "error", err)
			continue
		}

		select {
		case b.jobs <- job:
		case <-ctx.Done():
			return
		}
	}
}

// Jobs returns the read side of the queue. Closed when Run exits.
func (b *Broker) Jobs() <-chan broker.Job {
	return b.jobs
}

// Close stops accepting submissions. Delivery stops when the Run context
// is cancelled.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Backend stores execution state in per-task Redis Hashes.
type Backend struct {
	client goredis.UniversalClient
}

var _ broker.Backend = (*Backend)(nil)

// NewBackend creates a result backend over the given Redis client.
func NewBackend(client goredis.UniversalClient) *Backend {
	return &Backend{client: client}
}

// Set records the execution state for id as a Hash.
func (s *Backend) Set(ctx context.Context, id domain.TaskID, res broker.ExecResult) error {
	fields := map[string]interface{}{
		"status": string(res.Status),
	}
	if res.Result != nil {
		fields["result"] = string(res.Result)
	}

	if err := s.client.HSet(ctx, resultKey(id), fields).Err(); err != nil {
		return fmt.Errorf("redisbroker: set result: %w", err)
	}
	return nil
}

// Result returns the recorded state for id, or ErrNoRecord when the
// hash does not exist.
func (s *Backend) Result(ctx context.Context, id domain.TaskID) (broker.ExecResult, error) {
	fields, err := s.client.HGetAll(ctx, resultKey(id)).Result()
	if err != nil {
		return broker.ExecResult{}, fmt.Errorf("redisbroker: get result: %w", err)
	}
	if len(fields) == 0 {
		return broker.ExecResult{}, broker.ErrNoRecord
	}

	res := broker.ExecResult{Status: domain.TaskStatus(fields["status"])}
	if raw, ok := fields["result"]; ok && raw != "" {
		res.Result = json.RawMessage(raw)
	}
	return res, nil
}
