package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/naskhq/nask/internal/domain"
)

// maxFibonacci bounds the fibonacci input so the result fits in int64.
const maxFibonacci = 92

// BuiltinRegistry returns a registry with the placeholder executors
// registered: sleep, prime, fibonacci. These stand in for arbitrary
// long-running work.
func BuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register(domain.TaskTypeSleep, Executor{
		Run:             Sleep,
		ValidatePayload: nonNegativeInput,
	})
	r.Register(domain.TaskTypePrime, Executor{
		Run:             Prime,
		ValidatePayload: nonNegativeInput,
	})
	r.Register(domain.TaskTypeFibonacci, Executor{
		Run:             Fibonacci,
		ValidatePayload: fibonacciInput,
	})
	return r
}

func nonNegativeInput(p domain.Payload) error {
	if p.Input < 0 {
		return fmt.Errorf("input must be non-negative, got %d", p.Input)
	}
	return nil
}

func fibonacciInput(p domain.Payload) error {
	if p.Input < 0 {
		return fmt.Errorf("input must be non-negative, got %d", p.Input)
	}
	if p.Input > maxFibonacci {
		return fmt.Errorf("input must be at most %d, got %d", maxFibonacci, p.Input)
	}
	return nil
}

// Sleep waits payload.Input seconds and returns the number of seconds
// slept. Honors context cancellation instead of blocking the worker.
func Sleep(ctx context.Context, payload domain.Payload) (json.RawMessage, error) {
	timer := time.NewTimer(time.Duration(payload.Input) * time.Second)
	defer timer.Stop()

	select {
	case <-timer.C:
		return json.Marshal(payload.Input)
	case <-ctx.Done():
		return nil, fmt.Errorf("sleep interrupted: %w", ctx.Err())
	}
}

// Prime reports whether payload.Input is prime by trial division.
func Prime(_ context.Context, payload domain.Payload) (json.RawMessage, error) {
	n := payload.Input
	if n < 2 {
		return json.Marshal(false)
	}
	for i := 2; i*i <= n; i++ {
		if n%i == 0 {
			return json.Marshal(false)
		}
	}
	return json.Marshal(true)
}

// Fibonacci computes the payload.Input-th Fibonacci number iteratively
// within a single worker invocation. Earlier designs re-dispatched each
// recursive step as a new distributed submission; the computation is
// local on purpose.
func Fibonacci(_ context.Context, payload domain.Payload) (json.RawMessage, error) {
	n := payload.Input
	if n < 0 {
		return nil, errors.New("fibonacci undefined for negative input")
	}
	if n > maxFibonacci {
		return nil, fmt.Errorf("fibonacci input %d exceeds maximum %d", n, maxFibonacci)
	}

	var a, b int64 = 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return json.Marshal(a)
}
