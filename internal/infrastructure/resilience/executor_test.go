package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastRetryConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func TestExecuteRetriesFlakyEmbedCall(t *testing.T) {
	exec := NewExecutor(fastRetryConfig())

	errUnavailable := errors.New("embed: 503 service unavailable")
	calls := 0
	err := exec.Execute(context.Background(), "embedding.embed", func(context.Context) error {
		calls++
		if calls < 3 {
			return errUnavailable
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, errUnavailable), RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("expected recovery on the third call, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestExecuteSurfacesClientErrorImmediately(t *testing.T) {
	exec := NewExecutor(fastRetryConfig())

	errBadRequest := errors.New("rerank: 400 bad request")
	calls := 0
	err := exec.Execute(context.Background(), "rerank.rerank", func(context.Context) error {
		calls++
		return errBadRequest
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	})
	if !errors.Is(err, errBadRequest) {
		t.Fatalf("expected the client error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, a malformed request must not be retried", calls)
	}
}

func TestExecuteStopsRetryingOnCancel(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: 50 * time.Millisecond,
		RetryMaxBackoff:     50 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errUnavailable := errors.New("chat: 503 service unavailable")
	calls := 0
	err := exec.Execute(ctx, "chat.complete", func(context.Context) error {
		calls++
		cancel()
		return errUnavailable
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if !errors.Is(err, errUnavailable) {
		t.Fatalf("expected the upstream error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, cancellation must stop the backoff wait", calls)
	}
}

func TestExecuteOpensBreakerPerOperation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errDown := errors.New("parse: connection refused")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "parse.extract", func(context.Context) error {
			return errDown
		}, classifier)
		if !errors.Is(err, errDown) {
			t.Fatalf("call %d: expected upstream error, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "parse.extract", func(context.Context) error {
		t.Fatal("open breaker must not reach the upstream")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
	if !IsCircuitOpen(err) {
		t.Fatal("IsCircuitOpen must report the refusal")
	}

	// the embedding breaker is independent of the parse breaker
	if err := exec.Execute(context.Background(), "embedding.embed", func(context.Context) error {
		return nil
	}, classifier); err != nil {
		t.Fatalf("other operation must stay closed, got %v", err)
	}
}

func TestExecuteIgnoredFailuresDoNotTrip(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errBadRequest := errors.New("embed: 400 bad request")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}

	for i := 0; i < 5; i++ {
		err := exec.Execute(context.Background(), "embedding.embed", func(context.Context) error {
			return errBadRequest
		}, classifier)
		if !errors.Is(err, errBadRequest) {
			t.Fatalf("call %d: expected client error, got %v", i, err)
		}
	}

	// caller mistakes never open the circuit
	if err := exec.Execute(context.Background(), "embedding.embed", func(context.Context) error {
		return nil
	}, classifier); err != nil {
		t.Fatalf("breaker must stay closed after ignored failures, got %v", err)
	}
}
