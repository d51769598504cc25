package lib

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
	}
}

func TestRetryWithContext_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	got, err := RetryWithContext(context.Background(), fastRetryConfig(), nil,
		func(context.Context) (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})
	if err != nil {
		t.Fatalf("RetryWithContext() error = %v", err)
	}
	if got != 42 {
		t.Errorf("result = %d, want 42", got)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryWithContext_ExhaustsBudget(t *testing.T) {
	attempts := 0
	wantErr := errors.New("persistent")
	_, err := RetryWithContext(context.Background(), fastRetryConfig(), nil,
		func(context.Context) (int, error) {
			attempts++
			return 0, wantErr
		})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryWithContext_GateStopsRetry(t *testing.T) {
	attempts := 0
	fatal := errors.New("fatal")
	_, err := RetryWithContext(context.Background(), fastRetryConfig(),
		func(err error) bool { return !errors.Is(err, fatal) },
		func(context.Context) (int, error) {
			attempts++
			return 0, fatal
		})
	if !errors.Is(err, fatal) {
		t.Errorf("error = %v, want %v", err, fatal)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (gate should stop retries)", attempts)
	}
}

func TestRetryWithContext_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := RetryWithContext(ctx, fastRetryConfig(), nil,
		func(context.Context) (int, error) {
			attempts++
			return 0, errors.New("should not retry")
		})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if attempts > 1 {
		t.Errorf("attempts = %d, want at most 1", attempts)
	}
}

func TestRetryWithContext_AttemptTimeoutIsRetried(t *testing.T) {
	attempts := 0
	got, err := RetryWithContext(context.Background(), fastRetryConfig(), nil,
		func(context.Context) (string, error) {
			attempts++
			if attempts == 1 {
				// A per-attempt deadline must not end the whole loop.
				return "", context.DeadlineExceeded
			}
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("RetryWithContext() error = %v", err)
	}
	if got != "ok" || attempts != 2 {
		t.Errorf("got %q after %d attempts, want ok after 2", got, attempts)
	}
}
