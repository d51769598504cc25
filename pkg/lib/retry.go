package lib

import (
	"context"
	"time"
)

// RetryConfig bounds a retry loop.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     10 * time.Second,
	}
}

// RetryWithContext calls fn until it succeeds, the context is done, or the
// attempt budget is exhausted. Between attempts it waits with exponential
// backoff. The shouldRetry gate decides whether an error is worth another
// attempt; a nil gate retries every error.
func RetryWithContext[T any](
	ctx context.Context,
	cfg RetryConfig,
	shouldRetry func(error) bool,
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	wait := cfg.InitialWait
	var lastErr error
	for i := 0; i < cfg.MaxAttempts; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		// Attempts may carry their own deadlines; only the caller's context
		// ends the loop early.
		if ctx.Err() != nil {
			return zero, err
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return zero, err
		}
		lastErr = err

		if i == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}

		wait *= 2
		if cfg.MaxWait > 0 && wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}

	return zero, lastErr
}
