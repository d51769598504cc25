package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/contentlab/newsgraph/pkg/graph"
)

// RetryableError marks a failure the caller should re-queue instead of
// treating as final. An unreachable embedding provider must surface as
// retryable rather than letting the article slip through as novel.
type RetryableError struct {
	err error
}

func retryable(format string, args ...any) error {
	return &RetryableError{err: fmt.Errorf(format, args...)}
}

func (e *RetryableError) Error() string {
	return e.err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.err
}

// Retryable reports whether the error is worth another attempt: explicit
// retryable wrappers, store transport failures, and timeouts.
func Retryable(err error) bool {
	var re *RetryableError
	if errors.As(err, &re) {
		return true
	}
	if errors.Is(err, graph.ErrUnavailable) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// transportRetryable widens Retryable with raw network failures, which
// provider SDKs return unwrapped. Credential and request errors fail fast.
func transportRetryable(err error) bool {
	if Retryable(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
