package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/discosync/discosync/internal/shared"
)

// StatusError is an API response with a non-success status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api request failed with status %d", e.Code)
	}
	return fmt.Sprintf("api request failed with status %d: %s", e.Code, e.Body)
}

// RetryPolicy retries an operation with exponential backoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Retryable      func(error) bool
}

// DefaultRetryPolicy retries rate limits, server errors, and network
// failures up to three times.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Retryable:      IsRetryable,
	}
}

// IsRetryable reports whether an error is worth retrying: HTTP 429, HTTP
// 5xx, or a network-level failure.
func IsRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Do runs fn until it succeeds, returns a non-retryable error, or exhausts
// the attempt budget. Exhaustion wraps the last error as transient so
// callers can isolate the failure instead of aborting the whole run.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	backoff := p.InitialBackoff
	var err error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		}

		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
	}

	return fmt.Errorf("%w: %d attempts failed: %w", shared.ErrTransient, p.MaxAttempts, err)
}
