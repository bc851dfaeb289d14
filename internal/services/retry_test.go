package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/discosync/discosync/internal/shared"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Retryable:      IsRetryable,
	}
}

func TestRetryPolicy(t *testing.T) {
	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(context.Background(), func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("retries rate limit then succeeds", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return &StatusError{Code: http.StatusTooManyRequests}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("non-retryable fails immediately", func(t *testing.T) {
		calls := 0
		err := fastPolicy().Do(context.Background(), func() error {
			calls++
			return &StatusError{Code: http.StatusNotFound}
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
		if errors.Is(err, shared.ErrTransient) {
			t.Error("4xx should not be marked transient")
		}
	})

	t.Run("exhaustion wraps transient", func(t *testing.T) {
		err := fastPolicy().Do(context.Background(), func() error {
			return &StatusError{Code: http.StatusInternalServerError}
		})
		if !errors.Is(err, shared.ErrTransient) {
			t.Errorf("exhausted retries should be transient, got %v", err)
		}
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.Code != http.StatusInternalServerError {
			t.Errorf("last error should be preserved, got %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := fastPolicy().Do(ctx, func() error {
			calls++
			return &StatusError{Code: http.StatusInternalServerError}
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &StatusError{Code: 429}, true},
		{"server error", &StatusError{Code: 503}, true},
		{"not found", &StatusError{Code: 404}, false},
		{"unauthorized", &StatusError{Code: 401}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
