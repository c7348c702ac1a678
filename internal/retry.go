package internal

import (
	"context"
	"time"
)

type RetryOptions struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
	}
}

// WithRetry runs fn up to MaxRetries+1 times with exponential backoff
// between attempts. It returns the last error once retries are exhausted,
// or the context error if the caller is cancelled while waiting.
func WithRetry(ctx context.Context, opts RetryOptions, fn func() error) error {
	var lastErr error

	delay := opts.InitialDelay
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == opts.MaxRetries {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		delay *= 2
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
	return lastErr
}
