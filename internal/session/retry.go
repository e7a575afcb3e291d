package session

import (
	"context"
	"time"
)

// RetryPolicy is the one bounded-retry helper shared by every step of
// the resolution ladder. An attempt is retried only while Retryable
// says so; context cancellation short-circuits immediately, including
// mid-backoff.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(error) bool
}

// LinearBackoff returns attempt-index * step.
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Do runs op until it succeeds, fails with a non-retryable error,
// exhausts MaxAttempts, or the context ends.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && p.Backoff != nil {
			select {
			case <-time.After(p.Backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err = op(ctx); err == nil {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
	}
	return err
}
