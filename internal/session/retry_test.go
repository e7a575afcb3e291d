package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryDoSucceedsFirstTry(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDoExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	p := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Millisecond),
		Retryable:   func(error) bool { return true },
	}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetryDoStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	p := RetryPolicy{
		MaxAttempts: 5,
		Retryable:   func(err error) bool { return !errors.Is(err, fatal) },
	}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 2 {
			return fatal
		}
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 2, calls)
}

func TestRetryDoRecoversMidway(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Millisecond),
		Retryable:   func(error) bool { return true },
	}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryDoCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Hour),
		Retryable:   func(error) bool { return true },
	}
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestLinearBackoffScalesWithAttempt(t *testing.T) {
	b := LinearBackoff(time.Second)
	assert.Equal(t, time.Second, b(1))
	assert.Equal(t, 2*time.Second, b(2))
	assert.Equal(t, 3*time.Second, b(3))
}
