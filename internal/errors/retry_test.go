package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       false,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		calls++
		return fmt.Errorf("permanent")
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls) // initial + 3 retries
	assert.Contains(t, err.Error(), "failed after 3 retries")
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(), func() error {
		return fmt.Errorf("should not matter")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryWithResult(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (string, error) {
		calls++
		if calls < 2 {
			return "", fmt.Errorf("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestRetryWithResultExhausted(t *testing.T) {
	got, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (int, error) {
		return 42, fmt.Errorf("always fails")
	})
	require.Error(t, err)
	assert.Equal(t, 0, got) // zero value on failure, not the last partial result
}
