// ABOUTME: Tests for the retry executor
// ABOUTME: Verifies attempt counting, backoff gating, and error passthrough

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasreis/postdeck/internal/apierr"
)

var nop = zerolog.Nop()

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), nop, "test", 3, time.Millisecond, func() (string, error) {
		calls++
		if calls <= 2 {
			return "", &apierr.HTTPError{StatusCode: 500}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	original := &apierr.HTTPError{StatusCode: 400}
	_, err := Do(context.Background(), nop, "test", 5, time.Millisecond, func() (int, error) {
		calls++
		return 0, original
	})

	assert.Equal(t, 1, calls)
	// The original error comes back unwrapped.
	var httpErr *apierr.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.StatusCode)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), nop, "test", 3, time.Millisecond, func() (int, error) {
		calls++
		return 0, &apierr.HTTPError{StatusCode: 503}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_FirstTrySuccess(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), nop, "test", 3, time.Hour, func() (int, error) {
		calls++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, nop, "test", 3, time.Minute, func() (int, error) {
			calls++
			return 0, &apierr.HTTPError{StatusCode: 500}
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not abort on context cancel")
	}
}

func TestDo_GenericErrorNotRetried(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), nop, "test", 4, time.Millisecond, func() (int, error) {
		calls++
		return 0, errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
