// ABOUTME: Bounded exponential-backoff retry for API calls
// ABOUTME: Consults the error classifier to decide whether a failure is transient

package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucasreis/postdeck/internal/apierr"
)

// Do runs op up to maxAttempts times, sleeping baseDelay*2^(attempt-1)
// between attempts. Non-retryable failures and the final failure are
// returned as-is, immediately; the original error is never swallowed.
func Do[T any](ctx context.Context, logger zerolog.Logger, label string, maxAttempts int, baseDelay time.Duration, op func() (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("op", label).
					Int("attempt", attempt).
					Msg("succeeded after retry")
			}
			return result, nil
		}

		lastErr = err
		classified := apierr.Classify(err, "")
		if attempt == maxAttempts || !apierr.IsRetryable(classified) {
			apierr.Log(logger, label, err, classified)
			return zero, err
		}

		delay := baseDelay << (attempt - 1)
		logger.Debug().
			Str("op", label).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("delay", delay).
			Msg("transient failure, retrying")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
