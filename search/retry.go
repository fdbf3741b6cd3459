// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"context"
	"log/slog"
	"time"
)

// Backoff returns the delay to wait after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// FixedBackoff waits the same delay after every failed attempt.
func FixedBackoff(delay time.Duration) Backoff {
	return func(int) time.Duration {
		return delay
	}
}

// ExponentialBackoff waits baseDelay * 2^(attempt-1).
func ExponentialBackoff(baseDelay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}
		return delay
	}
}

// Retry runs operation up to maxAttempts times, sleeping per backoff between
// failed attempts. It stops early on success, on an error marked Permanent,
// or when ctx is done. Returns the number of attempts made and the error
// from the last attempt (or ctx.Err()).
func Retry(ctx context.Context, operation func(attempt int) error, maxAttempts int, backoff Backoff) (int, error) {
	if maxAttempts <= 0 {
		return 0, ErrInvalidMaxAttempts
	}
	if backoff == nil {
		backoff = FixedBackoff(0)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return attempt - 1, ctx.Err()
		default:
		}

		lastErr = operation(attempt)
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return attempt, nil
		}

		if IsPermanent(lastErr) {
			slog.Debug("operation failed permanently", "attempt", attempt, "error", lastErr)
			return attempt, lastErr
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			return attempt, lastErr
		}

		// Sleep with context awareness
		timer := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
			// Continue to next attempt
		}
	}

	return maxAttempts, lastErr
}
