package service

import (
	"context"
	"fmt"
	"time"
)

// SleepFunc pauses between retry attempts; tests substitute a fake
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// withRetry runs attempt up to maxAttempts times, sleeping between failed
// attempts starting at initialDelay and multiplying by multiplier each time.
// Every failure is treated as retryable. The last error is returned once the
// attempt budget is exhausted.
func withRetry(ctx context.Context, maxAttempts int, initialDelay time.Duration, multiplier int, sleep SleepFunc, attempt func(ctx context.Context) error) error {
	if sleep == nil {
		sleep = sleepWithContext
	}

	delay := initialDelay
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}
		if i == maxAttempts-1 {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay *= time.Duration(multiplier)
	}
	return fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}
