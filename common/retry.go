package common

import (
	"context"
	"fmt"
	"time"
)

// Retry calls fn every retryPeriod until it succeeds, maxWaitTime elapses or
// ctx is done.
func Retry(ctx context.Context, fn func() error, retryPeriod, maxWaitTime time.Duration) error {
	startTime := time.Now()
	for {
		err := fn()
		if err == nil {
			return nil
		}

		if time.Since(startTime) > maxWaitTime {
			return fmt.Errorf("retry timeout, latest err: %w", err)
		}

		if werr := wait(ctx, retryPeriod); werr != nil {
			return fmt.Errorf("retry aborted: %w, latest err: %v", werr, err)
		}
	}
}

// RetryIncreasing is Retry with a delay that grows tenfold per attempt, capped
// at maxDelay.
func RetryIncreasing(ctx context.Context, fn func() error, initialDelay time.Duration, maxDelay time.Duration, maxWaitTime time.Duration) error {
	startTime := time.Now()
	delay := initialDelay

	for {
		err := fn()
		if err == nil {
			return nil
		}

		if time.Since(startTime) > maxWaitTime {
			return fmt.Errorf("retry timeout, latest err: %w", err)
		}

		if werr := wait(ctx, delay); werr != nil {
			return fmt.Errorf("retry aborted: %w, latest err: %v", werr, err)
		}

		delay *= 10
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
