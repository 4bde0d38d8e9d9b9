package llm

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig controls backoff for transient upstream failures.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig retries twice after the initial attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

// backoffDelay returns the exponential delay for attempt (0-based) with
// ±25% jitter so concurrent retries spread out.
func (c RetryConfig) backoffDelay(attempt int) time.Duration {
	delay := c.BaseDelay << uint(attempt)
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/2+1)) - delay/4
	return delay + jitter
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
