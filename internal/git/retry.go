package git

import (
	"context"
	"time"
)

// RetryPolicy bounds retries of network-class failures. The delay before
// retrying attempt i (0-indexed) is InitialDelay * Multiplier^i.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy returns the policy used when none is configured:
// four attempts at 2s, 4s, 8s spacing.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  4,
		InitialDelay: 2 * time.Second,
		Multiplier:   2.0,
	}
}

// Delay returns the backoff delay before retrying the given 0-indexed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := float64(p.InitialDelay)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
	}
	return time.Duration(d)
}

// withRetry runs fn up to p.MaxAttempts times. Only network-class failures
// are retried; any other error propagates immediately. After exhausting all
// attempts the last network failure is returned.
func withRetry(ctx context.Context, p RetryPolicy, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) {
			return err
		}

		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}
