package network

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy retries a call a fixed number of times with a fixed delay.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	// OnRetry is called before each wait with the failed attempt number.
	OnRetry func(attempt int, err error)
}

// Permanent marks err as not worth retrying. Retry returns the wrapped error.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// backOff builds a constant schedule capped at Attempts calls and bound to ctx.
func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	constant := backoff.NewConstantBackOff(p.Delay)
	return backoff.WithContext(backoff.WithMaxRetries(constant, uint64(attempts-1)), ctx)
}

// Retry calls fn until it succeeds, returns a Permanent error, the attempts
// run out or ctx is done. Context errors from fn end the loop at once.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	operation := func() error {
		err := fn(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}

	attempt := 0
	notify := func(err error, _ time.Duration) {
		attempt++
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}
	}

	return backoff.RetryNotify(operation, policy.backOff(ctx), notify)
}
