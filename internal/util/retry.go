package util

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy describes a bounded exponential-backoff retry loop. It is
// passed explicitly to the call site instead of wrapping functions, so the
// retry behavior of a unit of work is visible where the work is issued.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Factor      float64
}

// DefaultRetryPolicy matches the bounds used for knowledge-graph chunk
// processing: three attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Factor:      2.0,
	}
}

func (p RetryPolicy) backoff(ctx context.Context) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	if p.BaseDelay > 0 {
		bo.InitialInterval = p.BaseDelay
	}
	if p.MaxDelay > 0 {
		bo.MaxInterval = p.MaxDelay
	}
	if p.Factor > 0 {
		bo.Multiplier = p.Factor
	}
	bo.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)
}

// Do runs fn under the policy until it succeeds, the attempts are exhausted
// or the context is done. Context errors are never retried.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	return backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := fn(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}, p.backoff(ctx))
}

// DoValue is Do for a unit of work that produces a value.
func DoValue[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// RetryWithContext calls fn up to maxTries times until it returns a result
// and nil error, or until ctx is done. If maxTries <= 0, it defaults to 1.
// Returns ctx.Err() if the context is canceled, otherwise the last error.
// Unlike RetryPolicy this does not wait between attempts; it is meant for
// cheap local operations, not rate-limited collaborators.
func RetryWithContext[T any](ctx context.Context, maxTries int, fn func(context.Context) (T, error)) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}
