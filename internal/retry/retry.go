package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 8 * time.Second
)

// Policy wraps fallible operations with bounded exponential backoff and full
// jitter. The zero value is usable and applies the defaults.
type Policy struct {
	// MaxAttempts is the total number of invocations including the first.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff curve.
	BaseDelay time.Duration
	// MaxDelay caps the computed delay before jitter is applied.
	MaxDelay time.Duration
	// Retryable reports whether an error is worth another attempt. A nil
	// classifier treats every error as retryable.
	Retryable func(error) bool

	// sleep is swapped in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the policy used across the pipeline for outbound calls.
func Default() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}
}

// Do invokes op until it succeeds, a non-retryable error occurs, or attempts
// are exhausted. The final error is returned unchanged. Between attempts it
// sleeps a uniformly random duration in [0, delay], where delay doubles per
// attempt up to MaxDelay. The sleep honors context cancellation.
func (p Policy) Do(ctx context.Context, op func() error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		if err := p.pause(ctx, attempt); err != nil {
			return err
		}
	}

	return lastErr
}

// Do invokes a value-returning operation under the policy. On failure the
// zero value accompanies the final error.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func (p Policy) pause(ctx context.Context, attempt int) error {
	delay := p.backoffDelay(attempt)
	jittered := time.Duration(rand.Int63n(int64(delay) + 1))

	if p.sleep != nil {
		return p.sleep(ctx, jittered)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jittered):
		return nil
	}
}

// backoffDelay returns the pre-jitter delay ceiling for the given attempt
// (1-based): min(MaxDelay, BaseDelay * 2^(attempt-1)).
func (p Policy) backoffDelay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	delay := float64(base) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}
	return time.Duration(delay)
}
