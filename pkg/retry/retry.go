// Package retry runs an operation again when it fails with a retryable
// error, backing off exponentially with jitter between attempts.
package retry

import (
	"context"
	"math/rand"
	"time"
)

type Policy struct {
	// MaxAttempts counts the first call; 1 disables retrying.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	sleep func(ctx context.Context, d time.Duration) error
}

// Once is the policy that never retries.
func Once() Policy {
	return Policy{MaxAttempts: 1}
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 500 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.sleep == nil {
		p.sleep = sleep
	}
	return p
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// attempts run out. The last error is returned.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error), retryable func(error) bool) (T, error) {
	p = p.withDefaults()
	delay := p.InitialDelay

	var (
		result T
		err    error
	)
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			if sleepErr := p.sleep(ctx, applyJitter(delay)); sleepErr != nil {
				return result, err
			}
			delay = min(time.Duration(float64(delay)*p.Multiplier), p.MaxDelay)
		}

		result, err = fn(ctx)
		if err == nil || retryable == nil || !retryable(err) {
			return result, err
		}
	}

	return result, err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func applyJitter(delay time.Duration) time.Duration {
	jitterFactor := 0.9 + rand.Float64()*0.2
	return time.Duration(float64(delay) * jitterFactor)
}
