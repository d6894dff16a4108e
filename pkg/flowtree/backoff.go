package flowtree

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff configures the wait between retry attempts.
// The zero value retries immediately.
type Backoff struct {
	// Delay is the wait before the second attempt.
	Delay time.Duration

	// MaxDelay caps the wait. Zero means no cap.
	MaxDelay time.Duration

	// Multiplier grows the wait after each attempt. Values below 1 keep
	// the wait constant.
	Multiplier float64

	// Jitter is the random jitter factor (0.0-1.0).
	Jitter float64
}

// ConstantBackoff waits d between attempts.
func ConstantBackoff(d time.Duration) Backoff {
	return Backoff{Delay: d}
}

// ExponentialBackoff doubles the wait after every attempt, up to maxDelay, with
// 10% jitter.
func ExponentialBackoff(initial, maxDelay time.Duration) Backoff {
	return Backoff{Delay: initial, MaxDelay: maxDelay, Multiplier: 2, Jitter: 0.1}
}

func (b Backoff) validate() error {
	switch {
	case b.Delay < 0:
		return fmt.Errorf("backoff delay must not be negative, got %s", b.Delay)
	case b.MaxDelay < 0:
		return fmt.Errorf("backoff max delay must not be negative, got %s", b.MaxDelay)
	case b.Multiplier < 0 || math.IsNaN(b.Multiplier):
		return fmt.Errorf("backoff multiplier must not be negative, got %v", b.Multiplier)
	case b.Jitter < 0 || b.Jitter > 1 || math.IsNaN(b.Jitter):
		return fmt.Errorf("backoff jitter must be within [0, 1], got %v", b.Jitter)
	}
	return nil
}

// Next returns the wait after the given failed attempt (1 for the first).
func (b Backoff) Next(attempt int) time.Duration {
	if b.Delay <= 0 || attempt < 1 {
		return 0
	}
	base := float64(b.Delay)
	if b.Multiplier > 1 {
		base *= math.Pow(b.Multiplier, float64(attempt-1))
	}
	if b.MaxDelay > 0 && base > float64(b.MaxDelay) {
		base = float64(b.MaxDelay)
	}
	return withJitter(clampDuration(base), b.Jitter)
}

// withJitter returns base +/- (base * jitter * random).
func withJitter(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	amount := float64(base) * jitter * (rand.Float64()*2 - 1)
	return clampDuration(float64(base) + amount)
}

// clampDuration converts d to a Duration without overflowing into
// negative values.
func clampDuration(d float64) time.Duration {
	switch {
	case math.IsNaN(d) || d <= 0:
		return 0
	case d >= float64(math.MaxInt64):
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
