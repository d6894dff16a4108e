package flowtree

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

func retryable(t *testing.T, f Flow[*Context], filter fault.RecoverableFilter, attempts int, b Backoff) *Retryable[*Context] {
	t.Helper()
	r, err := NewRetryable(RetryableConfig[*Context]{
		Name:        "retry",
		Flow:        f,
		Filter:      filter,
		MaxAttempts: attempts,
		Backoff:     b,
	})
	require.NoError(t, err)
	return r
}

// flaky fails with a technical error until the given attempt.
func flaky(t *testing.T, calls *atomic.Int32, succeedOn int) *Step[*Context] {
	t.Helper()
	return mustStep(t, "call", func(ctx context.Context, c *Context, _ Metadata) (Report[*Context], error) {
		n := int(calls.Add(1))
		c.Set("count", ValueOr(c, "count", 0)+1)
		c.Set("attempt", Attempt(ctx))
		if succeedOn > 0 && n >= succeedOn {
			return Success(c), nil
		}
		return Failure(c, fault.Technicalf("attempt %d failed", n)), nil
	})
}

func TestRetryable_SucceedsOnThirdAttempt(t *testing.T) {
	var calls atomic.Int32
	r := retryable(t, flaky(t, &calls, 3), fault.RecoverTechnical, 3, Backoff{})

	rep := executeFlow(r, NewContext())

	assert.Equal(t, StatusSuccess, rep.Status())
	assert.Equal(t, int32(3), calls.Load())
	assert.Empty(t, rep.Errors())
	assert.Equal(t, 3, ValueOr(rep.Context(), "attempt", 0))
	assert.Equal(t, 1, ValueOr(rep.Context(), "count", 0), "failed attempts' writes are discarded")

	attempts := rep.Execution().Children
	require.Len(t, attempts, 3)
	for i, a := range attempts {
		assert.Equal(t, i+1, a.Attempt)
	}
	assert.Equal(t, StatusError, attempts[0].Status)
	assert.Equal(t, StatusSuccess, attempts[2].Status)
}

func TestRetryable_ExhaustsBudget(t *testing.T) {
	var calls atomic.Int32
	r := retryable(t, flaky(t, &calls, 0), fault.RecoverTechnical, 3, Backoff{})

	c := NewContext()
	rep := executeFlow(r, c)

	assert.Equal(t, StatusError, rep.Status())
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []string{"attempt 3 failed"}, errorMessages(rep.Errors()), "errors are the last attempt's, not demoted")
	assert.Empty(t, rep.Warnings())
	assert.Equal(t, 1, ValueOr(rep.Context(), "count", 0))
	assert.False(t, c.Has("count"), "the input context is never mutated")
}

func TestRetryable_NonMatchingErrorStopsImmediately(t *testing.T) {
	var calls atomic.Int32
	step := mustStep(t, "validate", func(_ context.Context, c *Context, _ Metadata) (Report[*Context], error) {
		calls.Add(1)
		return Failure(c, fault.Functionalf("invalid card")), nil
	})
	r := retryable(t, step, fault.RecoverTechnical, 5, Backoff{})

	rep := executeFlow(r, NewContext())
	assert.Equal(t, StatusError, rep.Status())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryable_WarningIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	step := mustStep(t, "call", func(_ context.Context, c *Context, _ Metadata) (Report[*Context], error) {
		calls.Add(1)
		return SuccessWithWarning(c, fault.Technicalf("slow")), nil
	})
	r := retryable(t, step, fault.RecoverAll, 3, Backoff{})

	rep := executeFlow(r, NewContext())
	assert.Equal(t, StatusWarning, rep.Status())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryable_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	r := retryable(t, flaky(t, &calls, 0), fault.RecoverAll, 1, Backoff{})
	assert.Equal(t, StatusError, executeFlow(r, NewContext()).Status())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryable_WaitsBetweenAttempts(t *testing.T) {
	var calls atomic.Int32
	r := retryable(t, flaky(t, &calls, 3), fault.RecoverTechnical, 3, ConstantBackoff(20*time.Millisecond))

	start := time.Now()
	rep := executeFlow(r, NewContext())
	assert.Equal(t, StatusSuccess, rep.Status())
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRetryable_CancelDuringBackoff(t *testing.T) {
	var calls atomic.Int32
	r := retryable(t, flaky(t, &calls, 0), fault.RecoverTechnical, 5, ConstantBackoff(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	rep := r.Execute(ctx, NewContext(), NewMetadata())
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StatusError, rep.Status())
}

func TestAttempt_OutsideRetry(t *testing.T) {
	assert.Equal(t, 1, Attempt(context.Background()))
	assert.Equal(t, 0, rawAttempt(context.Background()))
	assert.Equal(t, 4, Attempt(withAttempt(context.Background(), 4)))
}

func TestBackoff_Next(t *testing.T) {
	tests := []struct {
		name    string
		backoff Backoff
		attempt int
		want    time.Duration
	}{
		{"zero value", Backoff{}, 1, 0},
		{"constant", ConstantBackoff(50 * time.Millisecond), 4, 50 * time.Millisecond},
		{"exponential first", Backoff{Delay: 10 * time.Millisecond, Multiplier: 2}, 1, 10 * time.Millisecond},
		{"exponential third", Backoff{Delay: 10 * time.Millisecond, Multiplier: 2}, 3, 40 * time.Millisecond},
		{"capped", Backoff{Delay: 10 * time.Millisecond, Multiplier: 10, MaxDelay: 50 * time.Millisecond}, 3, 50 * time.Millisecond},
		{"attempt zero", ConstantBackoff(time.Second), 0, 0},
		{"uncapped large attempt", Backoff{Delay: time.Second, Multiplier: 2}, 64, time.Duration(math.MaxInt64)},
		{"uncapped past overflow", Backoff{Delay: time.Second, Multiplier: 2}, 35, time.Duration(math.MaxInt64)},
		{"capped large attempt", Backoff{Delay: time.Second, Multiplier: 2, MaxDelay: time.Minute}, 1000, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.backoff.Next(tt.attempt))
		})
	}
}

func TestBackoff_Jitter(t *testing.T) {
	b := ExponentialBackoff(100*time.Millisecond, time.Second)
	for i := 0; i < 100; i++ {
		d := b.Next(2)
		assert.GreaterOrEqual(t, d, 180*time.Millisecond)
		assert.LessOrEqual(t, d, 220*time.Millisecond)
	}
	// Jitter never pushes past the cap by more than the jitter factor.
	assert.LessOrEqual(t, b.Next(10), 1100*time.Millisecond)

	// Without a cap the wait saturates instead of wrapping negative.
	uncapped := ExponentialBackoff(time.Second, 0)
	for _, attempt := range []int{35, 40, 64, 1 << 20} {
		d := uncapped.Next(attempt)
		assert.Positive(t, d, "attempt %d", attempt)
		assert.GreaterOrEqual(t, d, time.Duration(float64(math.MaxInt64)*0.89), "attempt %d", attempt)
	}
}

func TestRetryable_UncappedBackoffStillWaits(t *testing.T) {
	var calls atomic.Int32
	// The second wait is far beyond the Duration range.
	r := retryable(t, flaky(t, &calls, 0), fault.RecoverTechnical, 50, Backoff{Delay: time.Nanosecond, Multiplier: 1e20})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	rep := r.Execute(ctx, NewContext(), NewMetadata())
	assert.Equal(t, StatusError, rep.Status())
	assert.Equal(t, int32(2), calls.Load())
}

func TestBackoff_Validate(t *testing.T) {
	invalid := []Backoff{
		{Delay: -time.Second},
		{MaxDelay: -time.Second},
		{Multiplier: -1},
		{Jitter: 1.5},
		{Jitter: -0.1},
	}
	for _, b := range invalid {
		assert.Error(t, b.validate(), "%+v", b)

		_, err := NewRetryable(RetryableConfig[*Context]{
			Name:        "r",
			Flow:        noop(t, "x"),
			Filter:      fault.RecoverAll,
			MaxAttempts: 2,
			Backoff:     b,
		})
		assert.ErrorIs(t, err, ErrInvalidFlow)
	}
	assert.NoError(t, ExponentialBackoff(time.Millisecond, time.Second).validate())
}

func TestWait(t *testing.T) {
	assert.NoError(t, wait(context.Background(), 0))
	assert.NoError(t, wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(wait(ctx, time.Hour), context.Canceled))
}
