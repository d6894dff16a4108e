package flowtree

import (
	"context"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
	"github.com/randalmurphal/flowtree/pkg/flowtree/observability"
)

// RetryableConfig configures a Retryable.
type RetryableConfig[T State[T]] struct {
	// Name identifies the node in reports. Required.
	Name string

	// Flow is the flow to retry. Required.
	Flow Flow[T]

	// Filter selects the failures worth retrying. Required.
	Filter fault.RecoverableFilter

	// MaxAttempts is the attempt budget, including the first. Must be >= 1.
	MaxAttempts int

	// Backoff sets the wait between attempts. The zero value does not wait.
	Backoff Backoff
}

// Retryable re-runs a flow while it fails with eligible errors.
//
// Every attempt runs on a Clone of the input, so changes made by failed
// attempts are discarded. The report of the last attempt is returned as is.
type Retryable[T State[T]] struct {
	node
	flow        Flow[T]
	filter      fault.RecoverableFilter
	maxAttempts int
	backoff     Backoff
}

var _ Flow[*Context] = (*Retryable[*Context])(nil)

// NewRetryable validates cfg and builds a Retryable.
func NewRetryable[T State[T]](cfg RetryableConfig[T]) (*Retryable[T], error) {
	if err := checkName(TypeRetryable, cfg.Name); err != nil {
		return nil, err
	}
	if err := checkChild(TypeRetryable, cfg.Name, "flow", cfg.Flow); err != nil {
		return nil, err
	}
	if !cfg.Filter.Valid() {
		return nil, builderError(TypeRetryable, cfg.Name, "a recoverable filter is required")
	}
	if cfg.MaxAttempts < 1 {
		return nil, builderError(TypeRetryable, cfg.Name, "max attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	if err := cfg.Backoff.validate(); err != nil {
		return nil, builderError(TypeRetryable, cfg.Name, "%v", err)
	}
	return &Retryable[T]{
		node:        newNode(cfg.Name, TypeRetryable),
		flow:        cfg.Flow,
		filter:      cfg.Filter,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
	}, nil
}

// Children returns the retried flow.
func (r *Retryable[T]) Children() []Flow[T] {
	return []Flow[T]{r.flow}
}

// Filter returns the filter deciding which failures are retried.
func (r *Retryable[T]) Filter() fault.RecoverableFilter { return r.filter }

// MaxAttempts returns the attempt budget.
func (r *Retryable[T]) MaxAttempts() int { return r.maxAttempts }

// Clone deep-copies the retryable.
func (r *Retryable[T]) Clone(name string) Flow[T] {
	return &Retryable[T]{
		node:        r.cloned(name),
		flow:        r.flow.Clone(""),
		filter:      r.filter,
		maxAttempts: r.maxAttempts,
		backoff:     r.backoff,
	}
}

// Execute runs the flow until it stops failing retryably or the budget is
// spent.
func (r *Retryable[T]) Execute(ctx context.Context, c T, meta Metadata) Report[T] {
	return execute(ctx, r, c, meta, r.run)
}

func (r *Retryable[T]) run(ctx context.Context, c T, meta Metadata) Report[T] {
	rt := runtimeFrom(ctx)
	var (
		last     Report[T]
		attempts []*Execution
	)

	for attempt := 1; ; attempt++ {
		last = r.flow.Execute(withAttempt(ctx, attempt), c.Clone(), meta)
		attempts = append(attempts, last.exec)

		if last.Status() != StatusError || !fault.AnyMatches(last.errors, r.filter) || attempt >= r.maxAttempts {
			break
		}

		delay := r.backoff.Next(attempt)
		observability.LogRetry(rt.nodeLog, r.Name(), attempt+1, r.maxAttempts, delay)
		rt.metrics.RecordRetry(ctx, r.Name(), attempt+1)
		if err := wait(ctx, delay); err != nil {
			break
		}
	}

	return newReport(last.context, last.errors, last.warnings).withChildren(attempts...)
}
