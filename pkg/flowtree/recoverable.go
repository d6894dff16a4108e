package flowtree

import (
	"context"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
	"github.com/randalmurphal/flowtree/pkg/flowtree/observability"
)

// RecoverableConfig configures a Recoverable.
type RecoverableConfig[T State[T]] struct {
	// Name identifies the node in reports. Required.
	Name string

	// Try is the flow attempted first. Required.
	Try Flow[T]

	// Recover runs when Try fails with an error matching Filter. Required.
	Recover Flow[T]

	// Filter selects the failures Recover handles. Required.
	Filter fault.RecoverableFilter
}

// Recoverable runs Try and falls back to Recover on eligible failures.
//
// Try runs on a Clone of the input so that Recover starts from the
// untouched input. When Recover succeeds, the Try errors are kept as
// warnings of the final report.
type Recoverable[T State[T]] struct {
	node
	try     Flow[T]
	recover Flow[T]
	filter  fault.RecoverableFilter
}

var _ Flow[*Context] = (*Recoverable[*Context])(nil)

// NewRecoverable validates cfg and builds a Recoverable.
func NewRecoverable[T State[T]](cfg RecoverableConfig[T]) (*Recoverable[T], error) {
	if err := checkName(TypeRecoverable, cfg.Name); err != nil {
		return nil, err
	}
	if err := checkChild(TypeRecoverable, cfg.Name, "try", cfg.Try); err != nil {
		return nil, err
	}
	if err := checkChild(TypeRecoverable, cfg.Name, "recover", cfg.Recover); err != nil {
		return nil, err
	}
	if !cfg.Filter.Valid() {
		return nil, builderError(TypeRecoverable, cfg.Name, "a recoverable filter is required")
	}
	if err := checkUnique(TypeRecoverable, cfg.Name, cfg.Try, cfg.Recover); err != nil {
		return nil, err
	}
	return &Recoverable[T]{
		node:    newNode(cfg.Name, TypeRecoverable),
		try:     cfg.Try,
		recover: cfg.Recover,
		filter:  cfg.Filter,
	}, nil
}

// Children returns the try and recover flows.
func (r *Recoverable[T]) Children() []Flow[T] {
	return []Flow[T]{r.try, r.recover}
}

// Filter returns the filter deciding which failures are recovered.
func (r *Recoverable[T]) Filter() fault.RecoverableFilter { return r.filter }

// Clone deep-copies the recoverable.
func (r *Recoverable[T]) Clone(name string) Flow[T] {
	return &Recoverable[T]{
		node:    r.cloned(name),
		try:     r.try.Clone(""),
		recover: r.recover.Clone(""),
		filter:  r.filter,
	}
}

// Execute runs Try, then Recover if Try failed recoverably.
func (r *Recoverable[T]) Execute(ctx context.Context, c T, meta Metadata) Report[T] {
	return execute(ctx, r, c, meta, r.run)
}

func (r *Recoverable[T]) run(ctx context.Context, c T, meta Metadata) Report[T] {
	tried := r.try.Execute(ctx, c.Clone(), meta)
	if tried.Status() != StatusError || !fault.AnyMatches(tried.errors, r.filter) || ctx.Err() != nil {
		return passThrough(tried)
	}

	rt := runtimeFrom(ctx)
	observability.LogRecovery(rt.nodeLog, r.Name(), len(tried.errors))
	rt.metrics.RecordRecovery(ctx, r.Name())

	recovered := r.recover.Execute(ctx, c, meta.WithIssues(tried.errors, tried.warnings))
	if recovered.Status() == StatusError {
		return FailureWithWarnings(recovered.context,
			concatErrors(tried.errors, recovered.errors),
			concatErrors(tried.warnings, recovered.warnings),
		).withChildren(tried.exec, recovered.exec)
	}
	return SuccessWithWarnings(recovered.context,
		concatErrors(tried.warnings, tried.errors, recovered.warnings)...,
	).withChildren(tried.exec, recovered.exec)
}
