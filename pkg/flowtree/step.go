package flowtree

import (
	"context"
)

// StepFunc is the business logic wrapped by a Step.
//
// Expected failures should be reported through Failure with a TECHNICAL or
// FUNCTIONAL error so that Retryable and Recoverable can act on them. A
// returned error is classified with fault.Classify: it keeps its kind when it
// wraps a *fault.FlowError and is UNCLASSIFIED otherwise.
type StepFunc[T any] func(ctx context.Context, c T, meta Metadata) (Report[T], error)

// SimpleStep adapts a function that mutates the context and returns an
// error into a StepFunc.
func SimpleStep[T any](fn func(ctx context.Context, c T) error) StepFunc[T] {
	return func(ctx context.Context, c T, _ Metadata) (Report[T], error) {
		if err := fn(ctx, c); err != nil {
			return Report[T]{}, err
		}
		return Success(c), nil
	}
}

// StepConfig configures a Step.
type StepConfig[T State[T]] struct {
	// Name identifies the step in reports. Required.
	Name string

	// Func is the work to do. Required.
	Func StepFunc[T]
}

// Step is a leaf node wrapping a StepFunc.
type Step[T State[T]] struct {
	node
	fn StepFunc[T]
}

var _ Flow[*Context] = (*Step[*Context])(nil)

// NewStep validates cfg and builds a Step.
func NewStep[T State[T]](cfg StepConfig[T]) (*Step[T], error) {
	if err := checkName(TypeStep, cfg.Name); err != nil {
		return nil, err
	}
	if cfg.Func == nil {
		return nil, builderError(TypeStep, cfg.Name, "func is required")
	}
	return &Step[T]{node: newNode(cfg.Name, TypeStep), fn: cfg.Func}, nil
}

// Children returns nil.
func (s *Step[T]) Children() []Flow[T] { return nil }

// Clone returns a copy of the step with a fresh identity.
func (s *Step[T]) Clone(name string) Flow[T] {
	return &Step[T]{node: s.cloned(name), fn: s.fn}
}

// Execute runs the step function.
func (s *Step[T]) Execute(ctx context.Context, c T, meta Metadata) Report[T] {
	return execute(ctx, s, c, meta, s.run)
}

func (s *Step[T]) run(ctx context.Context, c T, meta Metadata) Report[T] {
	rep, err := s.fn(ctx, c, meta)
	if err != nil {
		return Failure(c, failuref(err, "step failed"))
	}
	return newReport(rep.context, rep.errors, rep.warnings)
}

// NoOp is a leaf node that returns its input unchanged. It fills
// structurally required branches, such as the unused side of a Conditional.
type NoOp[T State[T]] struct {
	node
}

var _ Flow[*Context] = (*NoOp[*Context])(nil)

// NewNoOp builds a NoOp.
func NewNoOp[T State[T]](name string) (*NoOp[T], error) {
	if err := checkName(TypeNoOp, name); err != nil {
		return nil, err
	}
	return &NoOp[T]{node: newNode(name, TypeNoOp)}, nil
}

// Children returns nil.
func (n *NoOp[T]) Children() []Flow[T] { return nil }

// Clone returns a copy with a fresh identity.
func (n *NoOp[T]) Clone(name string) Flow[T] {
	return &NoOp[T]{node: n.cloned(name)}
}

// Execute returns a SUCCESS report with c.
func (n *NoOp[T]) Execute(ctx context.Context, c T, meta Metadata) Report[T] {
	return execute(ctx, n, c, meta, func(_ context.Context, c T, _ Metadata) Report[T] {
		return Success(c)
	})
}
