package flowtree

import (
	"context"
	"fmt"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

// SequentialConfig configures a Sequential.
type SequentialConfig[T State[T]] struct {
	// Name identifies the node in reports. Required.
	Name string

	// Steps run in order. At least one is required.
	Steps []Flow[T]

	// Finally, if set, runs after Steps even when one of them failed.
	Finally Flow[T]
}

// Sequential runs its children one after another on the same context.
//
// After a child reports ERROR the remaining steps are skipped; Finally
// still runs. Each child sees the errors and warnings of the children
// before it in its Metadata.
type Sequential[T State[T]] struct {
	node
	steps   []Flow[T]
	finally Flow[T]
}

var _ Flow[*Context] = (*Sequential[*Context])(nil)

// NewSequential validates cfg and builds a Sequential.
func NewSequential[T State[T]](cfg SequentialConfig[T]) (*Sequential[T], error) {
	if err := checkName(TypeSequential, cfg.Name); err != nil {
		return nil, err
	}
	if len(cfg.Steps) == 0 {
		return nil, builderError(TypeSequential, cfg.Name, "at least one step is required")
	}
	for i, s := range cfg.Steps {
		if err := checkChild(TypeSequential, cfg.Name, fmt.Sprintf("steps[%d]", i), s); err != nil {
			return nil, err
		}
	}
	all := append([]Flow[T]{}, cfg.Steps...)
	if !isNil(cfg.Finally) {
		all = append(all, cfg.Finally)
	}
	if err := checkUnique(TypeSequential, cfg.Name, all...); err != nil {
		return nil, err
	}

	s := &Sequential[T]{
		node:  newNode(cfg.Name, TypeSequential),
		steps: append([]Flow[T]{}, cfg.Steps...),
	}
	if !isNil(cfg.Finally) {
		s.finally = cfg.Finally
	}
	return s, nil
}

// Children returns the steps followed by the finally child, if any.
func (s *Sequential[T]) Children() []Flow[T] {
	out := append([]Flow[T]{}, s.steps...)
	if s.finally != nil {
		out = append(out, s.finally)
	}
	return out
}

// Clone deep-copies the sequence.
func (s *Sequential[T]) Clone(name string) Flow[T] {
	cp := &Sequential[T]{node: s.cloned(name), steps: cloneFlows(s.steps)}
	if s.finally != nil {
		cp.finally = s.finally.Clone("")
	}
	return cp
}

// Execute runs the steps in order.
func (s *Sequential[T]) Execute(ctx context.Context, c T, meta Metadata) Report[T] {
	return execute(ctx, s, c, meta, s.run)
}

func (s *Sequential[T]) run(ctx context.Context, c T, meta Metadata) Report[T] {
	var (
		errs, warns []*fault.FlowError
		children    []*Execution
	)
	current := c

	runChild := func(child Flow[T]) Status {
		rep := child.Execute(ctx, current, meta.WithIssues(errs, warns))
		children = append(children, rep.exec)
		errs = append(errs, rep.errors...)
		warns = append(warns, rep.warnings...)
		current = rep.context
		return rep.Status()
	}

	for _, step := range s.steps {
		if ctx.Err() != nil {
			break
		}
		if runChild(step) == StatusError {
			break
		}
	}
	if s.finally != nil && ctx.Err() == nil {
		runChild(s.finally)
	}

	return newReport(current, errs, warns).withChildren(children...)
}
