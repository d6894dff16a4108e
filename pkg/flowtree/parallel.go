package flowtree

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

// Branch is the outcome of one parallel branch.
type Branch[T any] struct {
	// Context is the branch's resulting context.
	Context T
	// Report is the branch's report.
	Report Report[T]
}

// MergeFunc combines the branch contexts of a Parallel into one.
//
// branches are in declaration order. The returned context becomes the
// Parallel's result. A returned error makes the Parallel report ERROR with
// original as its context.
type MergeFunc[T any] func(original T, branches []Branch[T]) (T, error)

// DefaultMerge replays every key each branch wrote or deleted onto
// original's Context, in declaration order, so the last declared branch
// wins a conflict. Typed fields of custom state types are left untouched.
func DefaultMerge[T State[T]](original T, branches []Branch[T]) (T, error) {
	target := original.Data()
	for _, b := range branches {
		if isNil(b.Context) {
			continue
		}
		target.apply(b.Context.Data())
	}
	return original, nil
}

// ParallelConfig configures a Parallel.
type ParallelConfig[T State[T]] struct {
	// Name identifies the node in reports. Required.
	Name string

	// Branches run concurrently. At least one is required.
	Branches []Flow[T]

	// Merge combines the branch contexts. Defaults to DefaultMerge.
	Merge MergeFunc[T]

	// MaxConcurrency bounds the branches running at once. Zero uses the
	// run's WithParallelLimit setting, which defaults to unbounded.
	MaxConcurrency int
}

// Parallel runs its branches concurrently, each on its own Clone of the
// input, then merges the branch contexts.
type Parallel[T State[T]] struct {
	node
	branches []Flow[T]
	merge    MergeFunc[T]
	limit    int
}

var _ Flow[*Context] = (*Parallel[*Context])(nil)

// NewParallel validates cfg and builds a Parallel.
func NewParallel[T State[T]](cfg ParallelConfig[T]) (*Parallel[T], error) {
	if err := checkName(TypeParallel, cfg.Name); err != nil {
		return nil, err
	}
	if len(cfg.Branches) == 0 {
		return nil, builderError(TypeParallel, cfg.Name, "at least one branch is required")
	}
	for i, b := range cfg.Branches {
		if err := checkChild(TypeParallel, cfg.Name, fmt.Sprintf("branches[%d]", i), b); err != nil {
			return nil, err
		}
	}
	if cfg.MaxConcurrency < 0 {
		return nil, builderError(TypeParallel, cfg.Name, "max concurrency must not be negative, got %d", cfg.MaxConcurrency)
	}
	if err := checkUnique(TypeParallel, cfg.Name, cfg.Branches...); err != nil {
		return nil, err
	}

	merge := cfg.Merge
	if merge == nil {
		merge = DefaultMerge[T]
	}
	return &Parallel[T]{
		node:     newNode(cfg.Name, TypeParallel),
		branches: append([]Flow[T]{}, cfg.Branches...),
		merge:    merge,
		limit:    cfg.MaxConcurrency,
	}, nil
}

// Children returns the branches.
func (p *Parallel[T]) Children() []Flow[T] {
	return append([]Flow[T]{}, p.branches...)
}

// Clone deep-copies the parallel node.
func (p *Parallel[T]) Clone(name string) Flow[T] {
	return &Parallel[T]{
		node:     p.cloned(name),
		branches: cloneFlows(p.branches),
		merge:    p.merge,
		limit:    p.limit,
	}
}

// Execute runs the branches and merges their results.
func (p *Parallel[T]) Execute(ctx context.Context, c T, meta Metadata) Report[T] {
	return execute(ctx, p, c, meta, p.run)
}

func (p *Parallel[T]) run(ctx context.Context, c T, meta Metadata) Report[T] {
	inputs := make([]T, len(p.branches))
	for i := range p.branches {
		inputs[i] = c.Clone()
		inputs[i].Data().resetJournal()
	}

	limit := p.limit
	if limit == 0 {
		limit = runtimeFrom(ctx).parallelLimit
	}

	results := make([]Branch[T], len(p.branches))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, branch := range p.branches {
		g.Go(func() error {
			rep := branch.Execute(gctx, inputs[i], meta)
			results[i] = Branch[T]{Context: rep.context, Report: rep}
			return nil
		})
	}
	_ = g.Wait()

	var (
		errs, warns []*fault.FlowError
		children    = make([]*Execution, 0, len(results))
	)
	for _, r := range results {
		errs = append(errs, r.Report.errors...)
		warns = append(warns, r.Report.warnings...)
		children = append(children, r.Report.exec)
	}

	if ctx.Err() != nil {
		return newReport(c, errs, warns).withChildren(children...)
	}

	merged := c
	err := guard(func() error {
		var mergeErr error
		merged, mergeErr = p.merge(c, results)
		return mergeErr
	})
	if err != nil || isNil(merged) {
		if err == nil {
			err = errors.New("merge returned no context")
		}
		merged = c
		errs = append(errs, failuref(err, "merge failed"))
	}

	return newReport(merged, errs, warns).withChildren(children...)
}
