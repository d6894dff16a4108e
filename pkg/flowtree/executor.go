package flowtree

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
	"github.com/randalmurphal/flowtree/pkg/flowtree/observability"
)

// body is the node-specific part of an execution.
type body[T State[T]] func(ctx context.Context, c T, meta Metadata) Report[T]

// execute runs fn as one execution of n.
//
// It is the single place where node executions are observed: panics become
// UNCLASSIFIED failures, unattributed errors and warnings are attributed to
// n, and the Execution trace, log lines, span and metrics are produced.
func execute[T State[T]](ctx context.Context, n Flow[T], c T, meta Metadata, fn body[T]) Report[T] {
	rt := runtimeFrom(ctx)
	attempt := rawAttempt(ctx)
	name, typ := n.Name(), string(n.Type())

	nodeCtx, span := rt.spans.StartNodeSpan(ctx, name, typ, Attempt(ctx))
	nodeCtx = withNodeName(nodeCtx, name)
	observability.LogNodeStart(rt.nodeLog, name, typ, Attempt(ctx))

	start := time.Now()
	rep := protect(nodeCtx, c, meta, fn)
	duration := time.Since(start)

	rep.errors = attribute(rep.errors, n)
	rep.warnings = attribute(rep.warnings, n)
	status := rep.Status()

	rep.exec = &Execution{
		Name:     name,
		NodeID:   n.ID(),
		Type:     n.Type(),
		Status:   status,
		Attempt:  attempt,
		Errors:   cloneErrors(rep.errors),
		Warnings: cloneErrors(rep.warnings),
		Started:  start,
		Duration: duration,
		Children: rep.children,
	}
	rep.children = nil
	rt.executed.Add(1)

	var first error
	if len(rep.errors) > 0 {
		first = rep.errors[0]
	}
	rt.spans.EndSpan(span, status.String(), first)
	rt.metrics.RecordNodeExecution(ctx, name, typ, status.String(), duration)
	observability.LogNodeComplete(rt.nodeLog, name, typ, status.String(), durationMs(duration), asErrors(rep.errors))

	return rep
}

// protect calls fn, converting a panic into a failure report and a report
// without a context into one carrying c.
func protect[T State[T]](ctx context.Context, c T, meta Metadata, fn body[T]) (rep Report[T]) {
	defer func() {
		if r := recover(); r != nil {
			rep = Failure(c, fault.Classify(&fault.PanicError{
				Value: r,
				Stack: string(debug.Stack()),
			}))
		}
	}()

	rep = fn(ctx, c, meta)
	if isNil(rep.context) {
		rep.context = c
	}
	return rep
}

// guard calls fn and turns a panic into an error. It is used for user
// callbacks whose failure must not discard sibling results, such as merges.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &fault.PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}

func attribute(errs []*fault.FlowError, n fault.Node) []*fault.FlowError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]*fault.FlowError, len(errs))
	for i, e := range errs {
		out[i] = e.WithNode(n)
	}
	return out
}

func asErrors(errs []*fault.FlowError) []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// failuref builds an UNCLASSIFIED failure for engine-detected problems,
// such as a predicate that could not be evaluated.
// Errors that already carry a classification keep it.
func failuref(cause error, format string, args ...any) *fault.FlowError {
	var fe *fault.FlowError
	if errors.As(cause, &fe) {
		return fault.Classify(cause)
	}
	return &fault.FlowError{
		Kind:    fault.KindUnclassified,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}
