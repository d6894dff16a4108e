package flowtree

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/flowtree/pkg/flowtree/observability"
)

// Run executes root once against initial and returns the run's report.
//
// Failures inside the tree never surface as an error; they are in the
// report. The error is non-nil only when an argument is nil
// (ErrNilContext, ErrNilRoot, ErrNilState) or when ctx ends before the run
// completes, in which case it is a *CancellationError and no report is
// returned.
//
// Example:
//
//	report, err := flowtree.Run(ctx, checkout, state,
//	    flowtree.WithLogger(logger),
//	    flowtree.WithTracing(true))
//	if err != nil {
//	    return err
//	}
//	if report.Status() == flowtree.StatusError {
//	    fmt.Print(report.TrailString())
//	}
func Run[T State[T]](ctx context.Context, root Flow[T], initial T, opts ...RunOption) (*GlobalReport[T], error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if isNil(root) {
		return nil, ErrNilRoot
	}
	if isNil(initial) || initial.Data() == nil {
		return nil, ErrNilState
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	runID := cfg.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	rt := &runtime{
		runID:         runID,
		logger:        cfg.logger,
		spans:         cfg.spans,
		metrics:       cfg.metrics,
		parallelLimit: cfg.parallelLimit,
	}
	if cfg.logger != nil {
		rt.nodeLog = cfg.logger.With(observability.RunID(runID))
	}

	started := time.Now()
	observability.LogRunStart(cfg.logger, runID, root.Name())

	runCtx, span := rt.spans.StartRunSpan(ctx, root.Name(), runID)
	runCtx = withRuntime(runCtx, rt)

	meta := NewMetadata()
	if cfg.hasData {
		meta = meta.WithData(cfg.data)
	}
	rep := root.Execute(runCtx, initial, meta)
	duration := time.Since(started)

	if err := ctx.Err(); err != nil {
		rt.spans.EndSpan(span, "CANCELLED", err)
		observability.LogRunCancelled(cfg.logger, runID, root.Name(), err, durationMs(duration))
		return nil, &CancellationError{RunID: runID, Root: root.Name(), Elapsed: duration, Cause: err}
	}

	status := rep.Status().String()
	var first error
	if len(rep.errors) > 0 {
		first = rep.errors[0]
	}
	rt.spans.EndSpan(span, status, first)
	rt.metrics.RecordRun(ctx, root.Name(), status, duration)
	observability.LogRunComplete(cfg.logger, runID, root.Name(), status, durationMs(duration), int(rt.executed.Load()))

	report := &GlobalReport[T]{
		Report:   rep,
		runID:    runID,
		started:  started,
		duration: duration,
	}

	if cfg.archive != nil {
		if err := SaveSnapshot(cfg.archive, report.Snapshot()); err != nil {
			observability.LogArchiveError(cfg.logger, runID, err)
		}
	}

	return report, nil
}
