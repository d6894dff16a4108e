package flowtree

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/randalmurphal/flowtree/pkg/flowtree/observability"
)

// runtime is the per-run state shared by every node execution, carried in
// the context.Context.
type runtime struct {
	runID  string
	logger *slog.Logger
	// nodeLog is logger with the run ID attached, used for node events.
	nodeLog       *slog.Logger
	spans         observability.SpanManager
	metrics       observability.MetricsRecorder
	parallelLimit int

	executed atomic.Int64
}

// detached serves nodes executed outside Run.
var detached = &runtime{
	spans:   observability.NoopSpanManager{},
	metrics: observability.NoopMetrics{},
}

type (
	runtimeKey struct{}
	nodeKey    struct{}
	attemptKey struct{}
)

func withRuntime(ctx context.Context, rt *runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

func runtimeFrom(ctx context.Context) *runtime {
	if rt, ok := ctx.Value(runtimeKey{}).(*runtime); ok && rt != nil {
		return rt
	}
	return detached
}

func withNodeName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, nodeKey{}, name)
}

func withAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey{}, attempt)
}

// rawAttempt returns the attempt set by the nearest enclosing Retryable,
// or 0 outside of one.
func rawAttempt(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok {
		return n
	}
	return 0
}

// RunID returns the ID of the run executing ctx, or "" outside a run.
func RunID(ctx context.Context) string {
	return runtimeFrom(ctx).runID
}

// NodeName returns the name of the node executing ctx.
func NodeName(ctx context.Context) string {
	if name, ok := ctx.Value(nodeKey{}).(string); ok {
		return name
	}
	return ""
}

// Attempt returns the attempt number of the nearest enclosing Retryable,
// starting at 1. Outside a Retryable it is always 1.
func Attempt(ctx context.Context) int {
	if n := rawAttempt(ctx); n > 0 {
		return n
	}
	return 1
}

// Logger returns the run logger enriched with run ID, node name and
// attempt. Without a run logger it falls back to slog.Default().
func Logger(ctx context.Context) *slog.Logger {
	logger := runtimeFrom(ctx).logger
	if logger == nil {
		logger = slog.Default()
	}
	return observability.EnrichLogger(logger, RunID(ctx), NodeName(ctx), Attempt(ctx))
}
