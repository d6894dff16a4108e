package flowtree

import (
	"io"
	"log/slog"

	"github.com/randalmurphal/flowtree/pkg/flowtree/archive"
	"github.com/randalmurphal/flowtree/pkg/flowtree/config"
	"github.com/randalmurphal/flowtree/pkg/flowtree/observability"
)

// runConfig holds configuration for one run.
type runConfig struct {
	runID         string
	logger        *slog.Logger
	spans         observability.SpanManager
	metrics       observability.MetricsRecorder
	parallelLimit int
	archive       archive.Store
	data          any
	hasData       bool
}

// defaultRunConfig returns the default run configuration: no logging,
// tracing, metrics or archive.
func defaultRunConfig() runConfig {
	return runConfig{
		spans:   observability.NoopSpanManager{},
		metrics: observability.NoopMetrics{},
	}
}

// RunOption configures a run.
type RunOption func(*runConfig)

// WithRunID sets the run ID. Default: a random UUID.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithLogger logs run and node events to logger. Steps get the same logger,
// enriched with run and node attributes, through Logger(ctx).
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithTracing enables OpenTelemetry spans for the run and every node
// execution, using the global tracer provider.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter provider.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder records metrics with rec, for example one built by
// observability.NewMetricsRecorderWithMeter.
func WithMetricsRecorder(rec observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithParallelLimit bounds the branches of every Parallel node that sets no
// MaxConcurrency of its own. Default: unbounded.
func WithParallelLimit(n int) RunOption {
	return func(c *runConfig) {
		if n >= 0 {
			c.parallelLimit = n
		}
	}
}

// WithArchive saves a snapshot of the report to store when the run
// completes. Archive failures are logged and do not affect the result.
func WithArchive(store archive.Store) RunOption {
	return func(c *runConfig) {
		c.archive = store
	}
}

// WithData passes v to the root node as its Metadata data.
func WithData(v any) RunOption {
	return func(c *runConfig) {
		c.data = v
		c.hasData = true
	}
}

// OptionsFromSettings converts settings into run options. Logs are written
// to logOutput. The archive is not opened here; use archive.Open and
// WithArchive so the caller controls its lifetime.
func OptionsFromSettings(s config.Settings, logOutput io.Writer) ([]RunOption, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	logger, err := s.NewLogger(logOutput)
	if err != nil {
		return nil, err
	}
	return []RunOption{
		WithLogger(logger),
		WithTracing(s.Tracing),
		WithMetrics(s.Metrics),
		WithParallelLimit(s.Parallel.MaxConcurrency),
	}, nil
}
