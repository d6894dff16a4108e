package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records flow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records one node execution with its report status.
	RecordNodeExecution(ctx context.Context, node, nodeType, status string, duration time.Duration)

	// RecordRun records a completed run.
	RecordRun(ctx context.Context, root, status string, duration time.Duration)

	// RecordRetry records a retry scheduled by a Retryable node.
	RecordRetry(ctx context.Context, node string, attempt int)

	// RecordRecovery records a Recoverable node switching to its recover branch.
	RecordRecovery(ctx context.Context, node string)
}

type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	runs           metric.Int64Counter
	runLatency     metric.Float64Histogram
	retries        metric.Int64Counter
	recoveries     metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the default OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("flowtree"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	nodeExecutions, err := meter.Int64Counter("flowtree.node.executions",
		metric.WithDescription("Number of node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("flowtree.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("flowtree.node.errors",
		metric.WithDescription("Number of node executions that reported ERROR"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("flowtree.runs",
		metric.WithDescription("Number of completed runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("flowtree.run.latency_ms",
		metric.WithDescription("Run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter("flowtree.retry.attempts",
		metric.WithDescription("Number of retries scheduled by retryable nodes"),
	)
	if err != nil {
		return nil, err
	}

	recoveries, err := meter.Int64Counter("flowtree.recoveries",
		metric.WithDescription("Number of recover branches executed"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions: nodeExecutions,
		nodeLatency:    nodeLatency,
		nodeErrors:     nodeErrors,
		runs:           runs,
		runLatency:     runLatency,
		retries:        retries,
		recoveries:     recoveries,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder", Err(err))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderWithMeter builds a recorder on an explicit meter instead
// of the global provider.
func NewMetricsRecorderWithMeter(meter metric.Meter) (MetricsRecorder, error) {
	m, err := newOtelMetrics(meter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *otelMetrics) RecordNodeExecution(ctx context.Context, node, nodeType, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("node", node),
		attribute.String("node_type", nodeType),
		attribute.String("status", status),
	)
	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if status == "ERROR" {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordRun(ctx context.Context, root, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("root", root),
		attribute.String("status", status),
	)
	m.runs.Add(ctx, 1, attrs)
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (m *otelMetrics) RecordRetry(ctx context.Context, node string, attempt int) {
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node", node),
		attribute.Int("attempt", attempt),
	))
}

func (m *otelMetrics) RecordRecovery(ctx context.Context, node string) {
	m.recoveries.Add(ctx, 1, metric.WithAttributes(attribute.String("node", node)))
}
