package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("flowtree")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRunSpan starts a span for the entire run.
	StartRunSpan(ctx context.Context, root, runID string) (context.Context, trace.Span)

	// StartNodeSpan starts a span for one node execution.
	// Nested node executions produce nested spans.
	StartNodeSpan(ctx context.Context, node, nodeType string, attempt int) (context.Context, trace.Span)

	// EndSpan completes a span with the report status and its first error.
	EndSpan(span trace.Span, status string, err error)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// Configure the global provider before running flows:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartRunSpan starts a span for the entire run.
func (m *otelSpanManager) StartRunSpan(ctx context.Context, root, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "flowtree.run",
		trace.WithAttributes(
			attribute.String("flow.root", root),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartNodeSpan starts a span for a node execution.
func (m *otelSpanManager) StartNodeSpan(ctx context.Context, node, nodeType string, attempt int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "flowtree.node",
		trace.WithAttributes(
			attribute.String("node.name", node),
			attribute.String("node.type", nodeType),
			attribute.Int("node.attempt", attempt),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan completes a span. ERROR and CANCELLED mark the span as failed;
// warnings keep it OK but are visible through the status attribute.
func (m *otelSpanManager) EndSpan(span trace.Span, status string, err error) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.String("flow.status", status))
	if err != nil {
		span.RecordError(err)
	}
	if status == "ERROR" || status == "CANCELLED" {
		msg := status
		if err != nil {
			msg = err.Error()
		}
		span.SetStatus(codes.Error, msg)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
