package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jwebframework/jweb/health"
)

// CheckMeta identifies a health check invocation for telemetry purposes.
type CheckMeta struct {
	Set  health.Set // Check set the invocation belongs to
	Name string     // Check name within the set
}

// SpanName returns the deterministic span name for this check.
// Format: health.check.<set>.<name>
func (m CheckMeta) SpanName() string {
	return "health.check." + m.Set.String() + "." + m.Name
}

func (m CheckMeta) attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("health.set", m.Set.String()),
		attribute.String("health.check", m.Name),
	}
}

// Tracer wraps OpenTelemetry tracing with check-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a check invocation.
	StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the check outcome.
	EndSpan(span trace.Span, out health.Outcome)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("health.error", false))

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan records the reported status on the span. A failed check marks the
// span as errored; a DOWN status alone does not.
func (t *tracerImpl) EndSpan(span trace.Span, out health.Outcome) {
	if out.Failed() {
		span.SetStatus(codes.Error, out.Err.Error())
		span.SetAttributes(attribute.Bool("health.error", true))
		span.RecordError(out.Err)
	} else {
		span.SetAttributes(attribute.String("health.status", out.Status.State.String()))
		if out.Status.Message != "" {
			span.SetAttributes(attribute.String("health.message", out.Status.Message))
		}
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer returns a Tracer that records nothing.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CheckMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ health.Outcome) {
	span.End()
}
