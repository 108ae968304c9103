package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jwebframework/jweb/health"
)

// Metric instrument names.
const (
	MetricCheckTotal    = "health.check.total"
	MetricCheckFailures = "health.check.failures"
	MetricCheckDuration = "health.check.duration_ms"
)

// Metrics records health check invocations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCheck records one check invocation and its outcome.
	RecordCheck(ctx context.Context, meta CheckMeta, out health.Outcome)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	failureCount metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the check instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		MetricCheckTotal,
		metric.WithDescription("Total number of health check invocations"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	failureCount, err := meter.Int64Counter(
		MetricCheckFailures,
		metric.WithDescription("Health check invocations that failed to return a status"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricCheckDuration,
		metric.WithDescription("Health check duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		failureCount: failureCount,
		durationHist: durationHist,
	}, nil
}

// RecordCheck increments the total counter with the reported state, the
// failure counter when the check raised an error or panicked, and records the
// duration.
func (m *metricsImpl) RecordCheck(ctx context.Context, meta CheckMeta, out health.Outcome) {
	attrs := meta.attributes()
	opt := metric.WithAttributes(attrs...)

	state := out.Status.State.String()
	if out.Failed() {
		state = health.StateDown.String()
		m.failureCount.Add(ctx, 1, opt)
	}
	m.totalCount.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("health.status", state))...))

	m.durationHist.Record(ctx, float64(out.Duration.Microseconds())/1000, opt)
}

type noopMetrics struct{}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordCheck(context.Context, CheckMeta, health.Outcome) {}
