package observe

import (
	"context"

	"go.uber.org/zap"

	"github.com/jwebframework/jweb/health"
)

// Middleware wraps health checks with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Intercept returns checks that are safe for concurrent use
//     whenever the wrapped check is.
//   - Context: the check runs with the context carrying its span.
//   - Errors: statuses and errors from the wrapped check are recorded and
//     returned unchanged. Panics are recovered, recorded and returned as
//     *health.PanicError.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  *zap.Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger *zap.Logger) *Middleware {
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Intercept wraps next with a span, metrics and a debug log line. Its
// signature matches health.Interceptor:
//
//	reg := health.NewRegistry(health.WithInterceptor(mw.Intercept))
func (m *Middleware) Intercept(set health.Set, name string, next health.Check) health.Check {
	meta := CheckMeta{Set: set, Name: name}

	return health.CheckFunc(func(ctx context.Context) (health.Status, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)

		out := health.Evaluate(ctx, next)

		m.tracer.EndSpan(span, out)
		m.metrics.RecordCheck(ctx, meta, out)

		fields := []zap.Field{
			zap.Stringer("set", set),
			zap.String("check", name),
			zap.Float64("duration_ms", float64(out.Duration.Microseconds())/1000),
		}
		if out.Failed() {
			fields = append(fields, zap.Error(out.Err))
		} else {
			fields = append(fields, zap.Stringer("status", out.Status.State))
		}
		m.logger.Debug("health check completed", fields...)

		return out.Status, out.Err
	})
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
