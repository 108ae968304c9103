package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"

	"github.com/jwebframework/jweb/health"
)

func TestMiddleware_Intercept(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	metrics, reader := newTestMetrics(t)
	core, logs := zapobserver.New(zapcore.DebugLevel)

	mw := NewMiddleware(tracer, metrics, zap.New(core))
	reg := health.NewRegistry(health.WithInterceptor(mw.Intercept))

	reg.Register("db", health.StatusFunc(func(ctx context.Context) health.Status {
		return health.Up()
	}))
	reg.RegisterFunc("cache", func(ctx context.Context) (health.Status, error) {
		return health.Status{}, errors.New("cache unreachable")
	})

	report := reg.Check(context.Background())
	if report.State != health.StateDown {
		t.Fatalf("State = %v, want DOWN", report.State)
	}
	cache, _ := report.Component("cache")
	if cache.Message != health.MessageCheckThrew {
		t.Errorf("cache message = %q, want %q", cache.Message, health.MessageCheckThrew)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "health.check.health.db" || spans[1].Name() != "health.check.health.cache" {
		t.Errorf("span names = %q, %q", spans[0].Name(), spans[1].Name())
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("cache span status = %v, want Error", spans[1].Status().Code)
	}

	rm := collect(t, reader)
	if got := counterTotal(t, rm, MetricCheckTotal); got != 2 {
		t.Errorf("%s = %d, want 2", MetricCheckTotal, got)
	}
	if got := counterTotal(t, rm, MetricCheckFailures); got != 1 {
		t.Errorf("%s = %d, want 1", MetricCheckFailures, got)
	}

	completed := logs.FilterMessage("health check completed").AllUntimed()
	if len(completed) != 2 {
		t.Fatalf("got %d completion logs, want 2", len(completed))
	}
	fields := completed[1].ContextMap()
	if fields["check"] != "cache" || fields["error"] != "cache unreachable" {
		t.Errorf("failure log fields = %v", fields)
	}
}

func TestMiddleware_PanicIsRecordedAndIsolated(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	metrics, reader := newTestMetrics(t)

	mw := NewMiddleware(tracer, metrics, nil)
	reg := health.NewRegistry(health.WithInterceptor(mw.Intercept))
	reg.RegisterLiveness("crashy", health.CheckFunc(func(ctx context.Context) (health.Status, error) {
		panic("nil map")
	}))

	report := reg.CheckLiveness(context.Background())
	if report.State != health.StateDown {
		t.Fatalf("State = %v, want DOWN", report.State)
	}

	if spans := recorder.Ended(); len(spans) != 1 || spans[0].Status().Code != codes.Error {
		t.Fatalf("expected one errored span, got %d", len(spans))
	}
	if got := counterTotal(t, collect(t, reader), MetricCheckFailures); got != 1 {
		t.Errorf("%s = %d, want 1", MetricCheckFailures, got)
	}
}

func TestMiddleware_PropagatesSpanContext(t *testing.T) {
	tracer, recorder := newRecordingTracer()
	mw := NewMiddleware(tracer, nil, nil)

	var sawSpan bool
	check := mw.Intercept(health.SetReadiness, "db", health.StatusFunc(func(ctx context.Context) health.Status {
		sawSpan = trace.SpanFromContext(ctx).SpanContext().IsValid()
		return health.Up()
	}))

	status, err := check.Check(context.Background())
	if err != nil || !status.IsUp() {
		t.Fatalf("Check() = %v, %v", status, err)
	}
	if !sawSpan {
		t.Error("wrapped check should run inside the span context")
	}
	if len(recorder.Ended()) != 1 {
		t.Error("span should be ended after the check returns")
	}
}

func TestMiddleware_NilComponents(t *testing.T) {
	mw := NewMiddleware(nil, nil, nil)
	check := mw.Intercept(health.SetGeneral, "noop", health.StatusFunc(func(ctx context.Context) health.Status {
		return health.Degraded("slow")
	}))

	status, err := check.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if status.State != health.StateDegraded || status.Message != "slow" {
		t.Errorf("status = %+v, want DEGRADED slow", status)
	}
}
