package observe_test

import (
	"context"
	"fmt"

	"github.com/jwebframework/jweb/health"
	"github.com/jwebframework/jweb/observe"
)

func ExampleCheckMeta_SpanName() {
	meta := observe.CheckMeta{Set: health.SetReadiness, Name: "postgres"}
	fmt.Println(meta.SpanName())
	// Output: health.check.readiness.postgres
}

func ExampleMiddleware_Intercept() {
	ctx := context.Background()

	obs, err := observe.NewObserver(ctx, observe.Config{ServiceName: "example"})
	if err != nil {
		panic(err)
	}
	defer func() { _ = obs.Shutdown(ctx) }()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		panic(err)
	}

	reg := health.NewRegistry(
		health.WithLogger(obs.Logger()),
		health.WithInterceptor(mw.Intercept),
	)
	reg.Register("db", health.StatusFunc(func(ctx context.Context) health.Status {
		return health.Up()
	}))

	report := reg.Check(ctx)
	fmt.Println(report.State, report.HTTPStatus())
	// Output: UP 200
}
