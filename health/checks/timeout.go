package checks

import (
	"context"
	"errors"
	"time"

	"github.com/jwebframework/jweb/health"
)

// Timeout wraps check so that it reports DOWN when it does not complete
// within d. The wrapped check keeps running in the background until it
// observes the cancelled context.
func Timeout(check health.Check, d time.Duration) health.Check {
	if d <= 0 {
		d = 30 * time.Second
	}

	return health.CheckFunc(func(ctx context.Context) (health.Status, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		done := make(chan health.Outcome, 1)
		go func() {
			done <- health.Evaluate(ctx, check)
		}()

		select {
		case out := <-done:
			return out.Status, out.Err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return health.Down("check timed out").WithDetails(map[string]any{
					"timeout": d.String(),
					"error":   ErrCheckTimeout.Error(),
				}), nil
			}
			return health.Status{}, ctx.Err()
		}
	})
}
