package checks

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/jwebframework/jweb/health"
)

// Coalesce wraps check so that concurrent invocations share a single
// in-flight evaluation. Callers that join an in-flight evaluation receive its
// result, computed with the context of the caller that started it.
func Coalesce(check health.Check) health.Check {
	return &coalesced{check: check}
}

type coalesced struct {
	check health.Check
	group singleflight.Group
}

func (c *coalesced) Check(ctx context.Context) (health.Status, error) {
	v, _, _ := c.group.Do("check", func() (any, error) {
		return health.Evaluate(ctx, c.check), nil
	})
	out := v.(health.Outcome)
	return out.Status, out.Err
}
