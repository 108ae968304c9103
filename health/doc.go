// Package health provides the health-check registry and aggregator used by
// JWeb applications to answer orchestration probes.
//
// # Core Concepts
//
// A Check evaluates one component and returns a Status: UP, DEGRADED or DOWN
// with an optional message and diagnostic details. Checks are registered by
// name in a Registry, which keeps three independent sets:
//
//   - the general set, reported by Registry.Check and GET /health
//   - the liveness set, reported by Registry.CheckLiveness and GET /health/live
//   - the readiness set, reported by Registry.CheckReadiness and GET /health/ready
//
// Register adds a check to both the general and readiness sets;
// RegisterLiveness and RegisterReadiness target a single set.
//
// # Aggregation
//
// A set is evaluated sequentially in registration order on the caller's
// goroutine. A check that returns an error or panics is reported as DOWN and
// never stops the remaining checks. The overall state is DOWN if any check is
// DOWN, otherwise DEGRADED if any check is DEGRADED, otherwise UP. DOWN maps to
// HTTP 503; UP and DEGRADED map to 200.
//
// When no liveness checks are registered the liveness probe reports UP
// without invoking anything.
//
// # Basic Usage
//
//	reg := health.NewRegistry(health.WithLogger(logger))
//	reg.Register("database", health.CheckFunc(func(ctx context.Context) (health.Status, error) {
//	    if err := db.PingContext(ctx); err != nil {
//	        return health.Down("database unreachable"), nil
//	    }
//	    return health.Up(), nil
//	}))
//
//	mux := http.NewServeMux()
//	health.Mount(mux, "", reg)
package health
