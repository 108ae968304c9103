// Package checks provides ready-made health checks and check wrappers for
// use with a health.Registry.
//
// Checks report on a resource:
//
//	reg.Register("memory", checks.Memory(checks.MemoryConfig{}))
//	reg.Register("postgres", checks.SQL(db))
//	reg.Register("billing-api", checks.HTTP("http://billing/health/live"))
//
// Wrappers change how a check is invoked without changing what it reports.
// The registry imposes no timeout of its own, so slow dependencies should be
// bounded by the caller:
//
//	check := checks.Timeout(checks.SQL(db), 2*time.Second)
//	check = checks.CircuitBreaker(check, checks.BreakerConfig{MaxFailures: 3})
//	reg.Register("postgres", checks.Coalesce(check))
package checks
