// Package observe provides observability for health check execution.
//
// It builds OpenTelemetry tracer and meter providers and a zap logger from a
// single Config, and offers a Middleware whose Intercept method plugs into
// health.WithInterceptor so that every check invocation produces a span,
// metrics and a log line.
package observe
