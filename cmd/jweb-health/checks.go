package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jwebframework/jweb/config"
	"github.com/jwebframework/jweb/health"
	"github.com/jwebframework/jweb/health/checks"
)

// registerChecks adds the built-in checks to reg:
//
//   - memory and goroutines as liveness checks, memory also as a general check
//   - database, when a database URL is configured
//   - one HTTP check per dependency URL
//
// Dependency checks are bounded by the check timeout, guarded by a circuit
// breaker and coalesced across concurrent probes. The returned function
// releases resources held by the checks.
func registerChecks(reg *health.Registry, cfg *config.Config, logger *zap.Logger) (func(), error) {
	memory := checks.Memory(checks.MemoryConfig{
		WarningThreshold:  cfg.MemoryWarning,
		CriticalThreshold: cfg.MemoryCritical,
	})
	reg.RegisterLiveness("memory", memory)
	reg.RegisterLiveness("goroutines", checks.Goroutines(checks.GoroutineConfig{}))
	reg.Register("memory", memory)

	guard := func(name string, check health.Check) health.Check {
		return checks.Coalesce(checks.CircuitBreaker(
			checks.Timeout(check, cfg.CheckTimeout),
			checks.BreakerConfig{
				MaxFailures:  cfg.BreakerFailures,
				ResetTimeout: cfg.BreakerReset,
				OnStateChange: func(from, to checks.CircuitState) {
					logger.Warn("health check circuit changed",
						zap.String("check", name),
						zap.Stringer("from", from),
						zap.Stringer("to", to),
					)
				},
			},
		))
	}

	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		db.SetMaxOpenConns(2)
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		})
		reg.Register("database", guard("database", checks.SQL(db)))
	}

	client := &http.Client{Timeout: cfg.CheckTimeout}
	for i, raw := range cfg.Dependencies {
		name, err := dependencyName(raw, i, reg.Names(health.SetGeneral))
		if err != nil {
			closeAll()
			return nil, err
		}
		reg.Register(name, guard(name, checks.HTTP(raw, checks.WithHTTPClient(client))))
	}

	return closeAll, nil
}

// dependencyName derives a check name from a dependency URL's host, made
// unique against taken.
func dependencyName(raw string, index int, taken []string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid dependency URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid dependency URL %q: scheme must be http or https", raw)
	}

	name := strings.ReplaceAll(u.Hostname(), ".", "-")
	if name == "" {
		name = fmt.Sprintf("dependency-%d", index)
	}
	if slices.Contains(taken, name) || name == "live" || name == "ready" {
		name = fmt.Sprintf("%s-%d", name, index)
	}
	return name, nil
}
