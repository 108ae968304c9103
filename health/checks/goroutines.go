package checks

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jwebframework/jweb/health"
)

// GoroutineConfig configures the goroutine count check.
type GoroutineConfig struct {
	// Warning is the goroutine count that reports DEGRADED. Default: 10000
	Warning int

	// Critical is the goroutine count that reports DOWN. Default: 50000
	Critical int
}

// Goroutines creates a check that reports on the number of live goroutines,
// a cheap signal for leaks.
func Goroutines(config GoroutineConfig) health.Check {
	if config.Warning <= 0 {
		config.Warning = 10000
	}
	if config.Critical <= 0 {
		config.Critical = 50000
	}
	if config.Critical < config.Warning {
		config.Critical = config.Warning
	}

	return goroutineCheck{config: config, count: runtime.NumGoroutine}
}

type goroutineCheck struct {
	config GoroutineConfig
	count  func() int
}

func (g goroutineCheck) Check(ctx context.Context) (health.Status, error) {
	n := g.count()
	details := map[string]any{
		"goroutines": n,
		"warning":    g.config.Warning,
		"critical":   g.config.Critical,
	}

	switch {
	case n >= g.config.Critical:
		return health.Down(fmt.Sprintf("goroutine count critical: %d", n)).WithDetails(details), nil
	case n >= g.config.Warning:
		return health.Degraded(fmt.Sprintf("goroutine count high: %d", n)).WithDetails(details), nil
	default:
		return health.Up().WithDetails(details), nil
	}
}
