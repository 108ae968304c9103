package checks

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jwebframework/jweb/health"
)

// MemoryConfig configures the memory check.
type MemoryConfig struct {
	// WarningThreshold is the fraction of MaxAlloc that reports DEGRADED.
	// Value should be between 0 and 1. Default: 0.8 (80%)
	WarningThreshold float64

	// CriticalThreshold is the fraction of MaxAlloc that reports DOWN.
	// Value should be between 0 and 1. Default: 0.95 (95%)
	CriticalThreshold float64

	// MaxAlloc is the heap allocation budget in bytes.
	// If zero, the memory obtained from the OS is used.
	MaxAlloc uint64
}

// MemoryCheck reports heap usage against a budget.
type MemoryCheck struct {
	config  MemoryConfig
	readMem func(*runtime.MemStats)
}

// Memory creates a memory check.
func Memory(config MemoryConfig) *MemoryCheck {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold + 0.1
		if config.CriticalThreshold > 1 {
			config.CriticalThreshold = 0.99
		}
	}

	return &MemoryCheck{config: config, readMem: runtime.ReadMemStats}
}

// Config returns the effective configuration.
func (m *MemoryCheck) Config() MemoryConfig {
	return m.config
}

// Check implements health.Check.
func (m *MemoryCheck) Check(ctx context.Context) (health.Status, error) {
	if err := ctx.Err(); err != nil {
		return health.Status{}, err
	}

	var stats runtime.MemStats
	m.readMem(&stats)

	maxAlloc := m.config.MaxAlloc
	if maxAlloc == 0 {
		maxAlloc = stats.Sys
	}

	if maxAlloc == 0 {
		return health.Up().WithMessage("memory stats unavailable").WithDetails(map[string]any{
			"allocBytes": stats.Alloc,
			"numGC":      stats.NumGC,
		}), nil
	}

	usage := float64(stats.Alloc) / float64(maxAlloc)
	details := map[string]any{
		"allocBytes":    stats.Alloc,
		"maxAllocBytes": maxAlloc,
		"usagePercent":  usage * 100,
		"heapInUse":     stats.HeapInuse,
		"heapObjects":   stats.HeapObjects,
		"numGC":         stats.NumGC,
	}

	switch {
	case usage >= m.config.CriticalThreshold:
		return health.Down(fmt.Sprintf("memory usage critical: %.1f%%", usage*100)).WithDetails(details), nil
	case usage >= m.config.WarningThreshold:
		return health.Degraded(fmt.Sprintf("memory usage high: %.1f%%", usage*100)).WithDetails(details), nil
	default:
		return health.Up().WithDetails(details), nil
	}
}
