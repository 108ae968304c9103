package checks

import (
	"context"
	"sync"
	"time"

	"github.com/jwebframework/jweb/health"
)

// CircuitState represents the circuit breaker state.
type CircuitState int

const (
	// CircuitClosed means the check is invoked normally.
	CircuitClosed CircuitState = iota
	// CircuitOpen means the check is skipped and reported DOWN.
	CircuitOpen
	// CircuitHalfOpen means the next invocation probes whether the dependency recovered.
	CircuitHalfOpen
)

// String returns the string representation of the state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker wrapper.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening the circuit.
	// A failure is a DOWN status or an error. Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing again.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to CircuitState)
}

// Breaker is a health.Check that stops invoking a persistently failing check
// for a cool-down period. While open it reports DOWN without calling the
// wrapped check.
type Breaker struct {
	check  health.Check
	config BreakerConfig

	mu          sync.Mutex
	state       CircuitState
	failures    int
	lastFailure time.Time
	last        health.Status
	probing     bool
}

// CircuitBreaker wraps check with a circuit breaker.
func CircuitBreaker(check health.Check, config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}

	return &Breaker{check: check, config: config, state: CircuitClosed}
}

// State returns the current circuit state.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentStateLocked()
}

// Reset closes the circuit.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probing = false
	b.setStateLocked(CircuitClosed)
}

// Check implements health.Check.
func (b *Breaker) Check(ctx context.Context) (health.Status, error) {
	if status, open := b.beforeCheck(); open {
		return status, nil
	}

	out := health.Evaluate(ctx, b.check)
	b.afterCheck(out)
	return out.Status, out.Err
}

func (b *Breaker) beforeCheck() (health.Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentStateLocked() {
	case CircuitOpen:
		return b.openStatusLocked(), true
	case CircuitHalfOpen:
		if b.probing {
			return b.openStatusLocked(), true
		}
		b.probing = true
	}
	return health.Status{}, false
}

func (b *Breaker) afterCheck(out health.Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := out.Failed() || out.Status.IsDown()
	if failed {
		b.last = out.Status
		if out.Failed() {
			b.last = health.Down(out.Err.Error())
		}
	}

	switch b.state {
	case CircuitClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		b.lastFailure = time.Now()
		if b.failures >= b.config.MaxFailures {
			b.setStateLocked(CircuitOpen)
		}

	case CircuitHalfOpen:
		b.probing = false
		if failed {
			b.lastFailure = time.Now()
			b.setStateLocked(CircuitOpen)
			return
		}
		b.failures = 0
		b.setStateLocked(CircuitClosed)
	}
}

func (b *Breaker) openStatusLocked() health.Status {
	retryIn := b.config.ResetTimeout - time.Since(b.lastFailure)
	if retryIn < 0 {
		retryIn = 0
	}

	details := map[string]any{
		"circuit": b.state.String(),
		"retryIn": retryIn.Round(time.Millisecond).String(),
		"error":   ErrCircuitOpen.Error(),
	}
	if b.last.Message != "" {
		details["lastFailure"] = b.last.Message
	}
	return health.Down("circuit open").WithDetails(details)
}

func (b *Breaker) currentStateLocked() CircuitState {
	if b.state == CircuitOpen && time.Since(b.lastFailure) >= b.config.ResetTimeout {
		b.setStateLocked(CircuitHalfOpen)
	}
	return b.state
}

func (b *Breaker) setStateLocked(state CircuitState) {
	old := b.state
	b.state = state
	if old != state && b.config.OnStateChange != nil {
		b.config.OnStateChange(old, state)
	}
}
