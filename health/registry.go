package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Set identifies one of the registry's independent check collections.
type Set int

const (
	// SetGeneral holds the checks behind the full health report.
	SetGeneral Set = iota
	// SetLiveness holds the checks behind the liveness probe.
	SetLiveness
	// SetReadiness holds the checks behind the readiness probe.
	SetReadiness
)

// String returns the name of the set.
func (s Set) String() string {
	switch s {
	case SetGeneral:
		return "health"
	case SetLiveness:
		return "liveness"
	case SetReadiness:
		return "readiness"
	default:
		return "unknown"
	}
}

// Interceptor wraps a check before it is invoked. It is called on every
// invocation with the set being evaluated and the check's registered name.
type Interceptor func(set Set, name string, next Check) Check

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report failing checks and state changes.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithInterceptor adds an interceptor. Interceptors are applied in the order
// given, the first one being the outermost.
func WithInterceptor(i Interceptor) Option {
	return func(r *Registry) {
		if i != nil {
			r.interceptors = append(r.interceptors, i)
		}
	}
}

// WithClock sets the source of report timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry holds named checks in three independent sets and aggregates them
// on demand.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use. Register,
//     Unregister and lookups are linearizable; Unregister removes a name from
//     all three sets atomically.
//   - Checks run on the caller's goroutine without holding the registry lock.
type Registry struct {
	mu        sync.RWMutex
	general   *checkSet
	liveness  *checkSet
	readiness *checkSet

	logger       *zap.Logger
	interceptors []Interceptor
	now          func() time.Time

	stateMu sync.Mutex
	last    map[Set]State
	gen     uint64 // bumped by Clear; stale evaluations are not recorded
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		general:   newCheckSet(),
		liveness:  newCheckSet(),
		readiness: newCheckSet(),
		logger:    zap.NewNop(),
		now:       time.Now,
		last:      make(map[Set]State),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a check to both the general and the readiness sets,
// replacing any check already registered under name in those sets.
func (r *Registry) Register(name string, check Check) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.general.put(name, check)
	r.readiness.put(name, check)
}

// RegisterFunc is shorthand for Register(name, CheckFunc(fn)).
func (r *Registry) RegisterFunc(name string, fn func(ctx context.Context) (Status, error)) {
	r.Register(name, CheckFunc(fn))
}

// RegisterLiveness adds a check to the liveness set only.
func (r *Registry) RegisterLiveness(name string, check Check) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.liveness.put(name, check)
}

// RegisterReadiness adds a check to the readiness set only.
func (r *Registry) RegisterReadiness(name string, check Check) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.readiness.put(name, check)
}

// Unregister removes name from all three sets. It is a no-op for unknown names.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.general.remove(name)
	r.liveness.remove(name)
	r.readiness.remove(name)
}

// Clear removes every registered check.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.general = newCheckSet()
	r.liveness = newCheckSet()
	r.readiness = newCheckSet()
	r.mu.Unlock()

	r.stateMu.Lock()
	clear(r.last)
	r.gen++
	r.stateMu.Unlock()
}

// Names returns the names registered in a set, in registration order.
func (r *Registry) Names(set Set) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cs := r.set(set)
	if cs == nil {
		return nil
	}
	names := make([]string, len(cs.order))
	copy(names, cs.order)
	return names
}

func (r *Registry) set(s Set) *checkSet {
	switch s {
	case SetGeneral:
		return r.general
	case SetLiveness:
		return r.liveness
	case SetReadiness:
		return r.readiness
	default:
		return nil
	}
}

func (r *Registry) snapshot(s Set) []namedCheck {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cs := r.set(s)
	if cs == nil {
		return nil
	}
	return cs.entries()
}

func (r *Registry) lookup(s Set, name string) (Check, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	check, ok := r.set(s).checks[name]
	return check, ok
}

func (r *Registry) wrap(s Set, name string, check Check) Check {
	for i := len(r.interceptors) - 1; i >= 0; i-- {
		check = r.interceptors[i](s, name, check)
	}
	return check
}

type namedCheck struct {
	name  string
	check Check
}

// checkSet is a map of checks that remembers registration order.
type checkSet struct {
	checks map[string]Check
	order  []string
}

func newCheckSet() *checkSet {
	return &checkSet{checks: make(map[string]Check)}
}

func (c *checkSet) put(name string, check Check) {
	if _, exists := c.checks[name]; !exists {
		c.order = append(c.order, name)
	}
	c.checks[name] = check
}

func (c *checkSet) remove(name string) {
	if _, exists := c.checks[name]; !exists {
		return
	}
	delete(c.checks, name)

	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *checkSet) entries() []namedCheck {
	entries := make([]namedCheck, 0, len(c.order))
	for _, name := range c.order {
		entries = append(entries, namedCheck{name: name, check: c.checks[name]})
	}
	return entries
}
