package health

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Messages reported for checks that fail instead of returning a status.
const (
	MessageCheckThrew  = "Check threw exception"
	MessageCheckFailed = "Check failed"
)

// Check runs every check in the general set and aggregates the results.
func (r *Registry) Check(ctx context.Context) Report {
	return r.aggregate(ctx, SetGeneral)
}

// CheckLiveness runs the liveness set. With no liveness checks registered
// the process is considered alive and a bare UP report is returned without
// invoking anything.
func (r *Registry) CheckLiveness(ctx context.Context) Report {
	if len(r.snapshot(SetLiveness)) == 0 {
		return Report{State: StateUp, Timestamp: r.now()}
	}
	return r.aggregate(ctx, SetLiveness)
}

// CheckReadiness runs the readiness set and aggregates the results.
func (r *Registry) CheckReadiness(ctx context.Context) Report {
	return r.aggregate(ctx, SetReadiness)
}

// CheckComponent runs the single general check registered under name.
// It returns ErrCheckNotFound when no such check exists.
func (r *Registry) CheckComponent(ctx context.Context, name string) (ComponentReport, error) {
	check, ok := r.lookup(SetGeneral, name)
	if !ok {
		return ComponentReport{}, ErrCheckNotFound
	}

	out := Evaluate(ctx, r.wrap(SetGeneral, name, check))
	if out.Failed() {
		r.logFailure(ctx, SetGeneral, name, out.Err)
		return ComponentReport{Name: name, Status: failureStatus(MessageCheckFailed, out.Err), Err: out.Err}, nil
	}
	return ComponentReport{Name: name, Status: out.Status}, nil
}

// aggregate evaluates the set sequentially in registration order.
// DOWN beats DEGRADED beats UP.
func (r *Registry) aggregate(ctx context.Context, set Set) Report {
	gen := r.generation()
	entries := r.snapshot(set)

	allUp := true
	anyDegraded := false
	components := make([]Component, 0, len(entries))

	for _, e := range entries {
		out := Evaluate(ctx, r.wrap(set, e.name, e.check))
		if out.Failed() {
			r.logFailure(ctx, set, e.name, out.Err)
			components = append(components, Component{Name: e.name, Status: failureStatus(MessageCheckThrew, out.Err)})
			allUp = false
			continue
		}

		components = append(components, Component{Name: e.name, Status: out.Status})
		switch out.Status.State {
		case StateDown:
			allUp = false
		case StateDegraded:
			anyDegraded = true
		}
	}

	state := StateUp
	switch {
	case !allUp:
		state = StateDown
	case anyDegraded:
		state = StateDegraded
	}

	r.recordState(set, state, gen)

	return Report{
		State:      state,
		Timestamp:  r.now(),
		Components: components,
	}
}

func (r *Registry) logFailure(ctx context.Context, set Set, name string, err error) {
	fields := []zap.Field{
		zap.String("set", set.String()),
		zap.String("check", name),
		zap.Error(err),
	}
	var perr *PanicError
	if errors.As(err, &perr) {
		fields = append(fields, zap.ByteString("stack", perr.Stack))
	}
	if ctx.Err() != nil {
		fields = append(fields, zap.NamedError("context", ctx.Err()))
	}
	r.logger.Warn("health check failed", fields...)
}

func (r *Registry) generation() uint64 {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.gen
}

// recordState remembers the state of set and logs transitions. Evaluations
// that started before the last Clear are dropped.
func (r *Registry) recordState(set Set, state State, gen uint64) {
	r.stateMu.Lock()
	if gen != r.gen {
		r.stateMu.Unlock()
		return
	}
	prev, seen := r.last[set]
	r.last[set] = state
	r.stateMu.Unlock()

	if seen && prev == state {
		return
	}
	if !seen && state == StateUp {
		return
	}
	r.logger.Info("health state changed",
		zap.String("set", set.String()),
		zap.Stringer("from", prev),
		zap.Stringer("to", state),
	)
}

// HTTPStatus maps an overall state to the transport status code: UP and
// DEGRADED are served with 200, DOWN with 503.
func HTTPStatus(state State) int {
	if state == StateDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
