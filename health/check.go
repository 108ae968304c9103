package health

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// Check evaluates the current health of one component.
//
// Contract:
//   - A check either returns a Status or fails with a non-nil error. When the
//     error is non-nil the returned Status is ignored.
//   - A panic inside Check is recovered by the registry and treated as a failure.
//   - Checks are invoked synchronously on the caller's goroutine; they must
//     bound their own latency if they talk to slow dependencies.
type Check interface {
	Check(ctx context.Context) (Status, error)
}

// CheckFunc is an adapter to allow ordinary functions to be used as Checks.
type CheckFunc func(ctx context.Context) (Status, error)

// Check calls f(ctx).
func (f CheckFunc) Check(ctx context.Context) (Status, error) {
	return f(ctx)
}

// StatusFunc adapts a function that cannot fail into a Check.
func StatusFunc(fn func(ctx context.Context) Status) Check {
	return CheckFunc(func(ctx context.Context) (Status, error) {
		return fn(ctx), nil
	})
}

// Outcome is the tagged result of evaluating a check: either a Status
// (Err == nil) or the failure that prevented one.
type Outcome struct {
	Status   Status
	Err      error
	Duration time.Duration
}

// Failed reports whether the check failed to produce a status.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// PanicError wraps a value recovered from a panicking check.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("health: check panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Evaluate runs the check with failure isolation. It never panics: errors and
// panics raised by the check are returned in Outcome.Err, as is a returned
// Status that fails Validate.
func Evaluate(ctx context.Context, check Check) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
		out.Duration = time.Since(start)
	}()

	if check == nil {
		return Outcome{Err: ErrNilCheck}
	}

	status, err := check.Check(ctx)
	if err != nil {
		return Outcome{Err: err}
	}
	if err := status.Validate(); err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Status: status}
}

// failureStatus converts a failed outcome into the DOWN status reported for it.
func failureStatus(message string, err error) Status {
	return Down(message).WithDetails(map[string]any{
		"error":     err.Error(),
		"errorType": fmt.Sprintf("%T", err),
	})
}
