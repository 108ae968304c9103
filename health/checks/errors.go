package checks

import "errors"

var (
	// ErrCheckTimeout indicates a wrapped check exceeded its time limit.
	ErrCheckTimeout = errors.New("checks: check timed out")

	// ErrCircuitOpen indicates a wrapped check was skipped by an open circuit.
	ErrCircuitOpen = errors.New("checks: circuit breaker is open")

	// ErrUnexpectedStatus indicates an HTTP dependency answered with a non-accepted status code.
	ErrUnexpectedStatus = errors.New("checks: unexpected status code")
)
