package health

import "errors"

var (
	// ErrCheckNotFound indicates no general check is registered under a name.
	ErrCheckNotFound = errors.New("health: check not found")

	// ErrNilCheck indicates a nil Check was registered.
	ErrNilCheck = errors.New("health: nil check")

	// ErrInvalidState indicates a state outside UP, DEGRADED and DOWN.
	ErrInvalidState = errors.New("health: invalid state")

	// ErrUnencodableStatus indicates a status whose details cannot be
	// rendered as JSON.
	ErrUnencodableStatus = errors.New("health: status is not JSON encodable")
)
