package health

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// State is the health state of a component or of a whole check set.
type State int

const (
	// StateUp indicates the component is functioning normally.
	StateUp State = iota
	// StateDegraded indicates the component is functioning but with issues.
	StateDegraded
	// StateDown indicates the component is not functioning.
	StateDown
)

// String returns the wire representation of the state.
func (s State) String() string {
	switch s {
	case StateUp:
		return "UP"
	case StateDegraded:
		return "DEGRADED"
	case StateDown:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether s is one of UP, DEGRADED or DOWN.
func (s State) Valid() bool {
	return s >= StateUp && s <= StateDown
}

// ParseState parses the wire representation of a state.
func ParseState(s string) (State, error) {
	switch s {
	case "UP":
		return StateUp, nil
	case "DEGRADED":
		return StateDegraded, nil
	case "DOWN":
		return StateDown, nil
	default:
		return StateDown, fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Status is the outcome reported by a single check.
//
// Status values are immutable: WithDetail and WithDetails return copies.
type Status struct {
	// State is the health state.
	State State

	// Message optionally explains the state, typically set on DOWN or DEGRADED.
	Message string

	// Details holds arbitrary diagnostic values. Values must be JSON serializable.
	Details map[string]any
}

// Up creates an UP status.
func Up() Status {
	return Status{State: StateUp}
}

// Down creates a DOWN status with the given message.
func Down(message string) Status {
	return Status{State: StateDown, Message: message}
}

// Degraded creates a DEGRADED status with the given message.
func Degraded(message string) Status {
	return Status{State: StateDegraded, Message: message}
}

// IsUp reports whether the state is UP.
func (s Status) IsUp() bool {
	return s.State == StateUp
}

// IsDown reports whether the state is DOWN.
func (s Status) IsDown() bool {
	return s.State == StateDown
}

// WithMessage returns a copy of the status with the message replaced.
func (s Status) WithMessage(message string) Status {
	s.Message = message
	return s
}

// WithDetails returns a copy of the status with the given details merged in.
func (s Status) WithDetails(details map[string]any) Status {
	merged := make(map[string]any, len(s.Details)+len(details))
	maps.Copy(merged, s.Details)
	maps.Copy(merged, details)
	s.Details = merged
	return s
}

// WithDetail returns a copy of the status with a single detail added.
func (s Status) WithDetail(key string, value any) Status {
	return s.WithDetails(map[string]any{key: value})
}

// Validate reports an error wrapping ErrInvalidState for an unknown state
// and ErrUnencodableStatus when a detail value has no JSON form (NaN, channels,
// functions).
func (s Status) Validate() error {
	if !s.State.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidState, int(s.State))
	}
	if _, err := s.MarshalJSON(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnencodableStatus, err)
	}
	return nil
}

// Map returns the serialized form of the status: status, optional message,
// and every detail flattened into the same map. Details never override the
// status or message keys.
func (s Status) Map() map[string]any {
	m := make(map[string]any, len(s.Details)+2)
	for k, v := range s.Details {
		m[k] = v
	}
	m["status"] = s.State.String()
	if s.Message != "" {
		m["message"] = s.Message
	} else {
		delete(m, "message")
	}
	return m
}

// MarshalJSON renders the status with status and message first, followed by
// the detail keys in sorted order.
func (s Status) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"status":`)
	state, _ := json.Marshal(s.State.String())
	buf.Write(state)

	if s.Message != "" {
		msg, err := json.Marshal(s.Message)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"message":`)
		buf.Write(msg)
	}

	for _, k := range slices.Sorted(maps.Keys(s.Details)) {
		if k == "status" || k == "message" {
			continue
		}
		if err := writeMember(&buf, k, s.Details[k]); err != nil {
			return nil, fmt.Errorf("detail %q: %w", k, err)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses the flattened form produced by MarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	stateStr, _ := raw["status"].(string)
	state, err := ParseState(stateStr)
	if err != nil {
		return err
	}
	msg, _ := raw["message"].(string)
	delete(raw, "status")
	delete(raw, "message")

	*s = Status{State: state, Message: msg}
	if len(raw) > 0 {
		s.Details = raw
	}
	return nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.WriteByte(',')
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
