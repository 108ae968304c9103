package health

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// TimestampFormat is the layout of report timestamps (ISO-8601, UTC).
const TimestampFormat = time.RFC3339Nano

// Component is the status reported by one named check within a Report.
type Component struct {
	Name   string
	Status Status
}

// Report is the aggregated result of running a check set.
type Report struct {
	// State is the overall state of the set.
	State State

	// Timestamp is when the report was produced.
	Timestamp time.Time

	// Components holds the per-check results in registration order.
	Components []Component
}

// HTTPStatus returns the transport status code for the report.
func (r Report) HTTPStatus() int {
	return HTTPStatus(r.State)
}

// Component returns the status reported for name, if present.
func (r Report) Component(name string) (Status, bool) {
	for _, c := range r.Components {
		if c.Name == name {
			return c.Status, true
		}
	}
	return Status{}, false
}

// MarshalJSON renders the report as
//
//	{"status": "...", "timestamp": "...", "components": {"<name>": {...}}}
//
// with components in registration order. The components key is omitted when
// the report has none. A component whose status cannot be rendered is
// reported DOWN in its place and forces the overall status to DOWN.
func (r Report) MarshalJSON() ([]byte, error) {
	state := r.State
	if !state.Valid() {
		state = StateDown
	}

	components := make([][]byte, len(r.Components))
	for i, c := range r.Components {
		if err := c.Status.Validate(); err != nil {
			components[i], _ = failureStatus(MessageCheckThrew, err).MarshalJSON()
			state = StateDown
			continue
		}
		components[i], _ = c.Status.MarshalJSON()
	}

	var buf bytes.Buffer
	buf.WriteString(`{"status":`)
	encoded, _ := json.Marshal(state.String())
	buf.Write(encoded)

	if err := writeMember(&buf, "timestamp", r.Timestamp.UTC().Format(TimestampFormat)); err != nil {
		return nil, err
	}

	if len(r.Components) > 0 {
		buf.WriteString(`,"components":{`)
		for i, c := range r.Components {
			if i > 0 {
				buf.WriteByte(',')
			}
			name, err := json.Marshal(c.Name)
			if err != nil {
				return nil, err
			}
			buf.Write(name)
			buf.WriteByte(':')
			buf.Write(components[i])
		}
		buf.WriteByte('}')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ComponentReport is the result of running a single general check by name.
type ComponentReport struct {
	Name   string
	Status Status

	// Err is the failure raised by the check, if it did not return a status.
	Err error
}

// HTTPStatus returns 200 when the component is UP and 503 otherwise.
func (c ComponentReport) HTTPStatus() int {
	if c.Status.IsUp() {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// MarshalJSON renders the component's status payload. A status that cannot
// be rendered is reported DOWN in its place.
func (c ComponentReport) MarshalJSON() ([]byte, error) {
	if err := c.Status.Validate(); err != nil {
		return failureStatus(MessageCheckFailed, err).MarshalJSON()
	}
	return c.Status.MarshalJSON()
}
