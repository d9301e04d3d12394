// internal/event/event.go
package event

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/modbus-gateway/internal/decode"
)

// Source is stamped on every event.
const Source = "modbus_gateway"

// TimeLayout is ISO-8601 UTC with microseconds and a literal Z.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// Type is the event kind.
type Type string

const (
	ConnectionSuccess Type = "connection_success"
	ConnectionFailed  Type = "connection_failed"
	ConnectionError   Type = "connection_error"
	Data              Type = "data"
	Heartbeat         Type = "heartbeat"
)

// Error kinds reported per field.
const (
	KindTransport = "TransportError"
	KindDecode    = "DecodeError"
)

// FieldError describes why a field has no value this cycle.
type FieldError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Timestamp marshals in TimeLayout.
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, len(TimeLayout)+2)
	b = append(b, '"')
	b = time.Time(t).UTC().AppendFormat(b, TimeLayout)
	return append(b, '"'), nil
}

// Event is one line of the output stream.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp Timestamp `json:"timestamp"`
	Source    string    `json:"source"`
	Type      Type      `json:"type"`

	// connection lifecycle
	Message        string   `json:"message,omitempty"`
	Attempt        int      `json:"attempt,omitempty"`
	RetryInSeconds *float64 `json:"retry_in_seconds,omitempty"`
	ErrorType      string   `json:"error_type,omitempty"`

	// data / heartbeat
	Values map[string]decode.Value `json:"values,omitempty"`
	Errors map[string]FieldError   `json:"errors,omitempty"`
}

// New stamps a fresh event of type t at time at.
func New(t Type, at time.Time) Event {
	return Event{
		ID:        uuid.New(),
		Timestamp: Timestamp(at),
		Source:    Source,
		Type:      t,
	}
}

// MarshalJSON always writes "values" for data and heartbeat events, as {}
// when no field was read. Connection events carry no values.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event

	var v any = plain(e)
	if e.Type == Data || e.Type == Heartbeat {
		values := e.Values
		if values == nil {
			values = map[string]decode.Value{}
		}
		v = struct {
			plain
			Values map[string]decode.Value `json:"values"`
		}{plain(e), values}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
