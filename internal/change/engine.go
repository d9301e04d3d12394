// internal/change/engine.go
package change

import (
	"time"

	"github.com/tamzrod/modbus-gateway/internal/decode"
	"github.com/tamzrod/modbus-gateway/internal/event"
	"github.com/tamzrod/modbus-gateway/internal/poller"
)

// Engine decides which events one poll cycle produces.
type Engine struct {
	HeartbeatEvery time.Duration
}

// Result is the outcome of one evaluation. Nil events are not emitted.
type Result struct {
	// Changed lists changed fields in configuration order.
	Changed []string

	Data      *event.Event
	Heartbeat *event.Event
}

// Events returns the events to emit, data first.
func (r Result) Events() []event.Event {
	var out []event.Event
	if r.Data != nil {
		out = append(out, *r.Data)
	}
	if r.Heartbeat != nil {
		out = append(out, *r.Heartbeat)
	}
	return out
}

// Evaluate compares snap against st, updates st and stamps events with now.
// Heartbeat timing uses snap.At, the moment the cycle started.
func (e Engine) Evaluate(st *State, snap poller.Snapshot, now time.Time) Result {
	var res Result

	changed := make(map[string]decode.Value)
	for _, name := range snap.Names {
		if _, failed := snap.Errors[name]; failed {
			continue
		}
		v, ok := snap.Values[name]
		if !ok || v.IsNull() {
			continue
		}

		prev, known := st.LastKnown[name]
		if st.First || !known || !prev.Equal(v) {
			changed[name] = v
			res.Changed = append(res.Changed, name)
		}
	}

	if len(changed) > 0 {
		ev := event.New(event.Data, now)
		ev.Values = changed
		ev.Errors = copyErrors(snap.Errors)
		res.Data = &ev
	}

	// ---- merge ----
	for name, v := range changed {
		st.LastKnown[name] = v
	}
	st.First = false

	// ---- heartbeat ----
	if snap.At.Sub(st.LastHeartbeat) >= e.HeartbeatEvery {
		ev := event.New(event.Heartbeat, now)
		ev.Values = make(map[string]decode.Value, len(snap.Names))
		for _, name := range snap.Names {
			ev.Values[name] = snap.Values[name]
		}
		ev.Errors = copyErrors(snap.Errors)
		res.Heartbeat = &ev
		st.LastHeartbeat = snap.At
	}

	return res
}

func copyErrors(in map[string]event.FieldError) map[string]event.FieldError {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]event.FieldError, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
