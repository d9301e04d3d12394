// internal/change/state.go
package change

import (
	"time"

	"github.com/tamzrod/modbus-gateway/internal/decode"
)

// State is the last-known-good view of the device.
// It is created at loop start and mutated once per cycle by Engine.Evaluate.
type State struct {
	// LastKnown never holds a null; failed fields keep their previous value.
	LastKnown map[string]decode.Value

	// First is true until the first cycle has been evaluated.
	First bool

	LastHeartbeat time.Time
}

// NewState starts the heartbeat clock at start.
func NewState(start time.Time) *State {
	return &State{
		LastKnown:     make(map[string]decode.Value),
		First:         true,
		LastHeartbeat: start,
	}
}
