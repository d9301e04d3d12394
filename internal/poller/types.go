// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/modbus-gateway/internal/decode"
	"github.com/tamzrod/modbus-gateway/internal/event"
)

// Command describes one Modbus read and the fields carved out of it.
type Command struct {
	FC       uint8
	Address  uint16
	Quantity uint16
	Fields   []decode.Field
}

// FieldResult is the outcome of decoding one field.
// Exactly one of Value or Err is meaningful.
type FieldResult struct {
	Name  string
	Value decode.Value
	Err   error
}

// CommandResult is the outcome of one command.
// When Err is set no field was decoded and Fields is empty.
type CommandResult struct {
	Command Command
	Block   decode.Block
	Err     error
	Fields  []FieldResult
}

// Snapshot is everything one poll cycle produced.
type Snapshot struct {
	// At is taken before the first read of the cycle.
	At time.Time

	// Names lists every configured field once, in configuration order.
	Names []string

	// Values holds one entry per field; failed fields are null.
	Values map[string]decode.Value

	// Errors holds one entry per failed field.
	Errors map[string]event.FieldError

	Results []CommandResult
}

// CommandErrors returns the transport failures of this cycle, in command order.
func (s Snapshot) CommandErrors() []error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
