// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/decode"
	"github.com/tamzrod/modbus-gateway/internal/event"
)

// Client abstracts Modbus operations needed by the poller.
// The poller depends on geometry only.
type Client interface {
	ReadCoils(addr, qty uint16) ([]bool, error)              // FC 1
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error)     // FC 2
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)   // FC 4
}

// ErrUnsupportedFunction is returned by Execute for function codes other than 1-4.
var ErrUnsupportedFunction = errors.New("poller: unsupported function code")

// Poller runs poll cycles over a fixed command list.
type Poller struct {
	commands []Command
	client   Client
	now      func() time.Time
}

// New creates a poller with an immutable command list.
func New(commands []Command, client Client) (*Poller, error) {
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	return &Poller{commands: commands, client: client, now: time.Now}, nil
}

// SetClock replaces the clock that stamps Snapshot.At.
func (p *Poller) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// Execute performs the single read behind one command.
func Execute(c Client, cmd Command) (decode.Block, error) {
	b := decode.Block{FC: cmd.FC}
	var err error

	switch cmd.FC {
	case 1:
		b.Bits, err = c.ReadCoils(cmd.Address, cmd.Quantity)
	case 2:
		b.Bits, err = c.ReadDiscreteInputs(cmd.Address, cmd.Quantity)
	case 3:
		b.Registers, err = c.ReadHoldingRegisters(cmd.Address, cmd.Quantity)
	case 4:
		b.Registers, err = c.ReadInputRegisters(cmd.Address, cmd.Quantity)
	default:
		err = fmt.Errorf("%w: %d", ErrUnsupportedFunction, cmd.FC)
	}

	if err != nil {
		return decode.Block{FC: cmd.FC}, fmt.Errorf("fc=%d address=%d quantity=%d: %w", cmd.FC, cmd.Address, cmd.Quantity, err)
	}
	return b, nil
}

// RunCommand performs one command and decodes each of its fields independently.
func RunCommand(c Client, cmd Command) CommandResult {
	res := CommandResult{Command: cmd}

	block, err := Execute(c, cmd)
	if err != nil {
		res.Err = err
		return res
	}
	res.Block = block

	res.Fields = make([]FieldResult, 0, len(cmd.Fields))
	for _, f := range cmd.Fields {
		v, err := decode.Decode(block, f)
		res.Fields = append(res.Fields, FieldResult{Name: f.Name, Value: v, Err: err})
	}
	return res
}

// PollOnce performs exactly one poll cycle.
// Failures stay local: a failed command marks only its own fields, a failed
// decode marks only that field.
func (p *Poller) PollOnce() Snapshot {
	snap := Snapshot{
		At:     p.now(),
		Values: make(map[string]decode.Value),
		Errors: make(map[string]event.FieldError),
	}

	for _, cmd := range p.commands {
		res := RunCommand(p.client, cmd)
		snap.Results = append(snap.Results, res)

		if res.Err != nil {
			fe := event.FieldError{
				Type:    event.KindTransport,
				Message: "command failed: " + res.Err.Error(),
			}
			for _, f := range cmd.Fields {
				snap.put(f.Name, decode.Null(), &fe)
			}
			continue
		}

		for _, fr := range res.Fields {
			if fr.Err != nil {
				fe := event.FieldError{Type: event.KindDecode, Message: fr.Err.Error()}
				snap.put(fr.Name, decode.Null(), &fe)
				continue
			}
			snap.put(fr.Name, fr.Value, nil)
		}
	}

	return snap
}

// put records one field. A repeated name overwrites the earlier entry.
func (s *Snapshot) put(name string, v decode.Value, fe *event.FieldError) {
	if _, seen := s.Values[name]; !seen {
		s.Names = append(s.Names, name)
	}
	s.Values[name] = v
	if fe != nil {
		s.Errors[name] = *fe
	} else {
		delete(s.Errors, name)
	}
}
