// internal/poller/builder.go
package poller

import (
	cfg "github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/decode"
)

// Commands converts a validated, normalized config into the runtime command list.
func Commands(c *cfg.Config) []Command {
	out := make([]Command, 0, len(c.Commands))
	for _, cc := range c.Commands {
		cmd := Command{
			FC:       *cc.FunctionCode,
			Address:  *cc.Address,
			Quantity: *cc.Quantity,
			Fields:   make([]decode.Field, 0, len(cc.Fields)),
		}
		for _, f := range cc.Fields {
			cmd.Fields = append(cmd.Fields, decode.Field{
				Name:      f.Name,
				Datatype:  decode.Datatype(f.Datatype),
				Offset:    *f.Offset,
				Length:    deref(f.Length),
				ByteOrder: decode.Order(f.ByteOrder),
				WordOrder: decode.Order(f.WordOrder),
			})
		}
		out = append(out, cmd)
	}
	return out
}

// Build constructs a Poller for the given config over an already connected client.
func Build(c *cfg.Config, client Client) (*Poller, error) {
	return New(Commands(c), client)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
