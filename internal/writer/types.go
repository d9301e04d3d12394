// internal/writer/types.go
package writer

import "github.com/tamzrod/modbus-gateway/internal/event"

// Writer delivers events downstream. Implementations write each event verbatim.
type Writer interface {
	Write(ev event.Event) error
}

// Func adapts a plain function to Writer.
type Func func(ev event.Event) error

func (f Func) Write(ev event.Event) error { return f(ev) }
