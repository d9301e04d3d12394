// internal/writer/writer.go
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/tamzrod/modbus-gateway/internal/event"
)

// JSONLines writes one JSON object per line.
// It serializes writes because the connection manager and the poll loop share it.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines writes to w. Non-ASCII text is written as-is.
func NewJSONLines(w io.Writer) *JSONLines {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLines{enc: enc}
}

func (j *JSONLines) Write(ev event.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(ev); err != nil {
		return fmt.Errorf("writer: encode %s event: %w", ev.Type, err)
	}
	return nil
}
