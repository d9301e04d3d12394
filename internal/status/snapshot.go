// internal/status/snapshot.go
package status

import "log/slog"

// Snapshot is the device status after one poll cycle.
// It holds no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}

// OK reports whether the last cycle had no command failure.
func (s Snapshot) OK() bool { return s.Health == HealthOK }

// LogValue groups the status under one log attribute.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("health", HealthName(s.Health)),
		slog.Int("last_error_code", int(s.LastErrorCode)),
		slog.Int("seconds_in_error", int(s.SecondsInError)),
	)
}
