// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before the first cycle.
const HealthUnknown uint16 = 0

// HealthOK represents a cycle in which every command succeeded.
const HealthOK uint16 = 1

// HealthError represents a cycle in which at least one command failed.
const HealthError uint16 = 2

// ---- LIMITS ----

// MaxSecondsInError is where SecondsInError saturates.
const MaxSecondsInError = 65535

// GenericErrorCode is reported when a failure carries no code of its own.
const GenericErrorCode uint16 = 1

// HealthName returns a label for h.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	default:
		return "unknown"
	}
}
