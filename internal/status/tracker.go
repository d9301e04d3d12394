// internal/status/tracker.go
package status

import (
	"errors"
	"time"

	"github.com/goburrow/modbus"
)

// Tracker derives device status from the command failures of each cycle.
// It is owned by the polling loop and is not safe for concurrent use.
type Tracker struct {
	snap       Snapshot
	errorSince time.Time
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Observe folds one cycle into the status. errs are the cycle's command
// failures in order. changed reports whether Health or LastErrorCode moved.
func (t *Tracker) Observe(errs []error, now time.Time) (snap Snapshot, changed bool) {
	prev := t.snap

	if len(errs) == 0 {
		// Recovery / OK
		t.snap = Snapshot{Health: HealthOK}
		t.errorSince = time.Time{}
	} else {
		if t.errorSince.IsZero() {
			t.errorSince = now
		}
		t.snap = Snapshot{
			Health:         HealthError,
			LastErrorCode:  ErrorCode(errs[len(errs)-1]),
			SecondsInError: secondsSince(t.errorSince, now),
		}
	}

	changed = prev.Health != t.snap.Health || prev.LastErrorCode != t.snap.LastErrorCode
	return t.snap, changed
}

func secondsSince(start, now time.Time) uint16 {
	d := now.Sub(start)
	if d <= 0 {
		return 0
	}
	s := int64(d / time.Second)
	if s > MaxSecondsInError {
		return MaxSecondsInError
	}
	return uint16(s)
}

// ErrorCode extracts a best-effort code from err without assuming concrete types.
// Modbus exception responses yield their exception code; errors that do not
// expose a code yield GenericErrorCode.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return uint16(me.ExceptionCode)
	}

	type coderA interface{ Code() uint16 }
	type coderB interface{ ErrorCode() uint16 }

	var a coderA
	if errors.As(err, &a) {
		return a.Code()
	}
	var b coderB
	if errors.As(err, &b) {
		return b.ErrorCode()
	}

	return GenericErrorCode
}
