// internal/connect/manager.go
package connect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"reflect"
	"strings"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/event"
	"github.com/tamzrod/modbus-gateway/internal/poller"
	"github.com/tamzrod/modbus-gateway/internal/writer"
)

// Conn is a connected transport handle owned by the polling loop.
type Conn interface {
	poller.Client
	Close() error
}

// Dialer opens one connection attempt.
type Dialer func(ctx context.Context) (Conn, error)

// Manager connects with infinite fixed-delay retry.
// Every attempt is reported to Sink as a connection event.
type Manager struct {
	Endpoint string
	Delay    time.Duration
	Dial     Dialer
	Sink     writer.Writer
	Logger   *slog.Logger

	// now defaults to time.Now; tests override it.
	now func() time.Time
}

// Connect blocks until a dial succeeds or ctx is done.
func (m *Manager) Connect(ctx context.Context) (Conn, error) {
	if m.Dial == nil {
		return nil, errors.New("connect: dialer required")
	}
	log := m.logger()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Info("connecting to modbus server", "endpoint", m.Endpoint, "attempt", attempt)

		conn, err := m.Dial(ctx)
		if err == nil {
			log.Info("connected to modbus server", "endpoint", m.Endpoint, "attempt", attempt)
			ev := event.New(event.ConnectionSuccess, m.clock())
			ev.Message = fmt.Sprintf("connected to modbus server: %s", m.Endpoint)
			ev.Attempt = attempt
			m.emit(ev)
			return conn, nil
		}

		if conn != nil {
			_ = conn.Close()
		}
		m.emit(m.failure(err, attempt))

		log.Warn("connect failed, retrying", "endpoint", m.Endpoint, "attempt", attempt, "retry_in", m.Delay, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
}

// failure classifies a dial error: network faults are connection_failed,
// anything else is connection_error and carries the error's type name.
func (m *Manager) failure(err error, attempt int) event.Event {
	retry := m.Delay.Seconds()

	if IsNetwork(err) {
		ev := event.New(event.ConnectionFailed, m.clock())
		ev.Message = fmt.Sprintf("connection failed: unable to connect to %s", m.Endpoint)
		ev.Attempt = attempt
		ev.RetryInSeconds = &retry
		return ev
	}

	ev := event.New(event.ConnectionError, m.clock())
	ev.Message = fmt.Sprintf("connection error: %v", err)
	ev.ErrorType = TypeName(err)
	ev.Attempt = attempt
	ev.RetryInSeconds = &retry
	return ev
}

func (m *Manager) emit(ev event.Event) {
	if m.Sink == nil {
		return
	}
	if err := m.Sink.Write(ev); err != nil {
		m.logger().Error("event write failed", "type", ev.Type, "err", err)
	}
}

func (m *Manager) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// ---- classification ----

// IsNetwork reports whether err came from the network layer.
func IsNetwork(err error) bool {
	var op *net.OpError
	if errors.As(err, &op) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// TypeName is the dynamic type of the innermost wrapped error, without pointer marks.
func TypeName(err error) string {
	if err == nil {
		return ""
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return strings.TrimLeft(reflect.TypeOf(err).String(), "*")
}
