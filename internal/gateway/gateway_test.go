// internal/gateway/gateway_test.go
package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/connect"
	"github.com/tamzrod/modbus-gateway/internal/decode"
	"github.com/tamzrod/modbus-gateway/internal/event"
	"github.com/tamzrod/modbus-gateway/internal/metrics"
	"github.com/tamzrod/modbus-gateway/internal/writer"
)

// ---- fakes ----

type fakeConn struct {
	regs   []uint16
	closed bool
}

func (c *fakeConn) ReadCoils(addr, qty uint16) ([]bool, error) {
	return nil, errors.New("illegal function")
}

func (c *fakeConn) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	return make([]bool, qty), nil
}

func (c *fakeConn) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	out := make([]uint16, qty)
	copy(out, c.regs)
	return out, nil
}

func (c *fakeConn) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	return c.ReadHoldingRegisters(addr, qty)
}

func (c *fakeConn) Close() error { c.closed = true; return nil }

const sample = `{
  "poll_interval": 0.001,
  "heartbeat_interval": 0,
  "commands": [
    {"function_code": 3, "address": 0, "quantity": 2,
     "fields": [
       {"name": "big", "offset": 0, "datatype": "uint32", "word_order": "big"},
       {"name": "little", "offset": 0, "datatype": "uint32", "word_order": "little"}
     ]},
    {"function_code": 1, "address": 0, "quantity": 1,
     "fields": [{"name": "pump", "offset": 0, "datatype": "bool"}]}
  ]
}`

func loadSample(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	c, err := config.ParseJSON([]byte(sample))
	require.NoError(t, err)
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, config.Validate(c))
	config.Normalize(c)
	return c
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---- tests ----

func TestRun_OnceEmitsBaseline(t *testing.T) {
	var events []event.Event
	sink := writer.Func(func(ev event.Event) error {
		events = append(events, ev)
		return nil
	})

	conn := &fakeConn{regs: []uint16{0x0001, 0x0002}}
	g := &Gateway{
		Config: loadSample(t, func(c *config.Config) {
			h := 60.0
			c.HeartbeatInterval = &h
		}),
		Connector: &connect.Manager{
			Endpoint: "127.0.0.1:502",
			Dial:     func(context.Context) (connect.Conn, error) { return conn, nil },
			Sink:     sink,
			Logger:   quietLogger(),
		},
		Sink:    sink,
		Logger:  quietLogger(),
		RunOnce: true,
	}

	require.NoError(t, g.Run(context.Background()))
	assert.True(t, conn.closed)

	require.Len(t, events, 2)
	assert.Equal(t, event.ConnectionSuccess, events[0].Type)

	data := events[1]
	assert.Equal(t, event.Data, data.Type)
	assert.Equal(t, map[string]decode.Value{
		"big":    decode.IntValue(65538),
		"little": decode.IntValue(131073),
	}, data.Values)
	require.Contains(t, data.Errors, "pump")
	assert.Equal(t, event.KindTransport, data.Errors["pump"].Type)
	assert.Contains(t, data.Errors["pump"].Message, "command failed")
}

func TestRun_ContinuousHeartbeatsAndMetrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	var events []event.Event
	beats := 0
	sink := m.Wrap(writer.Func(func(ev event.Event) error {
		events = append(events, ev)
		if ev.Type == event.Heartbeat {
			beats++
			if beats == 3 {
				cancel()
			}
		}
		return nil
	}))

	conn := &fakeConn{regs: []uint16{0x0001, 0x0002}}
	g := &Gateway{
		Config: loadSample(t, nil),
		Connector: &connect.Manager{
			Dial:   func(context.Context) (connect.Conn, error) { return conn, nil },
			Logger: quietLogger(),
		},
		Sink:    sink,
		Metrics: m,
		Logger:  quietLogger(),
	}

	err := g.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	var types []event.Type
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []event.Type{event.Data, event.Heartbeat, event.Heartbeat, event.Heartbeat}, types)

	hb := events[len(events)-1]
	assert.Len(t, hb.Values, 3)
	assert.True(t, hb.Values["pump"].IsNull())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	out := rec.Body.String()
	assert.Contains(t, out, "modbus_gateway_cycles_total 3")
	assert.Contains(t, out, `modbus_gateway_events_total{type="heartbeat"} 3`)
	assert.Contains(t, out, `modbus_gateway_command_failures_total{function_code="1"} 3`)
	assert.Contains(t, out, "modbus_gateway_device_health 2")
}

func TestRun_ConnectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &Gateway{
		Config:    loadSample(t, nil),
		Connector: &connect.Manager{Delay: time.Hour, Dial: func(context.Context) (connect.Conn, error) { return &fakeConn{}, nil }},
		Sink:      writer.Func(func(event.Event) error { return nil }),
		Logger:    quietLogger(),
	}

	assert.ErrorIs(t, g.Run(ctx), context.Canceled)
}

func TestRun_RequiresCollaborators(t *testing.T) {
	assert.Error(t, (&Gateway{}).Run(context.Background()))
}
