// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/goburrow/modbus"
)

// Client implements poller.Client using Modbus TCP.
// This adapter is geometry-only: it issues requests and unpacks raw responses.
type Client struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// Config is minimal transport config.
type Config struct {
	Endpoint    string
	UnitID      uint8
	Timeout     time.Duration
	IdleTimeout time.Duration

	// Logger receives raw frame dumps when set.
	Logger *log.Logger
}

// New creates an unconnected Modbus TCP client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.SlaveId = cfg.UnitID
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	if cfg.IdleTimeout > 0 {
		h.IdleTimeout = cfg.IdleTimeout
	}
	h.Logger = cfg.Logger

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

// Connect opens the TCP connection.
func (c *Client) Connect() error {
	return c.handler.Connect()
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

// ---- poller.Client interface ----

func (c *Client) ReadCoils(addr, qty uint16) ([]bool, error) {
	data, err := c.client.ReadCoils(addr, qty)
	if err != nil {
		return nil, c.drop(err)
	}
	return unpackBits(data, int(qty))
}

func (c *Client) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	data, err := c.client.ReadDiscreteInputs(addr, qty)
	if err != nil {
		return nil, c.drop(err)
	}
	return unpackBits(data, int(qty))
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	data, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, c.drop(err)
	}
	return unpackRegisters(data, int(qty))
}

func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	data, err := c.client.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, c.drop(err)
	}
	return unpackRegisters(data, int(qty))
}

// drop closes the connection after any failure that is not a Modbus
// exception response. The handler only dials when it holds no connection,
// so a dead socket or a late reply left in the stream would otherwise fail
// every following request.
func (c *Client) drop(err error) error {
	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return err
	}
	_ = c.handler.Close()
	return err
}

// ---- helpers (pure geometry) ----

// unpackBits expands packed coil bytes, least significant bit first.
func unpackBits(data []byte, count int) ([]bool, error) {
	if len(data)*8 < count {
		return nil, fmt.Errorf("modbus: short read-bits payload: %d bytes for %d bits", len(data), count)
	}
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		out[i] = data[i/8]&(1<<(i%8)) != 0
	}
	return out, nil
}

// unpackRegisters splits big-endian register bytes.
func unpackRegisters(data []byte, count int) ([]uint16, error) {
	if len(data) != 2*count {
		return nil, fmt.Errorf("modbus: read-registers payload is %d bytes, want %d", len(data), 2*count)
	}
	out := make([]uint16, count)
	for i := 0; i < count; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out, nil
}
