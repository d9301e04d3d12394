// internal/poller/modbus/client_test.go
package modbus

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackBits_LSBFirst(t *testing.T) {
	bits, err := unpackBits([]byte{0b0000_0101, 0b0000_0001}, 10)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false, false, false, false, false, true, false}, bits)
}

func TestUnpackBits_Short(t *testing.T) {
	_, err := unpackBits([]byte{0xFF}, 9)
	assert.Error(t, err)
}

func TestUnpackRegisters_BigEndian(t *testing.T) {
	regs, err := unpackRegisters([]byte{0x00, 0x01, 0x41, 0x42}, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x0001, 0x4142}, regs)

	_, err = unpackRegisters([]byte{0x00}, 1)
	assert.Error(t, err)
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{Endpoint: "127.0.0.1:502", UnitID: 9})
	require.NoError(t, err)
	assert.Equal(t, byte(9), c.handler.SlaveId)
}

// ---- in-process server ----

// reply builds the response PDU for request n (0-based) on connection conn,
// and whether the server hangs up after sending it.
type reply func(conn, n int) (pdu []byte, hangUp bool)

type server struct {
	ln    net.Listener
	mu    sync.Mutex
	conns int
}

func startServer(t *testing.T, r reply) *server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &server{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			s.mu.Lock()
			idx := s.conns
			s.conns++
			s.mu.Unlock()
			go s.serve(c, idx, r)
		}
	}()
	return s
}

func (s *server) serve(c net.Conn, idx int, r reply) {
	defer c.Close()
	for n := 0; ; n++ {
		req := make([]byte, 12) // MBAP header + fc + address + quantity
		if _, err := io.ReadFull(c, req); err != nil {
			return
		}
		pdu, hangUp := r(idx, n)

		resp := make([]byte, 7, 7+len(pdu))
		copy(resp[0:4], req[0:4]) // transaction + protocol id
		binary.BigEndian.PutUint16(resp[4:6], uint16(len(pdu)+1))
		resp[6] = req[6] // unit id
		resp = append(resp, pdu...)

		if _, err := c.Write(resp); err != nil || hangUp {
			return
		}
	}
}

func (s *server) accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func twoRegisters() []byte {
	return []byte{0x03, 0x04, 0x00, 0x01, 0x00, 0x02}
}

func dial(t *testing.T, s *server) *Client {
	t.Helper()
	c, err := New(Config{Endpoint: s.ln.Addr().String(), UnitID: 1, Timeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_RedialsAfterPeerClose(t *testing.T) {
	s := startServer(t, func(conn, n int) ([]byte, bool) {
		return twoRegisters(), true
	})
	c := dial(t, s)

	regs, err := c.ReadHoldingRegisters(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2}, regs)

	_, err = c.ReadHoldingRegisters(0, 2)
	require.Error(t, err, "the peer hung up after the first reply")

	for cycle := 3; cycle <= 5; cycle++ {
		regs, err = c.ReadHoldingRegisters(0, 2)
		require.NoError(t, err, "cycle %d", cycle)
		assert.Equal(t, []uint16{1, 2}, regs)

		// every reply hangs up, so every other read fails and redials
		_, err = c.ReadHoldingRegisters(0, 2)
		require.Error(t, err)
	}
	assert.Equal(t, 4, s.accepted())
}

func TestClient_KeepsConnectionOnExceptionResponse(t *testing.T) {
	s := startServer(t, func(conn, n int) ([]byte, bool) {
		if n == 0 {
			return []byte{0x83, modbus.ExceptionCodeIllegalDataAddress}, false
		}
		return twoRegisters(), false
	})
	c := dial(t, s)

	_, err := c.ReadHoldingRegisters(0, 2)
	var me *modbus.ModbusError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, byte(modbus.ExceptionCodeIllegalDataAddress), me.ExceptionCode)

	regs, err := c.ReadHoldingRegisters(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2}, regs)
	assert.Equal(t, 1, s.accepted())
}
