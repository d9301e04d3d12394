// internal/config/config.go
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the gateway configuration as written by the operator.
// Pointer fields distinguish "absent" from zero; Normalize fills defaults.
type Config struct {
	// ---- SOURCE ----
	IP         string  `json:"ip" yaml:"ip"`
	ModbusHost string  `json:"modbus_host" yaml:"modbus_host"`
	Port       *uint16 `json:"port" yaml:"port"`
	ModbusPort *uint16 `json:"modbus_port" yaml:"modbus_port"`
	UnitID     *uint8  `json:"unit_id" yaml:"unit_id"`

	// ---- TIMING (seconds) ----
	PollInterval      *float64 `json:"poll_interval" yaml:"poll_interval"`
	HeartbeatInterval *float64 `json:"heartbeat_interval" yaml:"heartbeat_interval"`
	Timeout           *float64 `json:"timeout" yaml:"timeout"`
	ConnectRetryDelay *float64 `json:"connect_retry_delay" yaml:"connect_retry_delay"`

	// IdleTimeout closes an unused connection; absent or 0 keeps the transport default.
	IdleTimeout *float64 `json:"idle_timeout" yaml:"idle_timeout"`

	// ---- DEFAULT ORDERS ----
	ByteOrder string `json:"byte_order" yaml:"byte_order"`
	WordOrder string `json:"word_order" yaml:"word_order"`

	// ---- OPERATIONS ----
	MetricsListen string `json:"metrics_listen" yaml:"metrics_listen"`
	LogLevel      string `json:"log_level" yaml:"log_level"`

	Commands []CommandConfig `json:"commands" yaml:"commands"`
}

// ---- READ GEOMETRY ----

// CommandConfig is one contiguous read serving one or more fields.
type CommandConfig struct {
	FunctionCode *uint8  `json:"function_code" yaml:"function_code"`
	Address      *uint16 `json:"address" yaml:"address"`
	Quantity     *uint16 `json:"quantity" yaml:"quantity"`

	ByteOrder string `json:"byte_order" yaml:"byte_order"`
	WordOrder string `json:"word_order" yaml:"word_order"`

	Fields []FieldConfig `json:"fields" yaml:"fields"`
}

// ---- POINTS ----

// FieldConfig is one named value inside a command's block.
type FieldConfig struct {
	Name     string `json:"name" yaml:"name"`
	Offset   *int   `json:"offset" yaml:"offset"`
	Datatype string `json:"datatype" yaml:"datatype"`
	Length   *int   `json:"length" yaml:"length"` // registers, string only

	ByteOrder string `json:"byte_order" yaml:"byte_order"`
	WordOrder string `json:"word_order" yaml:"word_order"`
}

// Host returns modbus_host, falling back to ip.
func (c *Config) Host() string {
	if c.ModbusHost != "" {
		return c.ModbusHost
	}
	return c.IP
}

// TCPPort returns modbus_port, falling back to port.
func (c *Config) TCPPort() uint16 {
	if c.ModbusPort != nil {
		return *c.ModbusPort
	}
	if c.Port != nil {
		return *c.Port
	}
	return 0
}

// Endpoint is host:port for the TCP dialer.
func (c *Config) Endpoint() string {
	return net.JoinHostPort(c.Host(), strconv.Itoa(int(c.TCPPort())))
}

func (c *Config) PollEvery() time.Duration        { return seconds(c.PollInterval) }
func (c *Config) HeartbeatEvery() time.Duration   { return seconds(c.HeartbeatInterval) }
func (c *Config) TransportTimeout() time.Duration { return seconds(c.Timeout) }
func (c *Config) RetryDelay() time.Duration       { return seconds(c.ConnectRetryDelay) }
func (c *Config) IdleEvery() time.Duration        { return seconds(c.IdleTimeout) }

func seconds(v *float64) time.Duration {
	if v == nil {
		return 0
	}
	return time.Duration(*v * float64(time.Second))
}
