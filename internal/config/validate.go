// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrInvalid marks every configuration-shape failure. These are fatal at startup.
var ErrInvalid = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
//
// Datatypes are deliberately not checked here: an unknown datatype is a
// decode error scoped to its field at runtime.
func Validate(cfg *Config) error {
	if cfg == nil {
		return invalid("empty configuration")
	}

	// ------------------------------------------------------------
	// GLOBAL SETTINGS
	// ------------------------------------------------------------

	for name, v := range map[string]*float64{
		"poll_interval":       cfg.PollInterval,
		"heartbeat_interval":  cfg.HeartbeatInterval,
		"timeout":             cfg.Timeout,
		"connect_retry_delay": cfg.ConnectRetryDelay,
		"idle_timeout":        cfg.IdleTimeout,
	} {
		if v != nil && *v < 0 {
			return invalid("%s must be >= 0, got %v", name, *v)
		}
	}

	if err := checkOrder("byte_order", cfg.ByteOrder); err != nil {
		return err
	}
	if err := checkOrder("word_order", cfg.WordOrder); err != nil {
		return err
	}

	if cfg.LogLevel != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return invalid("log_level %q: %v", cfg.LogLevel, err)
		}
	}

	// ------------------------------------------------------------
	// COMMANDS + FIELDS
	// ------------------------------------------------------------

	if cfg.Commands == nil {
		return invalid("'commands' must be a list")
	}

	for ci, c := range cfg.Commands {
		if c.FunctionCode == nil || c.Address == nil || c.Quantity == nil {
			return invalid("command %d: missing required key (function_code, address, quantity)", ci)
		}
		switch *c.FunctionCode {
		case 1, 2, 3, 4:
		default:
			return invalid("command %d: unsupported function_code %d", ci, *c.FunctionCode)
		}
		if *c.Quantity == 0 {
			return invalid("command %d: quantity must be > 0", ci)
		}
		if c.Fields == nil {
			return invalid("command %d: 'fields' must be a list", ci)
		}
		if err := checkOrder(fmt.Sprintf("command %d byte_order", ci), c.ByteOrder); err != nil {
			return err
		}
		if err := checkOrder(fmt.Sprintf("command %d word_order", ci), c.WordOrder); err != nil {
			return err
		}

		for fi, f := range c.Fields {
			where := fmt.Sprintf("command %d field %d", ci, fi)
			if strings.TrimSpace(f.Name) == "" {
				return invalid("%s: name required", where)
			}
			if f.Offset == nil {
				return invalid("%s (%s): offset required", where, f.Name)
			}
			if *f.Offset < 0 {
				return invalid("%s (%s): offset must be >= 0", where, f.Name)
			}
			if f.Length != nil && *f.Length < 0 {
				return invalid("%s (%s): length must be >= 0", where, f.Name)
			}
			if err := checkOrder(where+" byte_order", f.ByteOrder); err != nil {
				return err
			}
			if err := checkOrder(where+" word_order", f.WordOrder); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkOrder(key, v string) error {
	switch v {
	case "", "big", "little":
		return nil
	default:
		return invalid("%s must be \"big\" or \"little\", got %q", key, v)
	}
}
