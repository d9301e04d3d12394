// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultHost              = "127.0.0.1"
	DefaultPort       uint16 = 502
	DefaultUnitID     uint8  = 1
	DefaultPoll              = 10.0 // seconds
	DefaultHeartbeat         = 60.0 // seconds
	DefaultTimeout           = 5.0  // seconds
	DefaultRetryDelay        = 3.0  // seconds
	DefaultOrder             = "big"
	DefaultLogLevel          = "info"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// SOURCE DEFAULTS
	// ------------------------------------------------------------

	if cfg.ModbusHost == "" && cfg.IP == "" {
		cfg.IP = DefaultHost
	}
	if cfg.ModbusPort == nil && cfg.Port == nil {
		p := DefaultPort
		cfg.Port = &p
	}
	if cfg.UnitID == nil {
		u := DefaultUnitID
		cfg.UnitID = &u
	}

	setSeconds(&cfg.PollInterval, DefaultPoll)
	setSeconds(&cfg.HeartbeatInterval, DefaultHeartbeat)
	setSeconds(&cfg.Timeout, DefaultTimeout)
	setSeconds(&cfg.ConnectRetryDelay, DefaultRetryDelay)

	if cfg.ByteOrder == "" {
		cfg.ByteOrder = DefaultOrder
	}
	if cfg.WordOrder == "" {
		cfg.WordOrder = DefaultOrder
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	// ------------------------------------------------------------
	// ORDER RESOLUTION: field > command > global
	// ------------------------------------------------------------

	for ci := range cfg.Commands {
		c := &cfg.Commands[ci]
		c.ByteOrder = firstNonEmpty(c.ByteOrder, cfg.ByteOrder)
		c.WordOrder = firstNonEmpty(c.WordOrder, cfg.WordOrder)

		for fi := range c.Fields {
			f := &c.Fields[fi]
			f.ByteOrder = firstNonEmpty(f.ByteOrder, c.ByteOrder)
			f.WordOrder = firstNonEmpty(f.WordOrder, c.WordOrder)

			// one register = two characters; an explicit 0 stays 0
			if f.Length == nil {
				l := 1
				f.Length = &l
			}
		}
	}
}

func setSeconds(dst **float64, def float64) {
	if *dst == nil {
		v := def
		*dst = &v
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
