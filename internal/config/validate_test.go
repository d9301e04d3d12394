// internal/config/validate_test.go
package config

import (
	"errors"
	"testing"
)

func u8(v uint8) *uint8      { return &v }
func u16(v uint16) *uint16   { return &v }
func intp(v int) *int        { return &v }
func f64(v float64) *float64 { return &v }

// helper to build a one-command config quickly
func single(fc uint8, addr, qty uint16, fields ...FieldConfig) *Config {
	if fields == nil {
		fields = []FieldConfig{}
	}
	return &Config{
		Commands: []CommandConfig{
			{
				FunctionCode: u8(fc),
				Address:      u16(addr),
				Quantity:     u16(qty),
				Fields:       fields,
			},
		},
	}
}

func field(name string, offset int, datatype string) FieldConfig {
	return FieldConfig{Name: name, Offset: intp(offset), Datatype: datatype}
}

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	cfg := single(3, 0, 2, field("temp", 0, "uint32"))

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDatatypeIsNotAConfigError(t *testing.T) {
	cfg := single(3, 0, 2, field("x", 0, "complex128"))

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CommandsMissing(t *testing.T) {
	err := Validate(&Config{})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate_CommandKeysMissing(t *testing.T) {
	cfg := single(3, 0, 2)
	cfg.Commands[0].Quantity = nil

	if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate_FieldsMissing(t *testing.T) {
	cfg := single(3, 0, 2)
	cfg.Commands[0].Fields = nil

	if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate_BadFunctionCode(t *testing.T) {
	cfg := single(6, 0, 2)

	if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate_ZeroQuantity(t *testing.T) {
	cfg := single(1, 0, 0)

	if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate_FieldNameAndOffsetRequired(t *testing.T) {
	cfg := single(3, 0, 2, FieldConfig{Offset: intp(0), Datatype: "uint16"})
	if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing name, got %v", err)
	}

	cfg = single(3, 0, 2, FieldConfig{Name: "a", Datatype: "uint16"})
	if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing offset, got %v", err)
	}
}

func TestValidate_BadOrder(t *testing.T) {
	cfg := single(3, 0, 2, field("a", 0, "float32"))
	cfg.Commands[0].Fields[0].WordOrder = "middle"

	if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	cfg = single(3, 0, 2)
	cfg.ByteOrder = "BIG"
	if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate_NegativeInterval(t *testing.T) {
	cfg := single(3, 0, 2)
	cfg.PollInterval = f64(-1)

	if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := single(3, 0, 2)
	cfg.LogLevel = "loud"

	if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
