// internal/decode/value.go
package decode

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind tags the concrete type carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is one decoded field value.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Null returns the value of a field that could not be read.
func Null() Value { return Value{} }

// BoolValue wraps a coil or discrete input.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue wraps any integer datatype.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue wraps a decoded float32, widened without rounding.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// StringValue wraps decoded ASCII text.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// Kind reports which type v carries.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Interface returns the value as bool, int64, float64, string or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

// Equal reports exact equality. Floats compare with ==, so NaN never equals itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return "null"
	}
}

// MarshalJSON writes the bare JSON scalar. NaN and infinities become null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}
