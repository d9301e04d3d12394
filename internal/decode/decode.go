// internal/decode/decode.go
package decode

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Datatype names the application type a field decodes to.
type Datatype string

const (
	Bool    Datatype = "bool"
	Uint16  Datatype = "uint16"
	Int16   Datatype = "int16"
	Uint32  Datatype = "uint32"
	Int32   Datatype = "int32"
	Float32 Datatype = "float32"
	String  Datatype = "string"
)

// Span returns how many registers (or bits) the datatype occupies.
// length only matters for String, where 0 reads nothing.
func (d Datatype) Span(length int) int {
	switch d {
	case Uint32, Int32, Float32:
		return 2
	case String:
		if length < 0 {
			return 0
		}
		return length
	default:
		return 1
	}
}

// Order is a byte or word order.
type Order string

const (
	Big    Order = "big"
	Little Order = "little"
)

// Valid reports whether o is one of the known orders.
func (o Order) Valid() bool { return o == Big || o == Little }

// Field describes one value inside a raw block.
// Orders are already resolved (field > command > global) by the caller;
// an empty order means big.
type Field struct {
	Name      string
	Datatype  Datatype
	Offset    int
	Length    int // registers, String only
	ByteOrder Order
	WordOrder Order
}

// Block is the raw result of one read.
// Exactly one of Bits or Registers is used depending on FC.
type Block struct {
	FC        uint8
	Bits      []bool   // FC 1,2
	Registers []uint16 // FC 3,4
}

var (
	ErrUnsupportedDatatype = errors.New("unsupported datatype")
	ErrUnsupportedFunction = errors.New("unsupported function code")
	ErrInsufficientData    = errors.New("insufficient data")
)

// Error is a data-shape failure scoped to one field.
type Error struct {
	Field  string
	Err    error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

func fail(f Field, err error, format string, args ...any) (Value, error) {
	return Value{}, &Error{Field: f.Name, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// Decode turns a raw block into the typed value of one field.
// It never touches the transport and has no side effects.
func Decode(raw Block, f Field) (Value, error) {
	switch raw.FC {
	case 1, 2:
		return decodeBits(raw, f)
	case 3, 4:
		return decodeRegisters(raw.Registers, f)
	default:
		return fail(f, ErrUnsupportedFunction, "fc=%d", raw.FC)
	}
}

// ---- coils / discrete inputs ----

func decodeBits(raw Block, f Field) (Value, error) {
	if f.Datatype != Bool && f.Datatype != Uint16 {
		return fail(f, ErrUnsupportedDatatype, "%q for function code %d", f.Datatype, raw.FC)
	}
	if f.Offset < 0 || f.Offset >= len(raw.Bits) {
		return fail(f, ErrInsufficientData, "bit offset %d outside block of %d", f.Offset, len(raw.Bits))
	}

	bit := raw.Bits[f.Offset]
	if f.Datatype == Bool {
		return BoolValue(bit), nil
	}
	if bit {
		return IntValue(1), nil
	}
	return IntValue(0), nil
}

// ---- holding / input registers ----

func decodeRegisters(regs []uint16, f Field) (Value, error) {
	switch f.Datatype {
	case Uint16, Int16, Uint32, Int32, Float32, String:
	default:
		return fail(f, ErrUnsupportedDatatype, "%q", f.Datatype)
	}

	span := f.Datatype.Span(f.Length)
	if f.Offset < 0 || f.Offset+span > len(regs) {
		return fail(f, ErrInsufficientData,
			"%s needs %d register(s) at offset %d, block has %d",
			f.Datatype, span, f.Offset, len(regs))
	}
	w := regs[f.Offset : f.Offset+span]

	switch f.Datatype {
	case Uint16:
		return IntValue(int64(w[0])), nil
	case Int16:
		return IntValue(Signed16(w[0])), nil
	case Uint32:
		return IntValue(int64(combine(w[0], w[1], f.WordOrder))), nil
	case Int32:
		return IntValue(Signed32(combine(w[0], w[1], f.WordOrder))), nil
	case Float32:
		hi, lo := orderBytes(w[0], f.ByteOrder), orderBytes(w[1], f.ByteOrder)
		return FloatValue(float64(math.Float32frombits(combine(hi, lo, f.WordOrder)))), nil
	default:
		return StringValue(decodeASCII(w, f.ByteOrder)), nil
	}
}

// combine joins two consecutive registers into 32 bits.
// Big word order: first register is the high half.
func combine(first, second uint16, wo Order) uint32 {
	if wo == Little {
		return uint32(second)<<16 | uint32(first)
	}
	return uint32(first)<<16 | uint32(second)
}

// orderBytes puts the most significant byte of a register first.
func orderBytes(r uint16, bo Order) uint16 {
	if bo == Little {
		return bits.ReverseBytes16(r)
	}
	return r
}

// decodeASCII emits two bytes per register, drops NULs and anything outside 7-bit ASCII.
func decodeASCII(regs []uint16, bo Order) string {
	out := make([]byte, 0, len(regs)*2)
	for _, r := range regs {
		hi, lo := byte(r>>8), byte(r)
		if bo == Little {
			hi, lo = lo, hi
		}
		for _, b := range [2]byte{hi, lo} {
			if b == 0 || b > 0x7F {
				continue
			}
			out = append(out, b)
		}
	}
	return string(out)
}
