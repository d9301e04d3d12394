// internal/decode/signed.go
package decode

// twosComplement reinterprets the low n bits of raw as a two's-complement signed integer.
func twosComplement(raw uint64, n uint) int64 {
	sign := uint64(1) << (n - 1)
	if raw&sign != 0 {
		return int64(raw) - int64(uint64(1)<<n)
	}
	return int64(raw)
}

// Signed16 reinterprets one register as int16.
func Signed16(raw uint16) int64 { return twosComplement(uint64(raw), 16) }

// Signed32 reinterprets a combined register pair as int32.
func Signed32(raw uint32) int64 { return twosComplement(uint64(raw), 32) }

// EncodeSigned16 is the inverse of Signed16 for values in int16 range.
func EncodeSigned16(v int64) uint16 { return uint16(v) }

// EncodeSigned32 is the inverse of Signed32 for values in int32 range.
func EncodeSigned32(v int64) uint32 { return uint32(v) }
