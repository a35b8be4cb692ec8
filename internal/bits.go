// Package internal holds small helpers shared by the Celsior packages.
package internal

// ComposeByte packs up to eight booleans into a byte.
// bits[0] is the least significant bit.
func ComposeByte(bits ...bool) (value byte) {
	for n, bit := range bits {
		if n >= 8 {
			break
		}
		if bit {
			value |= 1 << n
		}
	}
	return
}

// BitAt reports whether bit index is set in value.
// Indices outside 0..7 are never set.
func BitAt(value byte, index int) bool {
	if index < 0 || index > 7 {
		return false
	}
	return (value>>index)&1 == 1
}

// Word composes a 16-bit word; hi occupies bits 8-15.
func Word(hi, lo byte) uint16 {
	return (uint16(hi) << 8) | uint16(lo)
}

// HighByte returns bits 8-15 of a word.
func HighByte(word uint16) byte {
	return byte(word >> 8)
}

// LowByte returns bits 0-7 of a word.
func LowByte(word uint16) byte {
	return byte(word & 0xff)
}
