package regfile

// Pure bit transforms used when building and decoding issue, tag, and
// address bytes. These mirror the accumulator rotate sequences of the
// original chip exactly and have no side effects.

// ExtractBits67 isolates bits 6-7 of a byte, shifted down to bits 0-1.
func ExtractBits67(val byte) byte {
	return (val >> 6) & 0x03
}

// ExtractBit5 isolates bit 5 of a byte, shifted down to bit 0.
func ExtractBit5(val byte) byte {
	return (val >> 5) & 0x01
}

// CombineShift shifts an LBA byte left by two, masks the result to bits
// 2-7, and ORs it into the low bits of val. This is the exact address-byte
// packing the command engine hardware expects; do not replace it with a
// wider encoding.
func CombineShift(val, lba byte) byte {
	return val | ((lba << 2) & 0xFC)
}

// ModeNibbleHigh moves the low nibble of a mode parameter into bits 4-6,
// the layout of the command mode select register.
func ModeNibbleHigh(val byte) byte {
	return (val << 4) & 0x70
}
