package bitio

import "unsafe"

// Swap16 reverses the byte order of a 16-bit value in place.
//
// Grounded on original_source/libcoda/coda-swap2.h: a direct byte-index
// swap, not a round-trip through encoding/binary.
func Swap16(b []byte) {
	_ = b[1]
	b[0], b[1] = b[1], b[0]
}

// Swap32 reverses the byte order of a 32-bit value in place.
func Swap32(b []byte) {
	_ = b[3]
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
}

// Swap64 reverses the byte order of a 64-bit value in place.
func Swap64(b []byte) {
	_ = b[7]
	b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7] =
		b[7], b[6], b[5], b[4], b[3], b[2], b[1], b[0]
}

// Swap reverses byte order in place for widths of 1, 2, 4, or 8 bytes. A
// width of 1 is a no-op, matching Testable Property 3.
func Swap(b []byte) {
	switch len(b) {
	case 1:
	case 2:
		Swap16(b)
	case 4:
		Swap32(b)
	case 8:
		Swap64(b)
	}
}

// HostIsLittleEndian reports whether the host this binary runs on is
// little-endian. Used to decide whether a value read from a little-endian
// or big-endian product needs a swap before interpretation.
func HostIsLittleEndian() bool {
	var x uint16 = 1
	return *(*byte)(unsafe.Pointer(&x)) == 1
}
