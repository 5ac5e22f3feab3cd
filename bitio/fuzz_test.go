package bitio

import "testing"

// FuzzReadBits checks that ReadBits never panics for arbitrary (buffer,
// offset, length) triples; the returned error and dst contents are not
// inspected. It replaces the
// teacher's go-fuzz-style Fuzz(data []byte) int entry point with a native
// testing.F target.
func FuzzReadBits(f *testing.F) {
	f.Add([]byte{0x12, 0x34, 0x56, 0x78}, int64(4), int64(12))
	f.Add([]byte{0xFF}, int64(0), int64(8))
	f.Add([]byte{}, int64(0), int64(0))

	f.Fuzz(func(t *testing.T, data []byte, bitOffset, bitLength int64) {
		if bitLength < 0 || bitLength > 1<<20 {
			return
		}
		src := OpenBytes(data)
		dst := make([]byte, (bitLength+7)/8)
		_ = src.ReadBits(bitOffset, bitLength, dst)
	})
}
