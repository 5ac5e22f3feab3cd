// Package bitio provides positional byte and bit access over a memory-mapped
// or in-memory product file, plus the endian-swap primitives backends need
// once a value has been extracted.
//
// Grounded on github.com/saferwall/pe file.go (mmap-backed File with a
// NewBytes fallback) and on original_source/libcoda/coda-read-bits.h for the
// bit-extraction algorithm.
package bitio

import (
	"errors"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Errors returned by Source operations.
var (
	// ErrOutOfBounds is returned when a read would extend past the end of
	// the backing data.
	ErrOutOfBounds = errors.New("bitio: read extends beyond end of data")

	// ErrFileRead is returned when the underlying OS read fails.
	ErrFileRead = errors.New("bitio: file read error")
)

// Source is a read-only, positional byte source. It is the single I/O
// abstraction every backend (CDF, GRIB, the codadef ZIP reader) reads
// through: "read N bytes at offset" is enough to serve all of them.
type Source struct {
	data mmap.MMap
	buf  []byte
	f    *os.File
}

// Open memory-maps the file at path. If mapping fails (e.g. the filesystem
// does not support mmap), it falls back to a plain read into memory.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		buf, rerr := os.ReadFile(path)
		f.Close()
		if rerr != nil {
			return nil, rerr
		}
		return &Source{buf: buf}, nil
	}
	return &Source{data: data, f: f}, nil
}

// OpenBytes wraps an in-memory buffer as a Source. The buffer is not copied
// and must not be mutated while the Source is in use.
func OpenBytes(data []byte) *Source {
	return &Source{buf: data}
}

// Close releases the mapping and the underlying file descriptor, if any.
func (s *Source) Close() error {
	var err error
	if s.data != nil {
		err = s.data.Unmap()
	}
	if s.f != nil {
		if cerr := s.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Size returns the total number of bytes in the backing data.
func (s *Source) Size() int64 {
	if s.data != nil {
		return int64(len(s.data))
	}
	return int64(len(s.buf))
}

func (s *Source) bytes() []byte {
	if s.data != nil {
		return s.data
	}
	return s.buf
}

// ReadBytes reads len(dst) bytes starting at offset into dst. It fails with
// ErrOutOfBounds if offset+len(dst) exceeds the backing size.
func (s *Source) ReadBytes(offset int64, dst []byte) error {
	if offset < 0 || offset+int64(len(dst)) > s.Size() {
		return ErrOutOfBounds
	}
	copy(dst, s.bytes()[offset:offset+int64(len(dst))])
	return nil
}

// Slice returns a read-only view of length bytes starting at offset, without
// copying. The returned slice is only valid while the Source is open.
func (s *Source) Slice(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > s.Size() {
		return nil, ErrOutOfBounds
	}
	return s.bytes()[offset : offset+length], nil
}

// ReadBits extracts a contiguous, big-endian (MSB-first) bit field and
// writes it right-aligned into dst, as described in spec.md §4.1. bitOffset
// and bitLength are measured in bits from the start of the source.
//
// The algorithm mirrors coda_read_bits: single-byte fast path when the
// field fits in one byte after alignment padding, a memcpy fast path when
// the field starts on a byte boundary and spans whole bytes, and a
// 24-bit-chunk loop otherwise.
func (s *Source) ReadBits(bitOffset, bitLength int64, dst []byte) error {
	if bitLength < 0 || bitOffset < 0 {
		return ErrOutOfBounds
	}
	if bitLength == 0 {
		return nil
	}
	byteOffset := bitOffset / 8
	bitShift := bitOffset % 8
	nbytes := (bitShift + bitLength + 7) / 8
	if byteOffset+nbytes > s.Size() {
		return ErrOutOfBounds
	}
	return readBits(s.bytes()[byteOffset:byteOffset+nbytes], bitShift, bitLength, dst)
}

// readBits implements the shared extraction algorithm over an in-memory
// window that already starts at the containing byte of bitOffset.
func readBits(src []byte, bitShift, bitLength int64, dst []byte) error {
	padded := bitShift + bitLength

	if padded <= 8 {
		// Single-byte fast path: fetch, right-shift, mask.
		v := src[0]
		shift := uint(8 - padded)
		v = (v >> shift) & byteMask(bitLength)
		dst[len(dst)-1] = v
		for i := 0; i < len(dst)-1; i++ {
			dst[i] = 0
		}
		return nil
	}

	if bitShift == 0 && bitLength%8 == 0 {
		// Byte-aligned fast path.
		n := bitLength / 8
		lead := int64(len(dst)) - n
		for i := int64(0); i < lead; i++ {
			dst[i] = 0
		}
		copy(dst[lead:], src[:n])
		return nil
	}

	// General case: process in 24-bit (3-byte) windows loaded as a 4-byte
	// big-endian value, shifted into place, three bytes written at a time.
	// This mirrors coda_read_bits's "read 4, write 3" loop.
	bitsRemaining := bitLength
	srcPos := int64(0)
	dstBitPos := int64(0)
	// destination is conceptually an infinite bit string; we fill dst
	// right-aligned, so compute total dst bit width.
	dstBits := int64(len(dst)) * 8
	writePos := dstBits - bitLength // where the value starts inside dst, in bits

	curShift := bitShift
	for bitsRemaining > 0 {
		// load up to 4 bytes starting at srcPos
		var window [4]byte
		n := 0
		for n < 4 && int(srcPos)+n < len(src) {
			window[n] = src[int(srcPos)+n]
			n++
		}
		val := uint32(window[0])<<24 | uint32(window[1])<<16 | uint32(window[2])<<8 | uint32(window[3])

		avail := int64(n)*8 - curShift
		take := avail
		if take > bitsRemaining {
			take = bitsRemaining
		}
		if take > 24 {
			take = 24
		}

		shiftRight := 32 - curShift - take
		chunk := (val >> uint(shiftRight)) & uint32((int64(1)<<uint(take))-1)

		writeBitsAt(dst, writePos+dstBitPos, take, chunk)

		consumed := curShift + take
		advanceBytes := consumed / 8
		srcPos += advanceBytes
		curShift = consumed % 8
		bitsRemaining -= take
		dstBitPos += take
	}
	return nil
}

func byteMask(n int64) byte {
	if n >= 8 {
		return 0xFF
	}
	return byte((1 << uint(n)) - 1)
}

// writeBitsAt writes the low `nbits` bits of value into dst, a right-aligned
// big-endian byte slice treated as a single bit string, starting at bit
// position bitPos from the most-significant bit of dst.
func writeBitsAt(dst []byte, bitPos, nbits int64, value uint32) {
	for i := nbits - 1; i >= 0; i-- {
		bit := (value >> uint(i)) & 1
		pos := bitPos + (nbits - 1 - i)
		byteIdx := pos / 8
		bitIdx := uint(7 - pos%8)
		if bit != 0 {
			dst[byteIdx] |= 1 << bitIdx
		} else {
			dst[byteIdx] &^= 1 << bitIdx
		}
	}
}
