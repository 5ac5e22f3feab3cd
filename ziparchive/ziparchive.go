// Package ziparchive is a minimal, read-only ZIP reader for codadef
// archives. It intentionally does not support zipfile comments or
// multi-disk archives, matching §4.3 of the specification.
//
// Grounded on original_source/libcoda/ziparchive.c, restructured in the
// teacher's (github.com/saferwall/pe) offset-struct style: fixed-size
// header regions are read into a byte window and decoded field by field
// rather than through encoding/binary.Read into a tagged struct, because
// several fields are not naturally aligned within that window.
package ziparchive

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/stcorp/coda-go/bitio"
)

// Errors returned while opening or reading a zip archive.
var (
	// ErrNotZip is returned when the end-of-central-directory signature is
	// not found; this includes archives with a zipfile comment, which is
	// unsupported.
	ErrNotZip = errors.New("ziparchive: not a zip file (or has an unsupported zip comment)")

	// ErrTooSmall is returned for files smaller than the smallest possible
	// end-of-central-directory record.
	ErrTooSmall = errors.New("ziparchive: file too small to be a zip archive")

	// ErrUnsupportedCompression is returned for any compression method
	// other than store (0) or deflate (8).
	ErrUnsupportedCompression = errors.New("ziparchive: unsupported compression method")

	// ErrCorrupt is returned when central-directory/local-header
	// cross-checks or sanity bounds fail.
	ErrCorrupt = errors.New("ziparchive: corrupt or inconsistent zip file")

	// ErrDuplicateName is returned when two entries share a filename.
	ErrDuplicateName = errors.New("ziparchive: duplicate entry name")
)

const (
	sigEndOfCentralDir    = 0x06054b50
	sigCentralDirFile     = 0x02014b50
	sigLocalFile          = 0x04034b50
	compressionStore      = 0
	compressionDeflate    = 8
	maxDeflateCompression = 1032
)

// Entry describes one file stored in the archive.
type Entry struct {
	Name               string
	Compression        uint16
	ModTime            uint16
	ModDate            uint16
	CRC32              uint32
	CompressedSize     uint32
	UncompressedSize   uint32
	LocalHeaderOffset  uint32
	ASCII              bool
}

// Archive is an opened, read-only zip archive.
type Archive struct {
	src     *bitio.Source
	owned   bool
	entries []Entry
	byName  map[string]int
}

// Open memory-maps path and parses its central directory.
func Open(path string) (*Archive, error) {
	src, err := bitio.Open(path)
	if err != nil {
		return nil, err
	}
	a, err := newArchive(src)
	if err != nil {
		src.Close()
		return nil, err
	}
	a.owned = true
	return a, nil
}

// OpenBytes parses a zip archive already resident in memory.
func OpenBytes(data []byte) (*Archive, error) {
	return newArchive(bitio.OpenBytes(data))
}

func newArchive(src *bitio.Source) (*Archive, error) {
	if src.Size() < 22 {
		return nil, ErrTooSmall
	}
	a := &Archive{src: src, byName: map[string]int{}}
	if err := a.readCentralDirectory(); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the archive's backing source, if Open (not OpenBytes)
// created it.
func (a *Archive) Close() error {
	if a.owned {
		return a.src.Close()
	}
	return nil
}

// NumEntries returns the number of entries in the archive.
func (a *Archive) NumEntries() int { return len(a.entries) }

// EntryByIndex returns the entry at the given zero-based index.
func (a *Archive) EntryByIndex(i int) (*Entry, error) {
	if i < 0 || i >= len(a.entries) {
		return nil, fmt.Errorf("ziparchive: index %d out of range", i)
	}
	return &a.entries[i], nil
}

// EntryByName looks up an entry by exact filename via the archive's
// name-to-index hash.
func (a *Archive) EntryByName(name string) (*Entry, error) {
	i, ok := a.byName[name]
	if !ok {
		return nil, fmt.Errorf("ziparchive: no such entry %q", name)
	}
	return &a.entries[i], nil
}

func (a *Archive) readCentralDirectory() error {
	size := a.src.Size()
	eocd := make([]byte, 22)
	if err := a.src.ReadBytes(size-22, eocd); err != nil {
		return err
	}
	if binary.LittleEndian.Uint32(eocd[0:4]) != sigEndOfCentralDir {
		return ErrNotZip
	}
	numEntries := binary.LittleEndian.Uint16(eocd[8:10])
	cdOffset := int64(binary.LittleEndian.Uint32(eocd[16:20]))

	a.entries = make([]Entry, numEntries)

	pos := cdOffset
	for i := 0; i < int(numEntries); i++ {
		hdr := make([]byte, 46)
		if err := a.src.ReadBytes(pos, hdr); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if binary.LittleEndian.Uint32(hdr[0:4]) != sigCentralDirFile {
			return fmt.Errorf("%w: bad central directory signature", ErrCorrupt)
		}

		e := &a.entries[i]
		e.Compression = binary.LittleEndian.Uint16(hdr[10:12])
		if e.Compression != compressionStore && e.Compression != compressionDeflate {
			return ErrUnsupportedCompression
		}
		e.ModTime = binary.LittleEndian.Uint16(hdr[12:14])
		e.ModDate = binary.LittleEndian.Uint16(hdr[14:16])
		e.CRC32 = binary.LittleEndian.Uint32(hdr[16:20])
		e.CompressedSize = binary.LittleEndian.Uint32(hdr[20:24])
		e.UncompressedSize = binary.LittleEndian.Uint32(hdr[24:28])
		filenameLen := binary.LittleEndian.Uint16(hdr[28:30])
		extraLen := binary.LittleEndian.Uint16(hdr[30:32])
		commentLen := binary.LittleEndian.Uint16(hdr[32:34])
		internalAttrs := binary.LittleEndian.Uint16(hdr[36:38])
		e.ASCII = internalAttrs&0x1 != 0
		e.LocalHeaderOffset = binary.LittleEndian.Uint32(hdr[42:46])

		name := make([]byte, filenameLen)
		if err := a.src.ReadBytes(pos+46, name); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		e.Name = string(name)

		if _, dup := a.byName[e.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
		}
		a.byName[e.Name] = i

		if err := a.sanityCheck(e, size); err != nil {
			return err
		}

		pos += 46 + int64(filenameLen) + int64(extraLen) + int64(commentLen)
	}
	return nil
}

func (a *Archive) sanityCheck(e *Entry, fileSize int64) error {
	off := int64(e.LocalHeaderOffset)
	if off > fileSize {
		return fmt.Errorf("%w: local header offset exceeds file size", ErrCorrupt)
	}
	if e.Compression != compressionStore {
		if off+int64(e.CompressedSize) > fileSize {
			return fmt.Errorf("%w: entry size exceeds file size", ErrCorrupt)
		}
		if int64(e.UncompressedSize)/maxDeflateCompression > int64(e.CompressedSize)+1 {
			return fmt.Errorf("%w: implausible uncompressed size", ErrCorrupt)
		}
	} else {
		if e.CompressedSize != e.UncompressedSize {
			return fmt.Errorf("%w: store entry with mismatched sizes", ErrCorrupt)
		}
		if off+int64(e.UncompressedSize) > fileSize {
			return fmt.Errorf("%w: entry size exceeds file size", ErrCorrupt)
		}
	}
	return nil
}

// ReadEntry reads and, if necessary, inflates the full contents of entry,
// cross-checking the local file header against the central directory
// record before trusting its data.
func (a *Archive) ReadEntry(e *Entry) ([]byte, error) {
	local := make([]byte, 30)
	if err := a.src.ReadBytes(int64(e.LocalHeaderOffset), local); err != nil {
		return nil, err
	}
	if binary.LittleEndian.Uint32(local[0:4]) != sigLocalFile {
		return nil, fmt.Errorf("%w: bad local file header signature", ErrCorrupt)
	}
	if binary.LittleEndian.Uint16(local[8:10]) != e.Compression {
		return nil, fmt.Errorf("%w: compression mismatch between local header and central directory", ErrCorrupt)
	}
	if binary.LittleEndian.Uint16(local[10:12]) != e.ModTime {
		return nil, fmt.Errorf("%w: modification time mismatch", ErrCorrupt)
	}
	if binary.LittleEndian.Uint16(local[12:14]) != e.ModDate {
		return nil, fmt.Errorf("%w: modification date mismatch", ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(local[14:18]) != e.CRC32 {
		return nil, fmt.Errorf("%w: crc mismatch", ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(local[18:22]) != e.CompressedSize {
		return nil, fmt.Errorf("%w: compressed size mismatch", ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(local[22:26]) != e.UncompressedSize {
		return nil, fmt.Errorf("%w: uncompressed size mismatch", ErrCorrupt)
	}
	filenameLen := binary.LittleEndian.Uint16(local[26:28])
	if int(filenameLen) != len(e.Name) {
		return nil, fmt.Errorf("%w: filename length mismatch", ErrCorrupt)
	}
	extraLen := binary.LittleEndian.Uint16(local[28:30])

	dataOffset := int64(e.LocalHeaderOffset) + 30 + int64(filenameLen) + int64(extraLen)
	compressed, err := a.src.Slice(dataOffset, int64(e.CompressedSize))
	if err != nil {
		return nil, err
	}

	if e.Compression == compressionStore {
		out := make([]byte, e.UncompressedSize)
		copy(out, compressed)
		return out, nil
	}

	// Raw deflate, no zlib/gzip wrapper (windowBits=-15 equivalent).
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	out := make([]byte, e.UncompressedSize)
	n, err := io.ReadFull(r, out)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("ziparchive: inflate %q: %w", e.Name, err)
	}
	if uint32(n) != e.UncompressedSize {
		return nil, fmt.Errorf("%w: inflate produced %d bytes, expected %d", ErrCorrupt, n, e.UncompressedSize)
	}
	return out, nil
}
