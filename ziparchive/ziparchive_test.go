package ziparchive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"hash/crc32"
	"testing"
)

// buildZip constructs a valid zip archive in memory using the standard
// library's writer, so the reader under test can be exercised against
// byte-for-byte realistic input without needing to hand-encode headers.
// Entries are deflated here and written raw, so each local header carries
// the CRC and sizes that the reader cross-checks against the central
// directory (zip.Writer.Create would defer them to a data descriptor).
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range files {
		var comp bytes.Buffer
		cw, err := flate.NewWriter(&comp, flate.DefaultCompression)
		if err != nil {
			t.Fatalf("flate.NewWriter: %v", err)
		}
		if _, err := cw.Write([]byte(content)); err != nil {
			t.Fatalf("compress %q: %v", name, err)
		}
		if err := cw.Close(); err != nil {
			t.Fatalf("compress %q: %v", name, err)
		}
		fw, err := w.CreateRaw(&zip.FileHeader{
			Name:               name,
			Method:             zip.Deflate,
			CRC32:              crc32.ChecksumIEEE([]byte(content)),
			CompressedSize64:   uint64(comp.Len()),
			UncompressedSize64: uint64(len(content)),
		})
		if err != nil {
			t.Fatalf("CreateRaw(%q): %v", name, err)
		}
		if _, err := fw.Write(comp.Bytes()); err != nil {
			t.Fatalf("Write(%q): %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip Close: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	files := map[string]string{
		"index.xml":       "<index/>",
		"types/number.xml": "<NamedType/>",
		"VERSION":         "3",
	}
	data := buildZip(t, files)

	a, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer a.Close()

	if a.NumEntries() != len(files) {
		t.Fatalf("NumEntries = %d, want %d", a.NumEntries(), len(files))
	}

	var totalSize int64
	for name, want := range files {
		e, err := a.EntryByName(name)
		if err != nil {
			t.Fatalf("EntryByName(%q): %v", name, err)
		}
		got, err := a.ReadEntry(e)
		if err != nil {
			t.Fatalf("ReadEntry(%q): %v", name, err)
		}
		if string(got) != want {
			t.Fatalf("entry %q = %q, want %q", name, got, want)
		}
		if uint32(len(got)) != e.UncompressedSize {
			t.Fatalf("entry %q: read %d bytes, UncompressedSize=%d", name, len(got), e.UncompressedSize)
		}
		totalSize += int64(len(got))
	}

	var accounted int64
	for i := 0; i < a.NumEntries(); i++ {
		e, err := a.EntryByIndex(i)
		if err != nil {
			t.Fatalf("EntryByIndex(%d): %v", i, err)
		}
		accounted += int64(e.UncompressedSize)
	}
	if accounted != totalSize {
		t.Fatalf("accounted size %d != actual total %d", accounted, totalSize)
	}
}

func TestNotZip(t *testing.T) {
	_, err := OpenBytes([]byte("not a zip file, but long enough to pass the size check......"))
	if err != ErrNotZip {
		t.Fatalf("got %v, want ErrNotZip", err)
	}
}

func TestTooSmall(t *testing.T) {
	_, err := OpenBytes([]byte{1, 2, 3})
	if err != ErrTooSmall {
		t.Fatalf("got %v, want ErrTooSmall", err)
	}
}
