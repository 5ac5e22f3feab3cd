package cdf_test

import (
	"testing"

	coda "github.com/stcorp/coda-go"
)

func be64(v int64) []byte {
	out := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func be32(v int32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func putString(buf []byte, offset int, s string, fieldLen int) {
	copy(buf[offset:offset+fieldLen], s)
}

// record type tags, mirrored from cdf.go's unexported constants.
const (
	rtCDR   = 1
	rtGDR   = 2
	rtADR   = 4
	rtAEDR  = 5
	rtVXR   = 6
	rtVVR   = 7
	rtzVDR  = 8
	rtCVVR  = 13
)

// buildS1 is S1: one scalar zVariable ("temperature", INT4, value 42) plus
// one global attribute ("title", CHAR, value "test"), stored uncompressed.
func buildS1() []byte {
	const (
		cdrOff  = 8
		cdrLen  = 32
		gdrOff  = cdrOff + cdrLen  // 40
		gdrLen  = 60
		zvdrOff = gdrOff + gdrLen // 100
		zvdrLen = 344
		vxrOff  = zvdrOff + zvdrLen // 444
		vxrLen  = 44
		vvrOff  = vxrOff + vxrLen // 488
		vvrLen  = 16
		adrOff  = vvrOff + vvrLen // 504
		adrLen  = 324
		aedrOff = adrOff + adrLen // 828
		aedrLen = 60
		total   = aedrOff + aedrLen // 888
	)

	buf := make([]byte, total)
	copy(buf[0:4], []byte{0xCD, 0xF3, 0x00, 0x01}) // CDF v3 magic
	copy(buf[4:8], be32(1))                        // not the CCR magic

	// CDR
	copy(buf[cdrOff+0:], be64(cdrLen))
	copy(buf[cdrOff+8:], be32(rtCDR))
	copy(buf[cdrOff+12:], be64(gdrOff))
	copy(buf[cdrOff+28:], be32(1)) // encoding: NETWORK (big-endian)

	// GDR
	copy(buf[gdrOff+0:], be64(gdrLen))
	copy(buf[gdrOff+8:], be32(rtGDR))
	copy(buf[gdrOff+12:], be64(0))        // rVDRhead
	copy(buf[gdrOff+20:], be64(zvdrOff))  // zVDRhead
	copy(buf[gdrOff+28:], be64(adrOff))   // ADRhead
	copy(buf[gdrOff+36:], be64(total))    // eof
	copy(buf[gdrOff+56:], be32(0))        // rNumDims

	// zVDR: scalar (numDims=0) INT4 variable "temperature"
	copy(buf[zvdrOff+0:], be64(zvdrLen))
	copy(buf[zvdrOff+8:], be32(rtzVDR))
	copy(buf[zvdrOff+12:], be64(0))      // next
	copy(buf[zvdrOff+20:], be32(4))      // dataType: INT4
	copy(buf[zvdrOff+24:], be32(0))      // maxRec: 1 record
	copy(buf[zvdrOff+28:], be64(vxrOff)) // vxrHead
	copy(buf[zvdrOff+44:], be32(1))      // flags: recordVary
	copy(buf[zvdrOff+64:], be32(1))      // numElems
	copy(buf[zvdrOff+80:], be32(1))      // blockingFactor
	putString(buf, zvdrOff+84, "temperature", 256)
	copy(buf[zvdrOff+340:], be32(0)) // numDims

	// VXR: one entry covering record 0, pointing at the VVR
	copy(buf[vxrOff+0:], be64(vxrLen))
	copy(buf[vxrOff+8:], be32(rtVXR))
	copy(buf[vxrOff+12:], be64(0)) // next
	copy(buf[vxrOff+20:], be32(1)) // nEntries
	copy(buf[vxrOff+24:], be32(1)) // nUsed
	copy(buf[vxrOff+28:], be32(0)) // vrFirst
	copy(buf[vxrOff+32:], be32(0)) // vrLast
	copy(buf[vxrOff+36:], be64(vvrOff))

	// VVR: one INT4 value, 42, big-endian
	copy(buf[vvrOff+0:], be64(vvrLen))
	copy(buf[vvrOff+8:], be32(rtVVR))
	copy(buf[vvrOff+12:], be32(42))

	// ADR: global attribute "title"
	copy(buf[adrOff+0:], be64(adrLen))
	copy(buf[adrOff+8:], be32(rtADR))
	copy(buf[adrOff+12:], be64(0))       // next
	copy(buf[adrOff+20:], be64(aedrOff)) // AgrEDRhead
	copy(buf[adrOff+28:], be32(1))       // scope: global
	copy(buf[adrOff+36:], be32(0))       // NgrEntries
	copy(buf[adrOff+48:], be64(0))       // AzEDRhead
	copy(buf[adrOff+56:], be32(0))       // NzEntries
	putString(buf, adrOff+68, "title", 256)

	// AEDR: the attribute's CHAR value, "test"
	copy(buf[aedrOff+0:], be64(aedrLen))
	copy(buf[aedrOff+8:], be32(rtAEDR))
	copy(buf[aedrOff+12:], be64(0)) // next
	copy(buf[aedrOff+24:], be32(51)) // dataType: CHAR
	copy(buf[aedrOff+32:], be32(4))  // numElems: string length
	copy(buf[aedrOff+56:], []byte("test"))

	return buf
}

func TestCDFScalarAndGlobalAttribute(t *testing.T) {
	p, err := coda.OpenBytes("s1-test.cdf", buildS1(), nil)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer p.Close()

	c := p.NewCursor()
	if err := c.GotoRecordFieldByName("temperature"); err != nil {
		t.Fatalf("goto temperature: %v", err)
	}
	if err := c.GotoArrayElementByIndex(0); err != nil {
		t.Fatalf("goto [0]: %v", err)
	}
	got, err := c.ReadInt64()
	if err != nil {
		t.Fatalf("ReadInt64: %v", err)
	}
	if got != 42 {
		t.Errorf("temperature[0] = %d, want 42", got)
	}
	if err := c.GotoParent(); err != nil {
		t.Fatal(err)
	}
	if err := c.GotoParent(); err != nil {
		t.Fatal(err)
	}

	if err := c.GotoAttributes(); err != nil {
		t.Fatalf("goto attributes: %v", err)
	}
	if err := c.GotoRecordFieldByName("title"); err != nil {
		t.Fatalf("goto title: %v", err)
	}
	title, err := c.ReadString()
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if title != "test" {
		t.Errorf("title = %q, want %q", title, "test")
	}
}

// the zlib-compressed encoding of three big-endian INT4 values 1, 2, 3,
// precomputed (compress/zlib's output for this exact input is deterministic
// across runs with the same compression level).
var s2CompressedValues = []byte{
	0x78, 0xda, 0x63, 0x60, 0x60, 0x60, 0x64, 0x60, 0x60, 0x60,
	0x02, 0x62, 0x66, 0x00, 0x00, 0x22, 0x00, 0x07,
}

// buildS2 is S2: one zVariable ("data", INT4, dims [3]) with its single
// record's values stored as one zlib-compressed CVVR block.
func buildS2() []byte {
	const (
		cdrOff  = 8
		cdrLen  = 32
		gdrOff  = cdrOff + cdrLen // 40
		gdrLen  = 60
		zvdrOff = gdrOff + gdrLen // 100
		zvdrLen = 352
		vxrOff  = zvdrOff + zvdrLen // 452
		vxrLen  = 44
		cvvrOff = vxrOff + vxrLen // 496
	)
	cvvrLen := 24 + len(s2CompressedValues)
	total := cvvrOff + cvvrLen

	buf := make([]byte, total)
	copy(buf[0:4], []byte{0xCD, 0xF3, 0x00, 0x01})
	copy(buf[4:8], be32(1))

	copy(buf[cdrOff+0:], be64(cdrLen))
	copy(buf[cdrOff+8:], be32(rtCDR))
	copy(buf[cdrOff+12:], be64(gdrOff))
	copy(buf[cdrOff+28:], be32(1))

	copy(buf[gdrOff+0:], be64(gdrLen))
	copy(buf[gdrOff+8:], be32(rtGDR))
	copy(buf[gdrOff+12:], be64(0))
	copy(buf[gdrOff+20:], be64(zvdrOff))
	copy(buf[gdrOff+28:], be64(0)) // no global attributes
	copy(buf[gdrOff+36:], be64(int64(total)))
	copy(buf[gdrOff+56:], be32(0))

	copy(buf[zvdrOff+0:], be64(zvdrLen))
	copy(buf[zvdrOff+8:], be32(rtzVDR))
	copy(buf[zvdrOff+12:], be64(0))
	copy(buf[zvdrOff+20:], be32(4)) // INT4
	copy(buf[zvdrOff+24:], be32(0))
	copy(buf[zvdrOff+28:], be64(vxrOff))
	copy(buf[zvdrOff+44:], be32(1))
	copy(buf[zvdrOff+64:], be32(1))
	copy(buf[zvdrOff+80:], be32(1))
	putString(buf, zvdrOff+84, "data", 256)
	copy(buf[zvdrOff+340:], be32(1)) // numDims
	copy(buf[zvdrOff+344:], be32(3)) // dims[0]
	copy(buf[zvdrOff+348:], be32(1)) // dimVarys[0]

	copy(buf[vxrOff+0:], be64(vxrLen))
	copy(buf[vxrOff+8:], be32(rtVXR))
	copy(buf[vxrOff+12:], be64(0))
	copy(buf[vxrOff+20:], be32(1))
	copy(buf[vxrOff+24:], be32(1))
	copy(buf[vxrOff+28:], be32(0))
	copy(buf[vxrOff+32:], be32(0))
	copy(buf[vxrOff+36:], be64(cvvrOff))

	copy(buf[cvvrOff+0:], be64(int64(cvvrLen)))
	copy(buf[cvvrOff+8:], be32(rtCVVR))
	copy(buf[cvvrOff+16:], be64(int64(len(s2CompressedValues))))
	copy(buf[cvvrOff+24:], s2CompressedValues)

	return buf
}

func TestCDFCompressedArray(t *testing.T) {
	p, err := coda.OpenBytes("s2-test.cdf", buildS2(), nil)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer p.Close()

	c := p.NewCursor()
	if err := c.GotoRecordFieldByName("data"); err != nil {
		t.Fatalf("goto data: %v", err)
	}
	n, err := c.GetNumElements()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("GetNumElements() = %d, want 3", n)
	}

	want := []int64{1, 2, 3}
	for i, w := range want {
		if err := c.GotoArrayElementByIndex(int64(i)); err != nil {
			t.Fatalf("goto [%d]: %v", i, err)
		}
		got, err := c.ReadInt64()
		if err != nil {
			t.Fatalf("ReadInt64 [%d]: %v", i, err)
		}
		if got != w {
			t.Errorf("data[%d] = %d, want %d", i, got, w)
		}
		if err := c.GotoParent(); err != nil {
			t.Fatal(err)
		}
	}
}
