package grib_test

import (
	"math"
	"testing"

	coda "github.com/stcorp/coda-go"
)

func u24be(v int) []byte { return []byte{byte(v >> 16), byte(v >> 8), byte(v)} }
func u16be(v int) []byte { return []byte{byte(v >> 8), byte(v)} }

func signed16be(v int) []byte {
	if v < 0 {
		mag := -v
		return []byte{byte(0x80 | (mag >> 8 & 0x7F)), byte(mag)}
	}
	return []byte{byte(v >> 8 & 0x7F), byte(v)}
}

// buildGRIB1Message is S3: one message, a 2x2 grid, decimalScaleFactor=0,
// binaryScaleFactor=-1, referenceValue=10.0, bitsPerValue=4, packed payload
// 0x12 0x34 (raw values 1,2,3,4) decoding to [10.5, 11.0, 11.5, 12.0].
func buildGRIB1Message() []byte {
	pds := make([]byte, 28)
	copy(pds[0:3], u24be(28)) // PDS section size, no extension
	pds[7] = 0x80             // hasGDS, no BMS
	copy(pds[26:28], signed16be(0))

	gds := make([]byte, 6+26)
	copy(gds[0:3], u24be(len(gds)))
	gds[5] = 0 // latitude/longitude grid
	copy(gds[6:8], u16be(2))  // Ni
	copy(gds[8:10], u16be(2)) // Nj

	bds := make([]byte, 11)
	copy(bds[0:3], u24be(11+2))
	copy(bds[4:6], signed16be(-1))
	copy(bds[6:10], []byte{0x41, 0xA0, 0x00, 0x00}) // IBM hex float 10.0
	bds[10] = 4                                     // bitsPerValue
	payload := []byte{0x12, 0x34}

	body := append([]byte{}, pds...)
	body = append(body, gds...)
	body = append(body, bds...)
	body = append(body, payload...)

	var msg []byte
	msg = append(msg, []byte("GRIB")...)
	msg = append(msg, u24be(8+len(body))...)
	msg = append(msg, 1) // edition
	msg = append(msg, body...)
	return msg
}

func TestGRIB1SimplePackedValues(t *testing.T) {
	p, err := coda.OpenBytes("s3-test.grb", buildGRIB1Message(), nil)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer p.Close()

	c := p.NewCursor()
	if err := c.GotoArrayElementByIndex(0); err != nil {
		t.Fatalf("goto message 0: %v", err)
	}
	if err := c.GotoRecordFieldByName("values"); err != nil {
		t.Fatalf("goto values: %v", err)
	}
	n, err := c.GetNumElements()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("GetNumElements() = %d, want 4", n)
	}

	want := []float64{10.5, 11.0, 11.5, 12.0}
	for i, w := range want {
		if err := c.GotoArrayElementByIndex(int64(i)); err != nil {
			t.Fatalf("goto [%d]: %v", i, err)
		}
		got, err := c.ReadFloat64()
		if err != nil {
			t.Fatalf("ReadFloat64 [%d]: %v", i, err)
		}
		if got != w {
			t.Errorf("values[%d] = %v, want %v", i, got, w)
		}
		if err := c.GotoParent(); err != nil {
			t.Fatal(err)
		}
	}
}

// buildGRIB2Message is S4: a four-point grid, bitmap 0b10100000 (elements
// 0 and 2 present), two stored 8-bit values [7, 9], reference=0,
// binaryScale=0, decimalScale=0, decoding to [7, NaN, 9, NaN].
func buildGRIB2Message() []byte {
	ident := make([]byte, 21)
	copy(ident[0:4], u32be(21))
	ident[4] = 1 // section number
	copy(ident[12:14], u16be(2024))
	ident[14], ident[15] = 1, 1

	sec3 := make([]byte, 5+9)
	copy(sec3[0:4], u32be(len(sec3)))
	sec3[4] = 3
	copy(sec3[6:10], u32be(4)) // numberOfDataPoints
	copy(sec3[12:14], u16be(0))

	sec4 := make([]byte, 5+4+2+23)
	copy(sec4[0:4], u32be(len(sec4)))
	sec4[4] = 4
	copy(sec4[7:9], u16be(0)) // product definition template 0
	// parameterCategory, parameterNumber, and the remaining 23 bytes are 0.

	sec5 := make([]byte, 5+6+9)
	copy(sec5[0:4], u32be(len(sec5)))
	sec5[4] = 5
	copy(sec5[5:9], u32be(4))  // numDataPoints
	copy(sec5[9:11], u16be(0)) // data representation template 0
	copy(sec5[11:15], []byte{0x00, 0x00, 0x00, 0x00})
	copy(sec5[15:17], signed16be(0))
	copy(sec5[17:19], signed16be(0))
	sec5[19] = 8 // bitsPerValue

	sec6 := make([]byte, 5+1+1)
	copy(sec6[0:4], u32be(len(sec6)))
	sec6[4] = 6
	sec6[5] = 0    // bitmap present in this section
	sec6[6] = 0xA0 // 0b10100000: elements 0 and 2 present

	sec7 := make([]byte, 5+2)
	copy(sec7[0:4], u32be(len(sec7)))
	sec7[4] = 7
	sec7[5], sec7[6] = 7, 9

	body := append([]byte{}, ident...)
	body = append(body, sec3...)
	body = append(body, sec4...)
	body = append(body, sec5...)
	body = append(body, sec6...)
	body = append(body, sec7...)
	body = append(body, []byte("7777")...)

	var msg []byte
	msg = append(msg, []byte("GRIB")...)
	msg = append(msg, 0, 0) // reserved
	msg = append(msg, 0)    // discipline
	msg = append(msg, 2)    // edition
	msg = append(msg, u64be(16+len(body))...)
	msg = append(msg, body...)
	return msg
}

func u32be(v int) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func u64be(v int) []byte {
	out := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func TestGRIB2BitmapGatedValues(t *testing.T) {
	p, err := coda.OpenBytes("s4-test.grb2", buildGRIB2Message(), nil)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer p.Close()

	c := p.NewCursor()
	if err := c.GotoArrayElementByIndex(0); err != nil {
		t.Fatalf("goto message 0: %v", err)
	}
	if err := c.GotoRecordFieldByName("values"); err != nil {
		t.Fatalf("goto values: %v", err)
	}

	want := []float64{7, math.NaN(), 9, math.NaN()}
	for i, w := range want {
		if err := c.GotoArrayElementByIndex(int64(i)); err != nil {
			t.Fatalf("goto [%d]: %v", i, err)
		}
		got, err := c.ReadFloat64()
		if err != nil {
			t.Fatalf("ReadFloat64 [%d]: %v", i, err)
		}
		if math.IsNaN(w) {
			if !math.IsNaN(got) {
				t.Errorf("values[%d] = %v, want NaN", i, got)
			}
		} else if got != w {
			t.Errorf("values[%d] = %v, want %v", i, got, w)
		}
		if err := c.GotoParent(); err != nil {
			t.Fatal(err)
		}
	}
}
