// Package cdf implements the CDF v3 backend (spec.md §4.9, C9): container
// recognition, the CDR/GDR/ADR/AEDR/VDR/VXR/VVR/CPR record chain, and
// construction of the dynamic tree the coda package's Cursor walks.
//
// Grounded on original_source/libcoda/coda-cdf.c. Structural record fields
// (sizes, record types, chain offsets, dimension counts) are always stored
// big-endian regardless of a file's data encoding; only variable and
// attribute-entry *values* follow the CDR's encoding byte, which is why
// readHeader, readI32 and readI64 below always decode big-endian, while
// value decoding (decodeInMemory in types.go, and the Endian set on each
// variable's Number type) follows product.endian.
package cdf

import (
	"encoding/binary"
	"fmt"

	"github.com/stcorp/coda-go/bitio"
	"github.com/stcorp/coda-go/dynamic"
	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/internal/colog"
	"github.com/stcorp/coda-go/types"
)

// record type tags, from coda-cdf.c.
const (
	rtCDR  = 1
	rtGDR  = 2
	rtrVDR = 3
	rtADR  = 4
	rtAEDR = 5
	rtVXR  = 6
	rtVVR  = 7
	rtzVDR = 8
	rtAzEDR = 9
	rtCPR  = 11
	rtCVVR = 13
)

const maxNumDims = 10

// Product holds the parsed state needed while walking a CDF file's record
// chain; it is discarded once Open returns the assembled dynamic tree.
type product struct {
	src      *bitio.Source
	log      *colog.Helper
	endian   types.Endianness
	fileSize int64
	rNumDims int32

	variables []*variable
	globalAttrs []attrEntry
	varAttrs    map[string][]attrEntry // by variable name
}

type attrEntry struct {
	name     string
	dataType int32
	numElems int32
	offset   int64 // 0 for entries with no value stored inline (rare)
	isString bool
	value    interface{}
}

type variable struct {
	name          string
	isZVar        bool
	dataType      int32
	numElems      int32 // string length for CHAR/UCHAR, else 1
	maxRec        int32
	recordVary    bool
	dims          []int32
	dimVarys      []bool
	blockingFactor int32
	vxrHead       int64

	numValuesPerRecord int64
	valueSize          int64
	numRecords         int64

	// offset[i] is the absolute file bit offset of logical record i's data,
	// or -1 if the record falls in a sparse gap (not yet populated).
	offset []int64
	// data holds decompressed bytes for CVVR-backed records, valid for the
	// whole variable; nil when every record is read directly from offset.
	data []byte
}

func readHeader(src *bitio.Source, offset int64) (size int64, rtype int32, err error) {
	buf := make([]byte, 12)
	if err := src.ReadBytes(offset, buf); err != nil {
		return 0, 0, errs.Wrap(errs.FileRead, err, "cdf: reading record header at %d", offset)
	}
	size = int64(binary.BigEndian.Uint64(buf[0:8]))
	rtype = int32(binary.BigEndian.Uint32(buf[8:12]))
	return size, rtype, nil
}

func readI32(src *bitio.Source, offset int64) (int32, error) {
	buf := make([]byte, 4)
	if err := src.ReadBytes(offset, buf); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf)), nil
}

func readI64(src *bitio.Source, offset int64) (int64, error) {
	buf := make([]byte, 8)
	if err := src.ReadBytes(offset, buf); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf)), nil
}

func readFixedString(src *bitio.Source, offset int64, n int64) (string, error) {
	buf := make([]byte, n)
	if err := src.ReadBytes(offset, buf); err != nil {
		return "", err
	}
	end := len(buf)
	for end > 0 && (buf[end-1] == 0 || buf[end-1] == ' ') {
		end--
	}
	return string(buf[:end]), nil
}

// Open recognizes and parses a CDF v3 product from src, returning the
// static record type and dynamic record node for the product root: one
// field per variable, with global attributes attached as the root's
// attribute record.
func Open(src *bitio.Source, log *colog.Helper) (*types.Record, *dynamic.Record, error) {
	if src.Size() < 8 {
		return nil, nil, errs.New(errs.InvalidFormat, "cdf: file too small")
	}
	magic := make([]byte, 8)
	if err := src.ReadBytes(0, magic); err != nil {
		return nil, nil, errs.Wrap(errs.FileRead, err, "cdf: reading magic")
	}
	m0 := binary.BigEndian.Uint32(magic[0:4])
	m1 := binary.BigEndian.Uint32(magic[4:8])
	if m0 != 0xCDF30001 {
		return nil, nil, errs.New(errs.InvalidFormat, "cdf: not a CDF v3 file")
	}
	if m1 == 0xCCCC0001 {
		// whole-file compressed CDF: a CCR wraps a zlib/gzip stream holding
		// the uncompressed CDF from offset 8 onward. Out of scope for this
		// module (see DESIGN.md); only per-variable CVVR compression is
		// supported.
		return nil, nil, errs.New(errs.UnsupportedProduct, "cdf: whole-file compressed CDF is not supported")
	}

	p := &product{src: src, log: log, fileSize: src.Size(), varAttrs: map[string][]attrEntry{}}

	if err := p.readCDR(); err != nil {
		return nil, nil, err
	}

	staticRec := types.NewRecord()
	dynRec := dynamic.NewRecord(staticRec)

	for i, v := range p.variables {
		st, dn, err := p.buildVariable(v)
		if err != nil {
			return nil, nil, fmt.Errorf("cdf: variable %q: %w", v.name, err)
		}
		if attrs := p.varAttrs[v.name]; len(attrs) > 0 {
			attrStatic := types.NewRecord()
			attrDyn := dynamic.NewRecord(attrStatic)
			for j, a := range attrs {
				at := attributeType(a)
				if err := attrStatic.AddField(types.Field{Name: a.name, RealName: a.name, Type: at}); err != nil {
					return nil, nil, err
				}
				attrDyn.SetField(j, dynamic.NewInMemory(at, a.value))
			}
			st.SetAttributes(attrStatic)
			dn.SetAttributes(attrDyn)
		}

		field := types.Field{Name: v.name, RealName: v.name, Type: st}
		if err := staticRec.AddField(field); err != nil {
			return nil, nil, err
		}
		dynRec.SetField(i, dn)
	}

	if len(p.globalAttrs) > 0 {
		attrStatic := types.NewRecord()
		attrDyn := dynamic.NewRecord(attrStatic)
		for i, a := range p.globalAttrs {
			at := attributeType(a)
			if err := attrStatic.AddField(types.Field{Name: a.name, RealName: a.name, Type: at}); err != nil {
				return nil, nil, err
			}
			attrDyn.SetField(i, dynamic.NewInMemory(at, a.value))
		}
		staticRec.SetAttributes(attrStatic)
		dynRec.SetAttributes(attrDyn)
	}

	return staticRec, dynRec, nil
}

func (p *product) readCDR() error {
	_, rtype, err := readHeader(p.src, 8)
	if err != nil {
		return err
	}
	if rtype != rtCDR {
		return errs.New(errs.InvalidFormat, "cdf: expected CDR, got record type %d", rtype)
	}
	gdrOffset, err := readI64(p.src, 8+12)
	if err != nil {
		return err
	}
	encoding, err := readI32(p.src, 8+28)
	if err != nil {
		return err
	}
	switch encoding {
	case 1, 2, 5, 7, 9, 11, 12: // NETWORK, SUN, SGi, IBMRS, MAC, HP, NeXT
		p.endian = types.BigEndian
	case 4, 6, 13, 16: // DECSTATION, IBMPC, ALPHAOSF1, ALPHAVMSi
		p.endian = types.LittleEndian
	default: // VAX/Alpha floating-point encodings and unknown codes
		return errs.New(errs.UnsupportedProduct, "cdf: unsupported data encoding %d", encoding)
	}
	return p.readGDR(gdrOffset)
}

func (p *product) readGDR(offset int64) error {
	_, rtype, err := readHeader(p.src, offset)
	if err != nil {
		return err
	}
	if rtype != rtGDR {
		return errs.New(errs.InvalidFormat, "cdf: expected GDR, got record type %d", rtype)
	}
	rvdrHead, err := readI64(p.src, offset+12)
	if err != nil {
		return err
	}
	zvdrHead, err := readI64(p.src, offset+20)
	if err != nil {
		return err
	}
	adrHead, err := readI64(p.src, offset+28)
	if err != nil {
		return err
	}
	eof, err := readI64(p.src, offset+36)
	if err != nil {
		return err
	}
	if eof != p.fileSize {
		p.log.Warnf("cdf: GDR eof field (%d) does not match file size (%d)", eof, p.fileSize)
	}
	rNumDims, err := readI32(p.src, offset+56)
	if err != nil {
		return err
	}
	p.rNumDims = rNumDims

	if rvdrHead != 0 {
		if err := p.readVDRChain(rvdrHead, false); err != nil {
			return err
		}
	}
	if zvdrHead != 0 {
		if err := p.readVDRChain(zvdrHead, true); err != nil {
			return err
		}
	}
	if adrHead != 0 {
		if err := p.readADRChain(adrHead); err != nil {
			return err
		}
	}
	return nil
}
