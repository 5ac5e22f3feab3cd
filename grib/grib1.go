package grib

import (
	"github.com/stcorp/coda-go/bitio"
	"github.com/stcorp/coda-go/dynamic"
	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/types"
)

// grib1GridPointCount is the GRIB-1 implicit grid point count table for
// gridDefinition values that have no Grid Description Section, grounded on
// original_source/libcoda/coda-grib.c's switch (partial: the common NCEP
// gaussian/regular grids used by the reference fixtures; see DESIGN.md).
var grib1GridPointCount = map[uint8]int64{
	21: 1333, 22: 1333, 23: 1333, 24: 1333, 25: 1333,
	26: 1333, 27: 1333, 28: 1333, 50: 964, 91: 25803,
	92: 81213, 93: 162425, 94: 48916, 95: 97831, 96: 41630,
	97: 83259, 100: 6889, 101: 10283, 103: 3640, 104: 16170,
	105: 6889, 106: 19305, 107: 11040,
}

func u16(b []byte) int64 { return int64(b[0])*256 + int64(b[1]) }
func u24(b []byte) int64 { return int64(b[0])<<16 | int64(b[1])<<8 | int64(b[2]) }

func readGRIB1Message(src *bitio.Source, offset int64) (types.Type, dynamic.Node, error) {
	pds, err := src.Slice(offset, 28)
	if err != nil {
		return nil, nil, err
	}
	hasGDS := pds[7]&0x80 != 0
	hasBMS := pds[7]&0x40 != 0
	gridDefinition := pds[6]
	sectionSize := u24(pds[0:3])

	decimalScale := decodeSigned16(pds[26], pds[27])

	static := types.NewRecord()
	dyn := dynamic.NewRecord(static)
	addUint8Field(static, dyn, "table2Version", pds[3])
	addUint8Field(static, dyn, "centre", pds[4])
	addUint8Field(static, dyn, "generatingProcessIdentifier", pds[5])
	addUint8Field(static, dyn, "gridDefinition", gridDefinition)
	addUint8Field(static, dyn, "indicatorOfParameter", pds[8])
	addUint8Field(static, dyn, "indicatorOfTypeOfLevel", pds[9])
	addUint16Field(static, dyn, "level", u16(pds[10:12]))
	addUint8Field(static, dyn, "yearOfCentury", pds[12])
	addUint8Field(static, dyn, "month", pds[13])
	addUint8Field(static, dyn, "day", pds[14])
	addUint8Field(static, dyn, "hour", pds[15])
	addUint8Field(static, dyn, "minute", pds[16])
	addUint8Field(static, dyn, "unitOfTimeRange", pds[17])
	addUint8Field(static, dyn, "P1", pds[18])
	addUint8Field(static, dyn, "P2", pds[19])
	addUint8Field(static, dyn, "timeRangeIndicator", pds[20])
	addUint16Field(static, dyn, "numberIncludedInAverage", u16(pds[21:23]))
	addUint8Field(static, dyn, "numberMissingFromAveragesOrAccumulations", pds[23])
	addUint8Field(static, dyn, "centuryOfReferenceTimeOfData", pds[24])
	addUint8Field(static, dyn, "subCentre", pds[25])
	addInt16Field(static, dyn, "decimalScaleFactor", decimalScale)

	fo := offset + 28
	if sectionSize > 28 {
		fo += sectionSize - 28
	}

	var numElements int64
	if hasGDS {
		gdsHdr, err := src.Slice(fo, 6)
		if err != nil {
			return nil, nil, err
		}
		gdsSize := u24(gdsHdr[0:3])
		dataRepType := gdsHdr[5]
		fo += 6
		switch dataRepType {
		case 0, 4, 10, 14, 20, 24, 30, 34:
			grid, err := src.Slice(fo, 26)
			if err != nil {
				return nil, nil, err
			}
			Ni := u16(grid[0:2])
			Nj := u16(grid[2:4])
			if Ni != 65535 && Nj != 65535 {
				numElements = Ni * Nj
			} else {
				return nil, nil, errs.New(errs.UnsupportedProduct, "grib1: missing Ni/Nj grid size is not supported")
			}
			addUint16Field(static, dyn, "Ni", Ni)
			addUint16Field(static, dyn, "Nj", Nj)
		default:
			return nil, nil, errs.New(errs.UnsupportedProduct, "grib1: data representation type %d is not supported", dataRepType)
		}
		fo = offset + 28
		if sectionSize > 28 {
			fo += sectionSize - 28
		}
		fo += gdsSize
	} else {
		n, ok := grib1GridPointCount[gridDefinition]
		if !ok {
			return nil, nil, errs.New(errs.UnsupportedProduct, "grib1: gridDefinition %d is not supported without a GDS", gridDefinition)
		}
		numElements = n
	}

	var bitmask []byte
	if hasBMS {
		bmsHdr, err := src.Slice(fo, 6)
		if err != nil {
			return nil, nil, err
		}
		bmsSize := u24(bmsHdr[0:3])
		if u16(bmsHdr[4:6]) != 0 {
			return nil, nil, errs.New(errs.UnsupportedProduct, "grib1: predefined bit map is not supported")
		}
		bitmask, err = src.Slice(fo+6, bmsSize-6)
		if err != nil {
			return nil, nil, err
		}
		fo += bmsSize
	}

	bdsHdr, err := src.Slice(fo, 11)
	if err != nil {
		return nil, nil, err
	}
	if bdsHdr[3]&0xF0 != 0 {
		return nil, nil, errs.New(errs.UnsupportedProduct, "grib1: spherical harmonics, complex packing, or extra BDS flags are not supported")
	}
	binaryScale := decodeSigned16(bdsHdr[4], bdsHdr[5])
	var refBytes [4]byte
	copy(refBytes[:], bdsHdr[6:10])
	referenceValue := float64(ibmFloatToFloat32(refBytes))
	bitsPerValue := bdsHdr[10]
	if bitsPerValue > 63 {
		return nil, nil, errs.New(errs.InvalidFormat, "grib1: bitsPerValue %d too large", bitsPerValue)
	}
	fo += 11

	addUint8Field(static, dyn, "bitsPerValue", bitsPerValue)
	addInt16Field(static, dyn, "binaryScaleFactor", binaryScale)
	addRealField(static, dyn, "referenceValue", referenceValue)

	valuesArr, valuesDyn := newSimplePackingArray(numElements, fo*8, int(bitsPerValue), int(decimalScale), int(binaryScale), referenceValue, bitmask)
	addField(static, dyn, "values", valuesArr, valuesDyn)

	return static, dyn, nil
}

func decodeSigned16(hi, lo byte) int {
	v := int(hi&0x7F)*256 + int(lo)
	if hi&0x80 != 0 {
		v = -v
	}
	return v
}
