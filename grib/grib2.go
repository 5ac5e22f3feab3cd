package grib

import (
	"bytes"
	"math"

	"github.com/stcorp/coda-go/bitio"
	"github.com/stcorp/coda-go/dynamic"
	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/types"
)

// readGRIB2Message parses Section 1 (Identification) followed by the
// variable-length section sequence up to the "7777" end marker, grounded
// on original_source/libcoda/coda-grib.c's read_grib2_message. For the grid
// definition section only the common numberOfDataPoints header field is
// read, whatever the grid template number (it is not checked); product
// definition templates 0-6, 15, and 51 (and the constituent-type variant,
// 40) are fully decoded, matching the original's supported set.
func readGRIB2Message(src *bitio.Source, offset int64) (types.Type, dynamic.Node, error) {
	id, err := src.Slice(offset, 21)
	if err != nil {
		return nil, nil, err
	}
	idSectionSize := u32(id[0:4])
	if id[4] != 1 {
		return nil, nil, errs.New(errs.InvalidFormat, "grib2: expected Identification Section, got section %d", id[4])
	}

	static := types.NewRecord()
	dyn := dynamic.NewRecord(static)
	addUint16Field(static, dyn, "centre", u16(id[5:7]))
	addUint16Field(static, dyn, "subCentre", u16(id[7:9]))
	addUint8Field(static, dyn, "masterTablesVersion", id[9])
	addUint8Field(static, dyn, "localTablesVersion", id[10])
	addUint8Field(static, dyn, "significanceOfReferenceTime", id[11])
	addUint16Field(static, dyn, "year", u16(id[12:14]))
	addUint8Field(static, dyn, "month", id[14])
	addUint8Field(static, dyn, "day", id[15])
	addUint8Field(static, dyn, "hour", id[16])
	addUint8Field(static, dyn, "minute", id[17])
	addUint8Field(static, dyn, "second", id[18])
	addUint8Field(static, dyn, "productionStatusOfProcessedData", id[19])
	addUint8Field(static, dyn, "typeOfProcessedData", id[20])

	fo := offset + 21
	if idSectionSize > 21 {
		fo += idSectionSize - 21
	}

	var numDataPoints int64
	var bitsPerValue uint8
	var binaryScale, decimalScale int
	var referenceValue float64
	var bitmask []byte
	var valuesOffset int64
	prevSection := byte(1)

	for {
		marker, err := src.Slice(fo, 4)
		if err != nil {
			return nil, nil, err
		}
		if bytes.Equal(marker, sigEnd) {
			break
		}
		sectionSize := u32(marker)
		secNumBuf, err := src.Slice(fo+4, 1)
		if err != nil {
			return nil, nil, err
		}
		secNum := secNumBuf[0]
		body := fo + 5

		switch secNum {
		case 2:
			prevSection = 2
		case 3:
			hdr, err := src.Slice(body, 9)
			if err != nil {
				return nil, nil, err
			}
			numDataPoints = u32(hdr[1:5])
			templateNumber := u16(hdr[7:9])
			grid := types.NewRecord()
			gridDyn := dynamic.NewRecord(grid)
			addUint8Field(grid, gridDyn, "sourceOfGridDefinition", hdr[0])
			addUint32Field(grid, gridDyn, "numberOfDataPoints", numDataPoints)
			addUint8Field(grid, gridDyn, "interpretationOfListOfNumbers", hdr[6])
			addUint16Field(grid, gridDyn, "gridDefinitionTemplateNumber", templateNumber)
			addRecordField(static, dyn, "grid", grid, gridDyn)
			prevSection = 3
		case 4:
			hdr, err := src.Slice(body, 4)
			if err != nil {
				return nil, nil, err
			}
			templateNumber := u16(hdr[2:4])
			pdRecord, pdDyn, err := readProductDefinition(src, body+4, templateNumber)
			if err != nil {
				return nil, nil, err
			}
			addRecordField(static, dyn, "data", pdRecord, pdDyn)
			prevSection = 4
		case 5:
			hdr, err := src.Slice(body, 6)
			if err != nil {
				return nil, nil, err
			}
			numDataPoints = u32(hdr[0:4])
			drTemplate := u16(hdr[4:6])
			if drTemplate != 0 && drTemplate != 1 {
				return nil, nil, errs.New(errs.UnsupportedProduct, "grib2: data representation template %d is not supported", drTemplate)
			}
			drBody, err := src.Slice(body+6, 9)
			if err != nil {
				return nil, nil, err
			}
			referenceValue = float64(ibmFloatFromIEEE(drBody[0:4]))
			binaryScale = decodeSigned16(drBody[4], drBody[5])
			decimalScale = decodeSigned16(drBody[6], drBody[7])
			bitsPerValue = drBody[8]
			if bitsPerValue > 63 {
				return nil, nil, errs.New(errs.InvalidFormat, "grib2: bitsPerValue %d too large", bitsPerValue)
			}
			addUint8Field(static, dyn, "bitsPerValue", bitsPerValue)
			addInt16Field(static, dyn, "binaryScaleFactor", binaryScale)
			addInt16Field(static, dyn, "decimalScaleFactor", decimalScale)
			prevSection = 5
		case 6:
			ind, err := src.Slice(body, 1)
			if err != nil {
				return nil, nil, err
			}
			switch ind[0] {
			case 0:
				bitmask, err = src.Slice(body+1, sectionSize-6)
				if err != nil {
					return nil, nil, err
				}
			case 254:
				// reuse previously defined bitmap; already held in bitmask.
			case 255:
				bitmask = nil
			default:
				return nil, nil, errs.New(errs.UnsupportedProduct, "grib2: predefined bit maps are not supported")
			}
			prevSection = 6
		case 7:
			valuesOffset = body * 8
			prevSection = 7
		default:
			return nil, nil, errs.New(errs.InvalidFormat, "grib2: unexpected section number %d after %d", secNum, prevSection)
		}

		fo += int64(sectionSize)
	}

	if valuesOffset == 0 {
		return nil, nil, errs.New(errs.InvalidFormat, "grib2: message has no Data Section")
	}

	valuesArr, valuesDyn := newSimplePackingArray(numDataPoints, valuesOffset, int(bitsPerValue), decimalScale, binaryScale, referenceValue, bitmask)
	addField(static, dyn, "values", valuesArr, valuesDyn)

	return static, dyn, nil
}

func u32(b []byte) int64 {
	return int64(b[0])<<24 | int64(b[1])<<16 | int64(b[2])<<8 | int64(b[3])
}

// ibmFloatFromIEEE reads a big-endian IEEE-754 float32, GRIB-2's BDS
// reference value format (unlike GRIB-1, which uses IBM hex float).
func ibmFloatFromIEEE(b []byte) float32 {
	bits := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return math.Float32frombits(bits)
}

// readProductDefinition decodes a GRIB-2 Product Definition Section body
// (the part after the coordinate-values count and template number, which
// the caller has already consumed). Grounded on
// original_source/libcoda/coda-grib.c's read_grib2_pds: templates 0-6, 15,
// and 51 share one 25-byte layout; template 40 is identical but carries an
// extra 2-byte constituentType field inserted after parameterNumber. All
// other templates are rejected, matching the original's coverage.
func readProductDefinition(src *bitio.Source, offset int64, templateNumber int64) (*types.Record, *dynamic.Record, error) {
	static := types.NewRecord()
	dyn := dynamic.NewRecord(static)

	switch templateNumber {
	case 0, 1, 2, 3, 4, 5, 6, 15, 51, 40:
	default:
		return nil, nil, errs.New(errs.UnsupportedProduct, "grib2: product definition template %d is not supported", templateNumber)
	}

	b, err := src.Slice(offset, 2)
	if err != nil {
		return nil, nil, err
	}
	addUint8Field(static, dyn, "parameterCategory", b[0])
	addUint8Field(static, dyn, "parameterNumber", b[1])
	fo := offset + 2

	if templateNumber == 40 {
		ct, err := src.Slice(fo, 2)
		if err != nil {
			return nil, nil, err
		}
		addUint16Field(static, dyn, "constituentType", u16(ct))
		fo += 2
	}

	rest, err := src.Slice(fo, 23)
	if err != nil {
		return nil, nil, err
	}
	addUint8Field(static, dyn, "typeOfGeneratingProcess", rest[0])
	addUint8Field(static, dyn, "backgroundProcess", rest[1])
	addUint8Field(static, dyn, "generatingProcessIdentifier", rest[2])
	addUint16Field(static, dyn, "hoursAfterDataCutoff", u16(rest[3:5]))
	addUint8Field(static, dyn, "minutesAfterDataCutoff", rest[5])
	addUint8Field(static, dyn, "indicatorOfUnitOfTimeRange", rest[6])
	addUint32Field(static, dyn, "forecastTime", u32(rest[7:11]))
	addUint8Field(static, dyn, "typeOfFirstFixedSurface", rest[11])
	addUint8Field(static, dyn, "scaleFactorOfFirstFixedSurface", rest[12])
	addUint32Field(static, dyn, "scaledValueOfFirstFixedSurface", u32(rest[13:17]))
	addUint8Field(static, dyn, "typeOfSecondFixedSurface", rest[17])
	addUint8Field(static, dyn, "scaleFactorOfSecondFixedSurface", rest[18])
	addUint32Field(static, dyn, "scaledValueOfSecondFixedSurface", u32(rest[19:23]))

	return static, dyn, nil
}
