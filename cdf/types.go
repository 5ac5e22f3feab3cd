package cdf

import (
	"encoding/binary"
	"math"

	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/types"
)

// dataTypeInfo translates a CDF data-type code to the static read type it
// maps onto, grounded on coda-cdf.c's read_attribute switch. numElems is
// only consulted for CHAR/UCHAR, where it is the fixed string length.
func dataTypeInfo(dataType, numElems int32) (kind types.NumberKind, readType types.ReadType, byteSize int, isEpoch bool, err error) {
	switch dataType {
	case 1, 41: // INT1, BYTE
		return types.NumberInteger, types.ReadInt8, 1, false, nil
	case 2: // INT2
		return types.NumberInteger, types.ReadInt16, 2, false, nil
	case 4: // INT4
		return types.NumberInteger, types.ReadInt32, 4, false, nil
	case 8: // INT8
		return types.NumberInteger, types.ReadInt64, 8, false, nil
	case 33: // TIME_TT2000 (int64 nanoseconds since 2000-01-01)
		return types.NumberInteger, types.ReadInt64, 8, false, nil
	case 11: // UINT1
		return types.NumberInteger, types.ReadUint8, 1, false, nil
	case 12: // UINT2
		return types.NumberInteger, types.ReadUint16, 2, false, nil
	case 14: // UINT4
		return types.NumberInteger, types.ReadUint32, 4, false, nil
	case 21, 44: // REAL4, FLOAT
		return types.NumberReal, types.ReadFloat32, 4, false, nil
	case 22, 45: // REAL8, DOUBLE
		return types.NumberReal, types.ReadFloat64, 8, false, nil
	case 31: // CDF_EPOCH (float64 milliseconds since year 0)
		return types.NumberReal, types.ReadFloat64, 8, true, nil
	case 51, 52: // CHAR, UCHAR
		return 0, types.ReadString, int(numElems), false, nil
	default:
		return 0, 0, 0, false, errs.New(errs.InvalidFormat, "cdf: unsupported data type %d", dataType)
	}
}

// decodeInMemory interprets raw bytes per readType/endian into the Go value
// dynamic.InMemory expects, for attribute entries and compressed variable
// records that are materialized eagerly rather than read lazily through
// bitio.
func decodeInMemory(readType types.ReadType, endian types.Endianness, data []byte) interface{} {
	if readType == types.ReadString {
		end := len(data)
		for end > 0 && data[end-1] == 0 {
			end--
		}
		return string(data[:end])
	}
	order := binary.ByteOrder(binary.BigEndian)
	if endian == types.LittleEndian {
		order = binary.LittleEndian
	}
	switch readType {
	case types.ReadInt8:
		return int64(int8(data[0]))
	case types.ReadUint8:
		return int64(data[0])
	case types.ReadInt16:
		return int64(int16(order.Uint16(data)))
	case types.ReadUint16:
		return int64(order.Uint16(data))
	case types.ReadInt32:
		return int64(int32(order.Uint32(data)))
	case types.ReadUint32:
		return int64(order.Uint32(data))
	case types.ReadInt64:
		return int64(order.Uint64(data))
	case types.ReadFloat32:
		return float64(math.Float32frombits(order.Uint32(data)))
	case types.ReadFloat64:
		return math.Float64frombits(order.Uint64(data))
	default:
		return nil
	}
}

// attributeType builds the static type for an already-decoded attribute
// entry.
func attributeType(a attrEntry) types.Type {
	if a.isString {
		return types.NewText(types.ReadString)
	}
	kind, readType, byteSize, _, err := dataTypeInfo(a.dataType, a.numElems)
	if err != nil {
		return types.NewRaw(0)
	}
	return types.NewNumber(kind, readType, int64(byteSize)*8)
}
