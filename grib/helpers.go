package grib

import (
	"github.com/stcorp/coda-go/dynamic"
	"github.com/stcorp/coda-go/types"
)

// addField appends a field to a message/grid record being assembled
// in-memory (every GRIB scalar field is decoded once at open time, never
// read lazily through bitio — only the packed value array is lazy).
func addField(static *types.Record, dyn *dynamic.Record, name string, ft types.Type, fn dynamic.Node) {
	idx := static.NumFields()
	static.AddField(types.Field{Name: name, RealName: name, Type: ft})
	*dyn = *growRecord(dyn, static)
	dyn.SetField(idx, fn)
}

// growRecord re-allocates dyn's field slice to match static's current
// field count, preserving already-bound fields. dynamic.NewRecord sizes
// Fields from static.NumFields() at construction time, but GRIB builds
// records incrementally as it parses each section, so the slice must grow
// alongside the static definition.
func growRecord(dyn *dynamic.Record, static *types.Record) *dynamic.Record {
	if len(dyn.Fields) >= static.NumFields() {
		return dyn
	}
	grown := make([]dynamic.Node, static.NumFields())
	copy(grown, dyn.Fields)
	dyn.Fields = grown
	return dyn
}

func addUint8Field(static *types.Record, dyn *dynamic.Record, name string, v uint8) {
	t := types.NewNumber(types.NumberInteger, types.ReadUint8, 8)
	addField(static, dyn, name, t, dynamic.NewInMemory(t, int64(v)))
}

func addUint16Field(static *types.Record, dyn *dynamic.Record, name string, v int64) {
	t := types.NewNumber(types.NumberInteger, types.ReadUint16, 16)
	addField(static, dyn, name, t, dynamic.NewInMemory(t, v))
}

func addUint32Field(static *types.Record, dyn *dynamic.Record, name string, v int64) {
	t := types.NewNumber(types.NumberInteger, types.ReadUint32, 32)
	addField(static, dyn, name, t, dynamic.NewInMemory(t, v))
}

func addInt16Field(static *types.Record, dyn *dynamic.Record, name string, v int) {
	t := types.NewNumber(types.NumberInteger, types.ReadInt16, 16)
	addField(static, dyn, name, t, dynamic.NewInMemory(t, int64(v)))
}

func addRealField(static *types.Record, dyn *dynamic.Record, name string, v float64) {
	t := types.NewNumber(types.NumberReal, types.ReadFloat32, 32)
	addField(static, dyn, name, t, dynamic.NewInMemory(t, v))
}

func addRecordField(static *types.Record, dyn *dynamic.Record, name string, ft types.Type, fn dynamic.Node) {
	addField(static, dyn, name, ft, fn)
}

// newSimplePackingArray builds the static/dynamic pair for a GRIB
// simple-packed value array (spec.md §4.10): bitOffset is the absolute bit
// position of the first packed integer, bitmask (if non-nil) gates which
// logical elements have a stored value.
func newSimplePackingArray(numElements, bitOffset int64, bitsPerValue, decimalScale, binaryScale int, reference float64, bitmask []byte) (*types.Array, *dynamic.Array) {
	// The stored value is an arbitrary-width (bitsPerValue) unsigned
	// integer; ReadUint64 here only selects the unsigned decode path, the
	// actual bit width read is bitsPerValue (see cursor_read.go's
	// readPacked, which consults BitSize rather than ReadType.ByteSize).
	elemType := types.NewNumber(types.NumberReal, types.ReadUint64, int64(bitsPerValue))
	elemType.Endian = types.BigEndian
	static := types.NewArray(elemType, types.OrderC, types.ConstDimension(numElements))
	dyn := dynamic.NewArray(static, numElements, bitOffset, int64(bitsPerValue))
	dyn.Bitmask = bitmask
	dyn.Packing = &dynamic.SimplePacking{Reference: reference, BinaryScale: binaryScale, DecimalScale: decimalScale}
	dyn.ElementTemplate = dynamic.NewScalar(elemType, 0)
	return static, dyn
}
