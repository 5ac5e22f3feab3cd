package coda

import (
	"encoding/binary"
	"math"

	"github.com/stcorp/coda-go/dynamic"
	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/expr"
	"github.com/stcorp/coda-go/types"
)

// byteOrder returns the encoding/binary.ByteOrder matching e. Raw bytes
// extracted by bitio.ReadBits are a faithful copy of the file's on-disk
// byte sequence (ReadBits only concerns itself with bit packing, not
// multi-byte value endianness), so this is the only conversion a
// byte-aligned multi-byte read needs.
func byteOrder(e types.Endianness) binary.ByteOrder {
	if e == types.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// rawValue is the result of reading one leaf, before unit conversion.
type rawValue struct {
	isFloat bool
	i       int64
	f       float64
	s       []byte
}

// readLeaf resolves the current frame to a rawValue, reading through
// bitio for Scalar nodes and returning the precomputed value directly for
// InMemory nodes. present=false (only possible for a bitmask-gated GRIB
// array element) yields a float rawValue of NaN, spec.md §4.10's
// "absent element reads back as NaN" rule.
func (c *Cursor) readLeaf() (rawValue, types.Type, error) {
	top := c.top()

	if top.fromArray && !top.packingPresent {
		return rawValue{isFloat: true, f: math.NaN()}, top.static, nil
	}

	if top.packing != nil {
		return c.readPacked(top)
	}

	switch dn := top.dyn.(type) {
	case *dynamic.InMemory:
		return inMemoryToRaw(dn.Value), top.static, nil
	case *dynamic.Scalar:
		off := dn.BitOffset
		if top.bitOffset >= 0 {
			off = top.bitOffset
		}
		v, err := c.readScalarBits(dn.Static, off)
		return v, top.static, err
	case nil:
		if top.bitOffset >= 0 {
			v, err := c.readScalarBits(top.static, top.bitOffset)
			return v, top.static, err
		}
		return rawValue{}, top.static, errs.New(errs.Product, "coda: field is not available in this product")
	default:
		if top.bitOffset >= 0 {
			v, err := c.readScalarBits(top.static, top.bitOffset)
			return v, top.static, err
		}
		return rawValue{}, top.static, errs.New(errs.InvalidType, "coda: cursor is not positioned on a readable leaf")
	}
}

func (c *Cursor) readPacked(top *frame) (rawValue, types.Type, error) {
	n, ok := top.static.(*types.Number)
	if !ok {
		return rawValue{}, top.static, errs.New(errs.InvalidType, "coda: packed array element is not numeric")
	}
	bitSize, ok := n.BitSize()
	if !ok {
		return rawValue{}, top.static, errs.New(errs.Product, "coda: packed array element has no statically known bit size")
	}
	buf := make([]byte, (bitSize+7)/8)
	if err := c.product.src.ReadBits(top.bitOffset, bitSize, buf); err != nil {
		return rawValue{}, top.static, errs.Wrap(errs.OutOfBoundsRead, err, "coda: reading packed value")
	}
	stored := int64(byteOrder(n.Endian).Uint64(padTo8(buf)))
	p := top.packing
	value := float64(stored)*pow2(p.BinaryScale)*pow10(-p.DecimalScale) + p.Reference*pow10(-p.DecimalScale)
	return rawValue{isFloat: true, f: value}, top.static, nil
}

func pow2(n int) float64 { return math.Ldexp(1, n) }
func pow10(n int) float64 { return math.Pow(10, float64(n)) }

func padTo8(b []byte) []byte {
	if len(b) == 8 {
		return b
	}
	out := make([]byte, 8)
	copy(out[8-len(b):], b)
	return out
}

func inMemoryToRaw(v interface{}) rawValue {
	switch x := v.(type) {
	case bool:
		if x {
			return rawValue{i: 1}
		}
		return rawValue{i: 0}
	case int64:
		return rawValue{i: x}
	case int:
		return rawValue{i: int64(x)}
	case float64:
		return rawValue{isFloat: true, f: x}
	case float32:
		return rawValue{isFloat: true, f: float64(x)}
	case string:
		return rawValue{s: []byte(x)}
	case []byte:
		return rawValue{s: x}
	case nil:
		return rawValue{isFloat: true, f: math.NaN()}
	default:
		return rawValue{}
	}
}

// readScalarBits reads and decodes the leaf described by static at an
// absolute bit offset.
func (c *Cursor) readScalarBits(static types.Type, bitOffset int64) (rawValue, error) {
	switch t := static.(type) {
	case *types.Number:
		return c.readNumberBits(t, bitOffset)
	case *types.Text:
		return c.readTextBits(t, bitOffset)
	case *types.Raw:
		n, err := t.Length.Value(expr.NewContext().WithCursor(c))
		if err != nil {
			return rawValue{}, err
		}
		buf := make([]byte, n)
		if err := c.product.src.ReadBits(bitOffset, n*8, buf); err != nil {
			return rawValue{}, errs.Wrap(errs.OutOfBoundsRead, err, "coda: reading raw value")
		}
		return rawValue{s: buf}, nil
	case *types.Special:
		return c.readScalarBits(t.Base, bitOffset)
	default:
		return rawValue{}, errs.New(errs.InvalidType, "coda: unsupported leaf type for read")
	}
}

func (c *Cursor) readNumberBits(n *types.Number, bitOffset int64) (rawValue, error) {
	bitSize, ok := n.BitSize()
	if !ok {
		return rawValue{}, errs.New(errs.Product, "coda: number has no statically known bit size")
	}
	byteSize := (bitSize + 7) / 8
	buf := make([]byte, byteSize)
	if err := c.product.src.ReadBits(bitOffset, bitSize, buf); err != nil {
		return rawValue{}, errs.Wrap(errs.OutOfBoundsRead, err, "coda: reading number")
	}
	order := byteOrder(n.Endian)

	var raw rawValue
	switch n.ReadType {
	case types.ReadFloat32:
		raw = rawValue{isFloat: true, f: float64(math.Float32frombits(order.Uint32(padToN(buf, 4))))}
	case types.ReadFloat64:
		raw = rawValue{isFloat: true, f: math.Float64frombits(order.Uint64(padToN(buf, 8)))}
	case types.ReadUint8, types.ReadUint16, types.ReadUint32, types.ReadUint64:
		raw = rawValue{i: int64(decodeUnsigned(order, buf))}
	default:
		raw = rawValue{i: decodeSigned(order, buf)}
	}

	if c.product.options.PerformConversions && n.Conversion != nil {
		v := n.Conversion.Apply(raw.i)
		return rawValue{isFloat: true, f: v}, nil
	}
	return raw, nil
}

func (c *Cursor) readTextBits(t *types.Text, bitOffset int64) (rawValue, error) {
	n, err := t.FixedLen.Value(expr.NewContext().WithCursor(c))
	if err != nil {
		return rawValue{}, err
	}
	buf := make([]byte, n)
	if err := c.product.src.ReadBits(bitOffset, n*8, buf); err != nil {
		return rawValue{}, errs.Wrap(errs.OutOfBoundsRead, err, "coda: reading text")
	}
	return rawValue{s: buf}, nil
}

func padToN(b []byte, n int) []byte {
	if len(b) == n {
		return b
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}

func decodeUnsigned(order binary.ByteOrder, buf []byte) uint64 {
	switch len(buf) {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	default:
		return order.Uint64(padToN(buf, 8))
	}
}

func decodeSigned(order binary.ByteOrder, buf []byte) int64 {
	switch len(buf) {
	case 1:
		return int64(int8(buf[0]))
	case 2:
		return int64(int16(order.Uint16(buf)))
	case 4:
		return int64(int32(order.Uint32(buf)))
	default:
		return int64(order.Uint64(padToN(buf, 8)))
	}
}

// ReadInt64 reads the current leaf as a signed integer.
func (c *Cursor) ReadInt64() (int64, error) {
	raw, _, err := c.readLeaf()
	if err != nil {
		return 0, err
	}
	if raw.isFloat {
		return int64(raw.f), nil
	}
	return raw.i, nil
}

// ReadUint64 reads the current leaf as an unsigned integer.
func (c *Cursor) ReadUint64() (uint64, error) {
	raw, _, err := c.readLeaf()
	if err != nil {
		return 0, err
	}
	if raw.isFloat {
		return uint64(raw.f), nil
	}
	return uint64(raw.i), nil
}

// ReadFloat64 reads the current leaf as a double, applying any numeric
// conversion or GRIB simple-packing decode already resolved by readLeaf.
func (c *Cursor) ReadFloat64() (float64, error) {
	raw, _, err := c.readLeaf()
	if err != nil {
		return 0, err
	}
	if raw.isFloat {
		return raw.f, nil
	}
	return float64(raw.i), nil
}

// ReadString reads the current leaf as text.
func (c *Cursor) ReadString() (string, error) {
	raw, _, err := c.readLeaf()
	if err != nil {
		return "", err
	}
	return string(raw.s), nil
}

// ReadBytes reads the current leaf as an opaque byte sequence (valid for
// Raw and Text leaves).
func (c *Cursor) ReadBytes() ([]byte, error) {
	raw, _, err := c.readLeaf()
	if err != nil {
		return nil, err
	}
	return raw.s, nil
}

// ReadTime reads a Special time leaf and converts it to seconds since
// 2000-01-01T00:00:00 UTC via its unit expression (spec.md §3).
func (c *Cursor) ReadTime() (float64, error) {
	sp, ok := c.top().static.(*types.Special)
	if !ok || sp.Kind != types.SpecialTime {
		return 0, errs.New(errs.InvalidType, "coda: cursor is not positioned on a time value")
	}
	raw, err := c.ReadFloat64()
	if err != nil {
		return 0, err
	}
	ctx := expr.NewContext().WithCursor(c)
	unit, err := sp.TimeUnitExpr.Eval(ctx)
	if err != nil {
		return 0, err
	}
	scale, err := unit.AsFloat()
	if err != nil {
		return 0, err
	}
	return raw * scale, nil
}

// ReadFloat64Array fills dst with one float64 per array element,
// navigating into and back out of each element. For GRIB simple-packed
// arrays this is the straight-line path through readPacked per index;
// callers reading an entire large grid in one call should prefer
// ReadFloat64ArrayFast, which applies the packing formula without the
// per-element navigation overhead.
func (c *Cursor) ReadFloat64Array(dst []float64) error {
	n, err := c.GetNumElements()
	if err != nil {
		return err
	}
	if int64(len(dst)) != n {
		return errs.New(errs.ArrayNumDimsMismatch, "coda: destination length %d does not match element count %d", len(dst), n)
	}
	for i := int64(0); i < n; i++ {
		if err := c.GotoArrayElementByIndex(i); err != nil {
			return err
		}
		v, err := c.ReadFloat64()
		if err != nil {
			c.GotoParent()
			return err
		}
		dst[i] = v
		if err := c.GotoParent(); err != nil {
			return err
		}
	}
	return nil
}

// ReadFloat64ArrayFast decodes every element of a GRIB simple-packed array
// directly from its backing Source, without constructing a Cursor frame
// per element. Returns InvalidType if the cursor is not positioned on a
// Packing-backed array, and ArrayNumDimsMismatch if len(dst) differs from
// the array's element count.
func (c *Cursor) ReadFloat64ArrayFast(dst []float64) error {
	top := c.top()
	arrDyn, ok := top.dyn.(*dynamic.Array)
	if !ok || arrDyn.Packing == nil {
		return errs.New(errs.InvalidType, "coda: cursor is not positioned on a simple-packed array")
	}
	if int64(len(dst)) != arrDyn.NumElements {
		return errs.New(errs.ArrayNumDimsMismatch, "coda: destination length %d does not match element count %d", len(dst), arrDyn.NumElements)
	}
	elemType, ok := arrDyn.Static.Base.(*types.Number)
	if !ok {
		return errs.New(errs.InvalidType, "coda: packed array base is not numeric")
	}
	bitSize, ok := elemType.BitSize()
	if !ok {
		return errs.New(errs.Product, "coda: packed array element has no statically known bit size")
	}
	byteSize := int((bitSize + 7) / 8)
	order := byteOrder(elemType.Endian)
	p := arrDyn.Packing
	numerator := pow2(p.BinaryScale) * pow10(-p.DecimalScale)
	offset := p.Reference * pow10(-p.DecimalScale)

	for i := int64(0); i < arrDyn.NumElements; i++ {
		if !arrDyn.BitmaskPresent(i) {
			dst[i] = math.NaN()
			continue
		}
		stored := arrDyn.BitmaskCountBefore(i)
		bitOffset := arrDyn.BitOffset + stored*arrDyn.ElementBitSize
		buf := make([]byte, byteSize)
		if err := c.product.src.ReadBits(bitOffset, bitSize, buf); err != nil {
			return errs.Wrap(errs.OutOfBoundsRead, err, "coda: reading packed array element %d", i)
		}
		v := float64(decodeUnsigned(order, buf))
		dst[i] = v*numerator + offset
	}
	return nil
}
