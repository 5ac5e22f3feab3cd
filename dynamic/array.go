package dynamic

import "github.com/stcorp/coda-go/types"

// SimplePacking holds the GRIB simple-packing decode parameters attached to
// an Array node that stores bit-packed values (spec.md §4.10): each stored
// integer maps to stored*2^BinaryScale*10^-DecimalScale + Reference*10^-DecimalScale.
type SimplePacking struct {
	Reference    float64
	BinaryScale  int
	DecimalScale int
}

// Array is an array backed by a contiguous bit-packed region, an optional
// bitmask gating which logical elements are present, and, for GRIB arrays,
// simple-packing decode parameters (spec.md §4.7, §4.10).
type Array struct {
	base

	Static         *types.Array
	NumElements    int64
	BitOffset      int64
	ElementBitSize int64

	// Bitmask, if non-nil, has ceil(NumElements/8) bytes; bit 7-(i%8) of
	// byte i/8 being 0 means element i is absent (NaN on read).
	Bitmask []byte

	// Packing is nil for plain fixed-width element arrays (CDF) and
	// non-nil for GRIB simple-packed arrays.
	Packing *SimplePacking

	// ElementTemplate, when set, is a single shared dynamic type used by
	// every element (spec.md §4.7: "a single element-template dynamic-type
	// is shared by all elements and indexed by cursor.stack[top].index").
	// When nil, the element's static type (Static.Base) is used directly
	// with an offset computed from the array's own BitOffset/ElementBitSize.
	ElementTemplate Node

	// Elements, when non-nil, holds one explicit dynamic node per index and
	// takes precedence over ElementTemplate. GRIB's top-level message array
	// is the motivating case: each message can have a structurally
	// different record shape, so no single element-template can describe
	// every index the way it can for a CDF variable's homogeneous values.
	Elements []Node
}

// ElementAt returns the dynamic node for logical element i, resolving
// Elements before falling back to ElementTemplate.
func (a *Array) ElementAt(i int64) Node {
	if a.Elements != nil {
		return a.Elements[i]
	}
	return a.ElementTemplate
}

func NewArray(static *types.Array, numElements, bitOffset, elementBitSize int64) *Array {
	return &Array{Static: static, NumElements: numElements, BitOffset: bitOffset, ElementBitSize: elementBitSize}
}

func (a *Array) Kind() Kind            { return KindArray }
func (a *Array) StaticType() types.Type { return a.Static }

// ElementBitOffset returns the bit offset of logical element i, ignoring
// any bitmask (callers resolve the bitmask separately via BitmaskPresent /
// BitmaskCountBefore, because GRIB's stored-value index differs from the
// logical element index once absent elements are skipped).
func (a *Array) ElementBitOffset(i int64) int64 {
	return a.BitOffset + i*a.ElementBitSize
}

// BitmaskPresent reports whether logical element i is present, per
// spec.md §4.10's bit-7-MSB-first convention. Always true when Bitmask is
// nil.
func (a *Array) BitmaskPresent(i int64) bool {
	if a.Bitmask == nil {
		return true
	}
	byteIdx := i / 8
	bitIdx := uint(7 - i%8)
	return a.Bitmask[byteIdx]&(1<<bitIdx) != 0
}

// BitmaskCountBefore returns how many elements before logical index i are
// present, i.e. the 0-based index of element i within the stored-values
// sub-sequence (only meaningful when element i is itself present).
//
// Grounded on spec.md §4.10's "bitmask_cumsum128": the original
// accelerates this with a per-16-byte cumulative popcount table; a plain
// Go popcount loop over whole bytes plus a partial-byte tail is fast
// enough here (GRIB bitmaps are at most a few million bits) and keeps the
// code readable — the 128-bit windowing was purely a C-side cache-locality
// optimization, not an observable part of the algorithm.
func (a *Array) BitmaskCountBefore(i int64) int64 {
	if a.Bitmask == nil {
		return i
	}
	var count int64
	fullBytes := i / 8
	for b := int64(0); b < fullBytes; b++ {
		count += int64(popcount(a.Bitmask[b]))
	}
	rem := i % 8
	if rem > 0 {
		last := a.Bitmask[fullBytes]
		count += int64(popcount(last >> uint(8-rem)))
	}
	return count
}

func popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// Record is a record instance backed by a slot per static field, where a
// nil slot means the field is not present in this instance (spec.md §4.7).
type Record struct {
	base

	Static *types.Record
	Fields []Node
}

func NewRecord(static *types.Record) *Record {
	return &Record{Static: static, Fields: make([]Node, static.NumFields())}
}

func (r *Record) Kind() Kind            { return KindRecord }
func (r *Record) StaticType() types.Type { return r.Static }

// SetField binds the dynamic node for field index i.
func (r *Record) SetField(i int, n Node) { r.Fields[i] = n }

// Available reports whether field i has a dynamic node bound.
func (r *Record) Available(i int) bool { return r.Fields[i] != nil }
