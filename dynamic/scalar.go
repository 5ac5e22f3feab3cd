package dynamic

import "github.com/stcorp/coda-go/types"

// Scalar is a plain leaf (number, text, raw, or special) backed by an
// explicit bit offset into the product.
type Scalar struct {
	base

	Static    types.Type
	BitOffset int64

	// There is no separate byte offset: the cursor consults BitOffset
	// uniformly (byte-aligned leaves simply have BitOffset%8 == 0).
}

func NewScalar(static types.Type, bitOffset int64) *Scalar {
	return &Scalar{Static: static, BitOffset: bitOffset}
}

func (s *Scalar) Kind() Kind            { return KindScalar }
func (s *Scalar) StaticType() types.Type { return s.Static }

// InMemory is a leaf whose value was precomputed by the backend (e.g. a
// GRIB section header field decoded once at open time) rather than read
// lazily from the file.
type InMemory struct {
	base

	Static types.Type
	Value  interface{} // bool, int64, float64, string, or []byte
}

func NewInMemory(static types.Type, value interface{}) *InMemory {
	return &InMemory{Static: static, Value: value}
}

func (n *InMemory) Kind() Kind            { return KindInMemory }
func (n *InMemory) StaticType() types.Type { return n.Static }
