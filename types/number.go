package types

// Conversion describes a linear transform and invalid-value sentinel
// applied when reading a Number through the "conversions" read path
// (spec.md §3, §4.8).
type Conversion struct {
	Numerator       float64
	Denominator     float64
	Offset          float64
	HasInvalidValue bool
	InvalidValue    int64 // compared against the raw integer value
	Unit            string
}

// Apply converts a raw value using the conversion's linear transform,
// returning the invalid-value sentinel (NaN by convention) when raw
// equals InvalidValue.
func (c *Conversion) Apply(raw int64) float64 {
	if c.HasInvalidValue && raw == c.InvalidValue {
		return nan()
	}
	den := c.Denominator
	if den == 0 {
		den = 1
	}
	return float64(raw)*c.Numerator/den + c.Offset
}

func nan() float64 {
	var z float64
	return z / z
}

// Mapping is an optional ASCII-mapping table translating specific raw
// integer values to strings (e.g. enumerated flag values in CDF/GRIB
// center tables).
type Mapping struct {
	Value  int64
	Length int64
	Text   string
}

// Number is the static type of scalar integer or floating-point leaves.
type Number struct {
	baseType

	NumberKind NumberKind
	ReadType   ReadType
	BitSz      SizeExpr
	Endian     Endianness
	Unit       string

	Conversion *Conversion // nil if no conversion is defined
	Mappings   []Mapping
	FixedValue *int64 // nil unless the field always holds one constant value
}

// NewNumber constructs a Number type with the given class and read type.
// bitSize defaults to ReadType.ByteSize()*8 when zero.
func NewNumber(kind NumberKind, readType ReadType, bitSize int64) *Number {
	if bitSize == 0 {
		bitSize = int64(readType.ByteSize()) * 8
	}
	return &Number{
		NumberKind: kind,
		ReadType:   readType,
		BitSz:      FixedSize(bitSize),
	}
}

func (n *Number) Class() Class { return ClassNumber }

func (n *Number) BitSize() (int64, bool) {
	if !n.BitSz.IsStatic() {
		return 0, false
	}
	return n.BitSz.Fixed, true
}

// Validate checks the invariant from spec.md §3: "for a number type,
// read_type.byte_size >= bit_size / 8".
func (n *Number) Validate() error {
	size, ok := n.BitSize()
	if !ok {
		return nil
	}
	byteSize := int64(n.ReadType.ByteSize())
	if byteSize == 0 {
		return validationError("number type has a text/bytes read type")
	}
	if byteSize < (size+7)/8 {
		return validationError("read type byte size %d is too small for bit size %d", byteSize, size)
	}
	return nil
}
