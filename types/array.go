package types

import "github.com/stcorp/coda-go/expr"

// Dimension is one dimension of an Array: either a positive constant or an
// integer-valued expression (spec.md §3).
type Dimension struct {
	Size SizeExpr
}

// ConstDimension constructs a fixed-size dimension.
func ConstDimension(n int64) Dimension { return Dimension{Size: FixedSize(n)} }

// ExprDimension constructs a dimension computed by an expression.
func ExprDimension(n expr.Node) Dimension { return Dimension{Size: SizeExpr{Node: n}} }

// Array is the static type of a homogeneous, ordered collection.
type Array struct {
	baseType

	Base       Type
	Dimensions []Dimension
	Ordering   ArrayOrdering
}

func NewArray(base Type, ordering ArrayOrdering, dims ...Dimension) *Array {
	return &Array{Base: base, Dimensions: dims, Ordering: ordering}
}

func (a *Array) Class() Class { return ClassArray }

// NumDims returns the number of dimensions.
func (a *Array) NumDims() int { return len(a.Dimensions) }

// NumElements returns the total element count, if every dimension is
// statically known.
func (a *Array) NumElements() (int64, bool) {
	total := int64(1)
	for _, d := range a.Dimensions {
		if !d.Size.IsStatic() {
			return 0, false
		}
		total *= d.Size.Fixed
	}
	return total, true
}

// BitSize returns base.BitSize() * NumElements(), when both are statically
// known (spec.md §3 invariant: "arrays: base.bit_size x num_elements").
func (a *Array) BitSize() (int64, bool) {
	baseSize, ok := a.Base.BitSize()
	if !ok {
		return 0, false
	}
	n, ok := a.NumElements()
	if !ok {
		return 0, false
	}
	return baseSize * n, true
}

// Validate checks the invariant that a declared static bit_size (if any on
// the array's own dimensions) matches base.bit_size * num_elements; since
// Array never carries its own independent bit_size field (it is always
// derived), this is really a structural check that the base type itself is
// well-formed.
func (a *Array) Validate() error {
	if a.Base == nil {
		return validationError("array has no base type")
	}
	return nil
}
