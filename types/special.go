package types

import "github.com/stcorp/coda-go/expr"

// Special wraps a base type and gives it additional semantics: time,
// complex, or vsf-integer (spec.md §3).
type Special struct {
	baseType

	Kind SpecialKind
	Base Type // the wrapped base type

	// Time: a unit-expression mapping the raw base value to
	// seconds-since-2000-01-01T00:00:00-UTC.
	TimeUnitExpr expr.Node

	// Complex: the base Number's real/imaginary composition. When Split is
	// true, the base is itself a 2-element array (real, imag); otherwise
	// real and imaginary parts are read as two adjacent scalar reads of
	// Base.
	ComplexSplit bool

	// VSFInteger: base integer x 10^-ScaleFactor, with a separate
	// scale-factor type and unit.
	ScaleFactorType Type
	VSFUnit         string
}

func (s *Special) Class() Class { return ClassSpecial }

func (s *Special) BitSize() (int64, bool) {
	if s.Base == nil {
		return 0, false
	}
	return s.Base.BitSize()
}

// NewTimeType constructs a Special time type wrapping base, converted to
// seconds-since-2000 via unitExpr.
func NewTimeType(base Type, unitExpr expr.Node) *Special {
	return &Special{Kind: SpecialTime, Base: base, TimeUnitExpr: unitExpr}
}

// NewComplexType constructs a Special complex type wrapping a numeric base.
func NewComplexType(base *Number, split bool) *Special {
	return &Special{Kind: SpecialComplex, Base: base, ComplexSplit: split}
}

// NewVSFIntegerType constructs a Special vsf-integer type: base is the
// integer value type, scaleFactorType the (also integer) scale-factor
// type.
func NewVSFIntegerType(base, scaleFactorType Type, unit string) *Special {
	return &Special{Kind: SpecialVSFInteger, Base: base, ScaleFactorType: scaleFactorType, VSFUnit: unit}
}

// Validate enforces spec.md §4.4's per-special-kind construction rules.
func (s *Special) Validate() error {
	switch s.Kind {
	case SpecialTime:
		if s.Base == nil {
			return validationError("time type has no base type")
		}
		if s.TimeUnitExpr == nil {
			return validationError("time type has no unit expression")
		}
	case SpecialComplex:
		n, ok := s.Base.(*Number)
		if !ok {
			return validationError("complex type base must be a number")
		}
		if n.NumberKind != NumberReal {
			return validationError("complex type base must be a real number")
		}
	case SpecialVSFInteger:
		n, ok := s.Base.(*Number)
		if !ok || n.NumberKind != NumberInteger {
			return validationError("vsf-integer base must be an integer")
		}
		if s.ScaleFactorType == nil {
			return validationError("vsf-integer has no scale-factor type")
		}
		sf, ok := s.ScaleFactorType.(*Number)
		if !ok || sf.NumberKind != NumberInteger {
			return validationError("vsf-integer scale-factor type must be an integer")
		}
	}
	return nil
}
