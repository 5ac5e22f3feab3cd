package types

import (
	"fmt"

	"github.com/stcorp/coda-go/expr"
)

// Type is the common interface implemented by every static-type variant
// (spec.md §3). Variant-specific data is reached through a type switch on
// the concrete *Number / *Text / *Raw / *Array / *Record / *Special value,
// the same "tagged variant, no inheritance" shape spec.md §9 calls for.
type Type interface {
	Class() Class
	Attributes() *Record
	SetAttributes(r *Record)

	// BitSize returns the statically known bit size, or ok=false if the
	// size depends on an expression that must be evaluated against a
	// cursor (see SizeExpr on the concrete variant).
	BitSize() (size int64, ok bool)
}

// SizeExpr represents a bit-size or byte-size that is either a compile-time
// constant or must be evaluated against a cursor.
type SizeExpr struct {
	Fixed int64 // valid when Node == nil
	Node  expr.Node
}

// FixedSize constructs a SizeExpr with a known constant value.
func FixedSize(n int64) SizeExpr { return SizeExpr{Fixed: n} }

// Value resolves the size, evaluating Node against ctx if present.
func (s SizeExpr) Value(ctx *expr.Context) (int64, error) {
	if s.Node == nil {
		return s.Fixed, nil
	}
	v, err := s.Node.Eval(ctx)
	if err != nil {
		return 0, err
	}
	return v.AsInt()
}

// IsStatic reports whether the size is a compile-time constant.
func (s SizeExpr) IsStatic() bool { return s.Node == nil }

// baseType holds the fields common to every variant: the attributes
// record. Embedded by each concrete type.
type baseType struct {
	attrs *Record
}

func (b *baseType) Attributes() *Record   { return b.attrs }
func (b *baseType) SetAttributes(r *Record) { b.attrs = r }

// ErrValidation is returned by a type's validation pass (spec.md §4.4:
// "Validation pass after construction").
type ErrValidation struct {
	Msg string
}

func (e *ErrValidation) Error() string { return "types: " + e.Msg }

func validationError(format string, args ...interface{}) error {
	return &ErrValidation{Msg: fmt.Sprintf(format, args...)}
}
