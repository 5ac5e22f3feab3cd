package coda

import "github.com/stcorp/coda-go/errs"

// ErrorKind re-exports errs.Kind so callers working against the coda
// package directly don't need a second import for the common case of
// switching on an error's category (spec.md §4.12).
type ErrorKind = errs.Kind

const (
	ErrSuccess              = errs.Success
	ErrOutOfMemory          = errs.OutOfMemory
	ErrFileOpen             = errs.FileOpen
	ErrFileRead             = errs.FileRead
	ErrInvalidArgument      = errs.InvalidArgument
	ErrInvalidName          = errs.InvalidName
	ErrInvalidFormat        = errs.InvalidFormat
	ErrInvalidType          = errs.InvalidType
	ErrArrayNumDimsMismatch = errs.ArrayNumDimsMismatch
	ErrArrayOutOfBounds     = errs.ArrayOutOfBounds
	ErrOutOfBoundsRead      = errs.OutOfBoundsRead
	ErrProduct              = errs.Product
	ErrUnsupportedProduct   = errs.UnsupportedProduct
	ErrDataDefinition       = errs.DataDefinition
	ErrExpressionSyntax     = errs.ExpressionSyntax
	ErrExpressionEvaluation = errs.ExpressionEvaluation
	ErrXML                  = errs.XML
	ErrNoSuchProduct        = errs.NoSuchProduct
)

// IsErrorKind reports whether err is (or wraps) an *errs.Error of kind k.
func IsErrorKind(err error, k ErrorKind) bool { return errs.Is(err, k) }
