// Package errs defines the error-kind taxonomy shared by every coda-go
// package (spec.md §4.12, §7). Each fallible operation returns a Go error
// that, for domain-specific failures, is (or wraps) an *errs.Error so
// callers can switch on Kind the way the original's errno values let
// callers distinguish "file is invalid" from "file uses an unsupported
// feature" from "out of memory".
//
// Go's error values already carry the cause directly (wrapped via %w), so
// coda-go does not reproduce the original's separate thread-local
// "error message buffer" — Options.Logger (see the coda package) is used
// for the ambient diagnostic logging a thread-local would otherwise have
// accumulated. See DESIGN.md for the Open Question this resolves.
package errs

import "fmt"

// Kind enumerates the error categories from spec.md §4.12.
type Kind int

const (
	Success Kind = iota
	OutOfMemory
	FileOpen
	FileRead
	InvalidArgument
	InvalidName
	InvalidFormat
	InvalidType
	ArrayNumDimsMismatch
	ArrayOutOfBounds
	OutOfBoundsRead
	Product
	UnsupportedProduct
	DataDefinition
	ExpressionSyntax
	ExpressionEvaluation
	XML
	NoSuchProduct
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "Success"
	case OutOfMemory:
		return "OutOfMemory"
	case FileOpen:
		return "FileOpen"
	case FileRead:
		return "FileRead"
	case InvalidArgument:
		return "InvalidArgument"
	case InvalidName:
		return "InvalidName"
	case InvalidFormat:
		return "InvalidFormat"
	case InvalidType:
		return "InvalidType"
	case ArrayNumDimsMismatch:
		return "ArrayNumDimsMismatch"
	case ArrayOutOfBounds:
		return "ArrayOutOfBounds"
	case OutOfBoundsRead:
		return "OutOfBoundsRead"
	case Product:
		return "Product"
	case UnsupportedProduct:
		return "UnsupportedProduct"
	case DataDefinition:
		return "DataDefinition"
	case ExpressionSyntax:
		return "ExpressionSyntax"
	case ExpressionEvaluation:
		return "ExpressionEvaluation"
	case XML:
		return "Xml"
	case NoSuchProduct:
		return "NoSuchProduct"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a kind-tagged diagnostic. A nil *Error compares unequal to a nil
// error interface the usual Go way, so callers should use errors.As rather
// than direct type assertion when they only sometimes expect one.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind that wraps an underlying
// cause, the way coda_add_error_message appends context to a lower-level
// failure.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
