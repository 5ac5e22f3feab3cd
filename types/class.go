// Package types implements the static type system (spec.md §3, §4.4): an
// immutable, read-only description of product structure shared by every
// backend. Types are built once (by a backend parser or the codadef
// loader) and may be referenced by many dynamic trees; Go's garbage
// collector takes the place of the original's manual reference counting
// (a type stays alive for as long as anything — a dictionary entry, a
// dynamic node — still points to it; see DESIGN.md).
package types

import "fmt"

// Class identifies which static-type variant a Type value holds.
type Class int

const (
	ClassNumber Class = iota
	ClassText
	ClassRaw
	ClassArray
	ClassRecord
	ClassSpecial
)

func (c Class) String() string {
	switch c {
	case ClassNumber:
		return "number"
	case ClassText:
		return "text"
	case ClassRaw:
		return "raw"
	case ClassArray:
		return "array"
	case ClassRecord:
		return "record"
	case ClassSpecial:
		return "special"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// NumberKind distinguishes integer from floating-point numbers.
type NumberKind int

const (
	NumberInteger NumberKind = iota
	NumberReal
)

// ReadType identifies the physical encoding used to read a Number or Text
// leaf value off the wire.
type ReadType int

const (
	ReadInt8 ReadType = iota
	ReadInt16
	ReadInt32
	ReadInt64
	ReadUint8
	ReadUint16
	ReadUint32
	ReadUint64
	ReadFloat32
	ReadFloat64
	ReadChar
	ReadString
	ReadBytes
)

// ByteSize returns the number of bytes ReadType occupies on the wire, or 0
// for variable-length text/bytes types.
func (rt ReadType) ByteSize() int {
	switch rt {
	case ReadInt8, ReadUint8, ReadChar:
		return 1
	case ReadInt16, ReadUint16:
		return 2
	case ReadInt32, ReadUint32, ReadFloat32:
		return 4
	case ReadInt64, ReadUint64, ReadFloat64:
		return 8
	default:
		return 0
	}
}

// Endianness of a multi-byte Number on the wire.
type Endianness int

const (
	BigEndian Endianness = iota
	LittleEndian
)

// ArrayOrdering controls how multi-dimensional array indices map onto a
// flat element sequence.
type ArrayOrdering int

const (
	OrderC ArrayOrdering = iota
	OrderFortran
)

// SpecialKind identifies which Special variant a type holds.
type SpecialKind int

const (
	SpecialTime SpecialKind = iota
	SpecialComplex
	SpecialVSFInteger
)
