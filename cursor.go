package coda

import (
	"github.com/stcorp/coda-go/dynamic"
	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/expr"
	"github.com/stcorp/coda-go/types"
)

// maxCursorDepth bounds the navigation stack (spec.md §4.8: "a bounded
// stack (max depth 32) of frames"), matching the original's fixed-size
// coda_cursor array and letting Cursor live on the stack without
// allocation in the common case.
const maxCursorDepth = 32

// frame is one level of a Cursor's navigation stack (spec.md §4.8): the
// static/dynamic type pair addressed at this level, the record-field or
// array-element index that got here (-1 for the root and for the
// "attributes of parent" marker pushed by GotoAttributes), and a bit
// offset that is only meaningful when dyn is a value shared across
// sibling elements (an array's ElementTemplate) rather than a node with
// its own fixed offset — -1 otherwise.
type frame struct {
	static types.Type
	dyn    dynamic.Node

	index     int64
	bitOffset int64

	// fromArray is true when this frame was reached via
	// GotoArrayElementByIndex; only then do packing/packingPresent apply,
	// since a zero-valued bool default would otherwise make every
	// non-array frame (record fields, the root) look like a masked-out
	// array element.
	fromArray bool

	// packing and packingPresent are set when this frame was reached via
	// GotoArrayElementByIndex into a GRIB simple-packed array (spec.md
	// §4.10); they let the read path apply the packing formula and bitmap
	// gating instead of a plain fixed-width read.
	packing        *dynamic.SimplePacking
	packingPresent bool
}

// Cursor tracks a position within one Product's dynamic tree (spec.md
// §4.8). A Cursor is cheap to copy by value's worth of bookkeeping but is
// a pointer type here because its stack is shared, mutating state; use
// Clone (or NewCursor again) to branch navigation.
type Cursor struct {
	product *Product
	stack   []frame
}

// SetProduct repositions the cursor at product's root, discarding any
// existing navigation state (mirrors coda_cursor_set_product).
func (c *Cursor) SetProduct(p *Product) {
	c.product = p
	c.stack = c.stack[:0]
	c.stack = append(c.stack, frame{static: p.rootStatic, dyn: p.rootDyn, index: -1, bitOffset: -1})
}

// Clone returns an independent copy whose navigation can diverge from c's,
// satisfying expr.Cursor for path sub-expressions that branch off the
// cursor they were given. Callers that need the concrete type back (to
// call coda-specific methods beyond the expr.Cursor surface) can type
// assert: c.Clone().(*Cursor).
func (c *Cursor) Clone() expr.Cursor {
	cp := &Cursor{product: c.product, stack: make([]frame, len(c.stack))}
	copy(cp.stack, c.stack)
	return cp
}

func (c *Cursor) top() *frame { return &c.stack[len(c.stack)-1] }

func (c *Cursor) push(f frame) error {
	if len(c.stack) >= maxCursorDepth {
		return errs.New(errs.InvalidArgument, "coda: cursor navigation depth exceeds %d", maxCursorDepth)
	}
	c.stack = append(c.stack, f)
	return nil
}

// GotoRoot truncates the cursor back to the product's root.
func (c *Cursor) GotoRoot() error {
	c.stack = c.stack[:1]
	return nil
}

// GotoParent pops one navigation level. Returns an error at the root.
func (c *Cursor) GotoParent() error {
	if len(c.stack) <= 1 {
		return errs.New(errs.InvalidArgument, "coda: cursor is already at the root")
	}
	c.stack = c.stack[:len(c.stack)-1]
	return nil
}

// GotoRecordFieldByName descends into the named field of the record
// currently addressed.
func (c *Cursor) GotoRecordFieldByName(name string) error {
	top := c.top()
	rec, ok := baseRecord(top.static)
	if !ok {
		return errs.New(errs.InvalidType, "coda: cursor is not positioned on a record")
	}
	idx := rec.FieldIndexByName(name)
	if idx < 0 {
		return errs.New(errs.InvalidName, "coda: record has no field %q", name)
	}
	return c.gotoRecordFieldByIndex(rec, idx)
}

// GotoRecordFieldByIndex descends into the record field at position idx.
func (c *Cursor) GotoRecordFieldByIndex(idx int) error {
	top := c.top()
	rec, ok := baseRecord(top.static)
	if !ok {
		return errs.New(errs.InvalidType, "coda: cursor is not positioned on a record")
	}
	return c.gotoRecordFieldByIndex(rec, idx)
}

func (c *Cursor) gotoRecordFieldByIndex(rec *types.Record, idx int) error {
	if c.product.options.PerformBoundaryChecks && (idx < 0 || idx >= rec.NumFields()) {
		return errs.New(errs.ArrayOutOfBounds, "coda: record field index %d out of range", idx)
	}
	f := rec.Field(idx)
	top := c.top()
	var fieldDyn dynamic.Node
	if dr, ok := top.dyn.(*dynamic.Record); ok && idx < len(dr.Fields) {
		fieldDyn = dr.Fields[idx]
	}
	return c.push(frame{static: f.Type, dyn: fieldDyn, index: int64(idx), bitOffset: -1})
}

// GotoArrayElementByIndex descends into element i of the array currently
// addressed, resolving whichever element-sharing strategy the dynamic tree
// used to build it (spec.md §4.7): an explicit per-element node
// (dynamic.Array.Elements), a shared ElementTemplate read at a
// formulaically-derived offset, or — for GRIB's simple-packed value arrays
// — a packing-aware offset into the stored-value sub-sequence once the
// bitmask has gated out absent elements.
func (c *Cursor) GotoArrayElementByIndex(i int64) error {
	top := c.top()
	arrStatic, ok := top.static.(*types.Array)
	if !ok {
		return errs.New(errs.InvalidType, "coda: cursor is not positioned on an array")
	}
	arrDyn, ok := top.dyn.(*dynamic.Array)
	if !ok {
		return errs.New(errs.InvalidType, "coda: array has no dynamic extent")
	}
	if c.product.options.PerformBoundaryChecks && (i < 0 || i >= arrDyn.NumElements) {
		return errs.New(errs.ArrayOutOfBounds, "coda: array index %d out of range [0,%d)", i, arrDyn.NumElements)
	}

	var (
		elemDyn   dynamic.Node
		bitOffset int64 = -1
		packing   *dynamic.SimplePacking
		present         = true
	)
	switch {
	case arrDyn.Elements != nil:
		elemDyn = arrDyn.Elements[i]
	case arrDyn.Packing != nil:
		packing = arrDyn.Packing
		present = arrDyn.BitmaskPresent(i)
		stored := arrDyn.BitmaskCountBefore(i)
		bitOffset = arrDyn.BitOffset + stored*arrDyn.ElementBitSize
		elemDyn = arrDyn.ElementTemplate
	default:
		present = arrDyn.BitmaskPresent(i)
		bitOffset = arrDyn.ElementBitOffset(i)
		elemDyn = arrDyn.ElementTemplate
	}

	return c.push(frame{
		static:         arrStatic.Base,
		dyn:            elemDyn,
		index:          i,
		bitOffset:      bitOffset,
		fromArray:      true,
		packing:        packing,
		packingPresent: present,
	})
}

// GotoAttributes descends into the attributes record of the node currently
// addressed, falling back to an empty record when none was populated
// (spec.md §4.8).
func (c *Cursor) GotoAttributes() error {
	top := c.top()
	attrStatic := top.static.Attributes()
	if attrStatic == nil {
		attrStatic = types.EmptyRecord
	}
	var attrDyn dynamic.Node
	if top.dyn != nil {
		attrDyn = top.dyn.Attributes()
	}
	if attrDyn == nil {
		attrDyn = dynamic.NewRecord(attrStatic)
	}
	return c.push(frame{static: attrStatic, dyn: attrDyn, index: -1, bitOffset: -1})
}

// baseRecord reports whether t is a *types.Record. A Special is not
// unwrapped (time, complex, and vsf-integer types never wrap a record in
// this module's backends).
func baseRecord(t types.Type) (*types.Record, bool) {
	rec, ok := t.(*types.Record)
	return rec, ok
}

// GetDepth returns the number of navigation levels below the root.
func (c *Cursor) GetDepth() int { return len(c.stack) - 1 }

// GetIndex returns the record-field or array-element index that produced
// the current position, or -1 at the root or after GotoAttributes.
func (c *Cursor) GetIndex() int64 { return c.top().index }

// GetType returns the static type addressed by the cursor.
func (c *Cursor) GetType() types.Type { return c.top().static }

// GetTypeClass returns the static type's Class, unwrapping Special types
// to their base class when Options.BypassSpecialTypes is set.
func (c *Cursor) GetTypeClass() types.Class {
	t := c.top().static
	if c.product.options.BypassSpecialTypes {
		if sp, ok := t.(*types.Special); ok {
			t = sp.Base
		}
	}
	return t.Class()
}

// GetSpecialType returns the SpecialKind of the current node, valid only
// when GetTypeClass (without bypass) is ClassSpecial.
func (c *Cursor) GetSpecialType() (types.SpecialKind, error) {
	sp, ok := c.top().static.(*types.Special)
	if !ok {
		return 0, errs.New(errs.InvalidType, "coda: cursor is not positioned on a special type")
	}
	return sp.Kind, nil
}

// GetReadType returns the physical read encoding of a Number or Text leaf.
func (c *Cursor) GetReadType() (types.ReadType, error) {
	switch t := c.top().static.(type) {
	case *types.Number:
		return t.ReadType, nil
	case *types.Text:
		return t.ReadType, nil
	default:
		return 0, errs.New(errs.InvalidType, "coda: cursor is not positioned on a number or text leaf")
	}
}

// GetNumElements returns the number of record fields or array elements
// addressed by the current position (1 for scalar leaves).
func (c *Cursor) GetNumElements() (int64, error) {
	top := c.top()
	switch st := top.static.(type) {
	case *types.Record:
		return int64(st.NumFields()), nil
	case *types.Array:
		if arrDyn, ok := top.dyn.(*dynamic.Array); ok {
			return arrDyn.NumElements, nil
		}
		if n, ok := st.NumElements(); ok {
			return n, nil
		}
		return 0, errs.New(errs.Product, "coda: array element count is not statically known and has no dynamic extent")
	default:
		return 1, nil
	}
}

// GetArrayDim returns each dimension's size for the array currently
// addressed, taken from the static Dimensions slice: fixed sizes are used
// as-is and dimensions backed by an expression are evaluated against this
// cursor. A dynamic array's NumElements is not consulted here.
func (c *Cursor) GetArrayDim() ([]int64, error) {
	top := c.top()
	arr, ok := top.static.(*types.Array)
	if !ok {
		return nil, errs.New(errs.InvalidType, "coda: cursor is not positioned on an array")
	}
	dims := make([]int64, arr.NumDims())
	for i, d := range arr.Dimensions {
		if d.Size.IsStatic() {
			dims[i] = d.Size.Fixed
			continue
		}
		ctx := expr.NewContext().WithCursor(c)
		v, err := d.Size.Node.Eval(ctx)
		if err != nil {
			return nil, err
		}
		n, err := v.AsInt()
		if err != nil {
			return nil, err
		}
		dims[i] = n
	}
	return dims, nil
}

// GetBitSize returns the bit size of the value currently addressed,
// falling back to the dynamic array's element-count x element-bit-size
// product when the static type's size depends on an expression that the
// backend already resolved once at open time.
func (c *Cursor) GetBitSize() (int64, error) {
	top := c.top()
	if n, ok := top.static.BitSize(); ok {
		return n, nil
	}
	if arrDyn, ok := top.dyn.(*dynamic.Array); ok {
		return arrDyn.NumElements * arrDyn.ElementBitSize, nil
	}
	return 0, errs.New(errs.Product, "coda: bit size is not statically known")
}

// GetByteSize returns GetBitSize rounded up to a whole byte.
func (c *Cursor) GetByteSize() (int64, error) {
	bits, err := c.GetBitSize()
	if err != nil {
		return 0, err
	}
	return (bits + 7) / 8, nil
}

// GetFileBitOffset returns the absolute bit offset within the product file
// of the value currently addressed.
func (c *Cursor) GetFileBitOffset() (int64, error) {
	top := c.top()
	if top.bitOffset >= 0 {
		return top.bitOffset, nil
	}
	switch dn := top.dyn.(type) {
	case *dynamic.Scalar:
		return dn.BitOffset, nil
	case *dynamic.Array:
		return dn.BitOffset, nil
	default:
		return 0, errs.New(errs.Product, "coda: current node has no single file offset")
	}
}

// GetFileByteOffset returns GetFileBitOffset divided down to a byte
// offset; it is only meaningful when the value is byte-aligned.
func (c *Cursor) GetFileByteOffset() (int64, error) {
	bits, err := c.GetFileBitOffset()
	if err != nil {
		return 0, err
	}
	return bits / 8, nil
}

// GetFormat returns the product's container format.
func (c *Cursor) GetFormat() Format { return c.product.GetFormat() }

// GetRecordFieldIndexFromName returns the field index for name on the
// record currently addressed, or an error if there is no such field.
func (c *Cursor) GetRecordFieldIndexFromName(name string) (int, error) {
	rec, ok := baseRecord(c.top().static)
	if !ok {
		return 0, errs.New(errs.InvalidType, "coda: cursor is not positioned on a record")
	}
	idx := rec.FieldIndexByName(name)
	if idx < 0 {
		return 0, errs.New(errs.InvalidName, "coda: record has no field %q", name)
	}
	return idx, nil
}

// GetRecordFieldAvailableStatus reports whether field idx of the record
// currently addressed has a bound dynamic value in this particular file.
func (c *Cursor) GetRecordFieldAvailableStatus(idx int) (bool, error) {
	dr, ok := c.top().dyn.(*dynamic.Record)
	if !ok {
		return false, errs.New(errs.InvalidType, "coda: cursor is not positioned on a record instance")
	}
	if idx < 0 || idx >= len(dr.Fields) {
		return false, errs.New(errs.ArrayOutOfBounds, "coda: record field index %d out of range", idx)
	}
	return dr.Available(idx), nil
}

// GetAvailableUnionFieldIndex evaluates the union selector of the record
// currently addressed and returns the index of the field it selects.
func (c *Cursor) GetAvailableUnionFieldIndex() (int, error) {
	rec, ok := baseRecord(c.top().static)
	if !ok {
		return 0, errs.New(errs.InvalidType, "coda: cursor is not positioned on a record")
	}
	if !rec.IsUnion {
		return 0, errs.New(errs.InvalidType, "coda: record is not a union")
	}
	ctx := expr.NewContext().WithCursor(c)
	v, err := rec.Selector.Eval(ctx)
	if err != nil {
		return 0, err
	}
	n, err := v.AsInt()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
