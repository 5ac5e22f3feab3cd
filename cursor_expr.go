package coda

import "github.com/stcorp/coda-go/expr"

// The methods below satisfy expr.Cursor (Clone is defined in cursor.go),
// letting bit-size, availability, and detection-rule expressions navigate
// and read through the same Cursor the caller is already using, rather
// than a parallel evaluation path (spec.md §4.5).
var _ expr.Cursor = (*Cursor)(nil)

// ReadValue reads the leaf currently addressed as an expr.Value: integers
// stay integers, everything else that decoded to a float (real numbers,
// conversions, GRIB packing results, absent elements read as NaN) becomes a
// float Value, and text/raw leaves become byte-string Values.
func (c *Cursor) ReadValue() (expr.Value, error) {
	raw, _, err := c.readLeaf()
	if err != nil {
		return expr.Value{}, err
	}
	switch {
	case raw.isFloat:
		return expr.FloatValue(raw.f), nil
	case raw.s != nil:
		return expr.StringValue(raw.s), nil
	default:
		return expr.IntValue(raw.i), nil
	}
}

// FileSize reports the size of the product backing this cursor.
func (c *Cursor) FileSize() (int64, error) { return c.product.FileSize(), nil }

// FileName reports the name the product was opened with.
func (c *Cursor) FileName() (string, error) { return c.product.Filename(), nil }
