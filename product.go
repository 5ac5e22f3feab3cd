package coda

import (
	"bytes"

	"github.com/stcorp/coda-go/bitio"
	"github.com/stcorp/coda-go/cdf"
	"github.com/stcorp/coda-go/codadef"
	"github.com/stcorp/coda-go/dynamic"
	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/grib"
	"github.com/stcorp/coda-go/types"
)

// Product is an opened file (spec.md §3): its static root type, its
// per-file dynamic root node, and the bitio.Source the dynamic tree's
// lazily-evaluated leaves read through. A Product is immutable once
// opened; all navigation state lives in the Cursors created against it, so
// one Product can back any number of concurrent Cursors.
type Product struct {
	filename string
	format   Format

	src *bitio.Source

	rootStatic types.Type
	rootDyn    dynamic.Node

	options *Options
}

// Open opens the file at path and recognizes its format (spec.md §4.9).
// The core recognizes CDF and GRIB by magic/signature; every other format
// constant exists for API completeness but has no backend here (see
// SPEC_FULL.md's scope notes).
func Open(path string, options *Options) (*Product, error) {
	if options == nil {
		options = DefaultOptions()
	}
	src, err := bitio.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.FileOpen, err, "coda: opening %q", path)
	}
	p, err := newProduct(path, src, options)
	if err != nil {
		src.Close()
		return nil, err
	}
	return p, nil
}

// OpenBytes opens an in-memory buffer as a Product, for callers that
// already have the file's contents (e.g. fetched from object storage)
// rather than a local path.
func OpenBytes(name string, data []byte, options *Options) (*Product, error) {
	if options == nil {
		options = DefaultOptions()
	}
	src := bitio.OpenBytes(data)
	return newProduct(name, src, options)
}

func newProduct(filename string, src *bitio.Source, options *Options) (*Product, error) {
	format, err := recognizeFormat(src)
	if err != nil {
		return nil, err
	}
	return newProductAs(filename, src, format, options)
}

// newProductAs builds a Product for a format that has already been
// decided, either by magic-byte sniffing (newProduct) or by an explicit
// codadef lookup (OpenAs).
func newProductAs(filename string, src *bitio.Source, format Format, options *Options) (*Product, error) {
	log := options.helper()

	p := &Product{filename: filename, format: format, src: src, options: options}

	switch format {
	case FormatCDF:
		st, dn, err := cdf.Open(src, log)
		if err != nil {
			return nil, err
		}
		p.rootStatic, p.rootDyn = st, dn
	case FormatGRIB:
		st, dn, err := grib.Open(src, log)
		if err != nil {
			return nil, err
		}
		p.rootStatic, p.rootDyn = st, dn
	default:
		return nil, errs.New(errs.UnsupportedProduct, "coda: format %s has no backend in this build", format)
	}

	return p, nil
}

// OpenAs opens the file at path as a specific codadef product definition
// (spec.md §6's open_as), bypassing magic-byte recognition entirely: class
// and typeName select a ProductClass/ProductType in dict, and version
// selects a specific ProductDefinition revision (0 or negative means "the
// currently active one"). The definition's declared Format ("cdf", "grib",
// "grib1", "grib2") selects which backend opens the file.
func OpenAs(path string, dict *codadef.Dictionary, class, typeName string, version int, options *Options) (*Product, error) {
	if dict == nil {
		return nil, errs.New(errs.InvalidArgument, "coda: OpenAs requires a non-nil codadef.Dictionary")
	}
	def, err := dict.Lookup(class, typeName, version)
	if err != nil {
		return nil, err
	}
	format, ok := formatFromCodadefString(def.Format)
	if !ok {
		return nil, errs.New(errs.UnsupportedProduct, "coda: product definition %q/%q declares format %q, which has no backend in this build", class, typeName, def.Format)
	}
	if options == nil {
		options = DefaultOptions()
	}
	src, err := bitio.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.FileOpen, err, "coda: opening %q", path)
	}
	p, err := newProductAs(path, src, format, options)
	if err != nil {
		src.Close()
		return nil, err
	}
	return p, nil
}

// formatFromCodadefString maps a codadef ProductDefinition's format
// attribute to the Format constant the matching backend is registered
// under.
func formatFromCodadefString(s string) (Format, bool) {
	switch s {
	case "cdf":
		return FormatCDF, true
	case "grib", "grib1", "grib2":
		return FormatGRIB, true
	default:
		return 0, false
	}
}

// recognizeFormat inspects the leading bytes of src to determine which
// backend should parse it (spec.md §4.9). CDF is identified by the first
// two bytes of its magic (cdf.Open validates the full magic); GRIB by the
// presence of a "GRIB" signature within the
// first few bytes (GRIB-1/2 files begin with it directly, so the cheap
// check at offset 0 covers every real-world product).
func recognizeFormat(src *bitio.Source) (Format, error) {
	if src.Size() < 4 {
		return 0, errs.New(errs.InvalidFormat, "coda: file too small to recognize")
	}
	head, err := src.Slice(0, 4)
	if err != nil {
		return 0, err
	}
	if bytes.Equal(head, []byte("GRIB")) {
		return FormatGRIB, nil
	}
	if len(head) == 4 && head[0] == 0xCD && head[1] == 0xF3 {
		return FormatCDF, nil
	}
	return 0, errs.New(errs.UnsupportedProduct, "coda: unrecognized file signature % x", head)
}

// Close releases the Product's underlying file mapping. Cursors created
// against this Product must not be used afterward.
func (p *Product) Close() error {
	return p.src.Close()
}

// Filename returns the path or name this Product was opened with.
func (p *Product) Filename() string { return p.filename }

// FileSize returns the total byte size of the underlying file.
func (p *Product) FileSize() int64 { return p.src.Size() }

// GetFormat returns the recognized container format.
func (p *Product) GetFormat() Format { return p.format }

// NewCursor creates a Cursor positioned at the product's root.
func (p *Product) NewCursor() *Cursor {
	c := &Cursor{product: p}
	c.stack = append(c.stack, frame{static: p.rootStatic, dyn: p.rootDyn, index: -1, bitOffset: -1})
	return c
}

// Recognize reports the format of the file at path without fully opening
// or parsing it (spec.md §4.9's lightweight recognition path).
func Recognize(path string) (Format, error) {
	src, err := bitio.Open(path)
	if err != nil {
		return 0, errs.Wrap(errs.FileOpen, err, "coda: opening %q", path)
	}
	defer src.Close()
	return recognizeFormat(src)
}

// RecognitionResult is what RecognizeFile reports about a file it did not
// fully open (spec.md §6's recognize_file).
type RecognitionResult struct {
	Size    int64
	Format  Format
	Class   string
	Type    string
	Version int
}

// RecognizeFile reports a file's size and container format the same way
// Recognize does, and additionally, when dict is non-nil, the codadef
// product class/type/version its detection rules identify it as (spec.md
// §6's recognize_file: "path -> {size, format, class, type, version}").
// Class/Type/Version are left zero-valued when dict is nil or no
// definition's detection rules match.
func RecognizeFile(path string, dict *codadef.Dictionary) (RecognitionResult, error) {
	src, err := bitio.Open(path)
	if err != nil {
		return RecognitionResult{}, errs.Wrap(errs.FileOpen, err, "coda: opening %q", path)
	}
	defer src.Close()

	format, err := recognizeFormat(src)
	if err != nil {
		return RecognitionResult{}, err
	}
	result := RecognitionResult{Size: src.Size(), Format: format}
	if dict == nil {
		return result, nil
	}
	if def := dict.Recognize(path, src.Size(), nil); def != nil {
		result.Class = def.ClassName
		result.Type = def.TypeName
		result.Version = def.Revision
	}
	return result, nil
}
