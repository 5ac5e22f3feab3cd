package codadef

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/ziparchive"
)

// Load reads every product-class XML document out of the codadef ZIP
// archive at path and merges them into a new Dictionary.
//
// The original walks index.xml to decide each archive entry's role
// (ze_index / ze_type / ze_product) before parsing it; this loader instead
// parses every "*.xml" entry other than index.xml as a product class document
// directly and ignores index.xml itself, which exists only to speed up
// that walk. The VERSION entry, if present, supplies the archive's
// class-level revision (get_product_class_revision); see merge.
func Load(path string) (*Dictionary, error) {
	a, err := ziparchive.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.XML, err, "codadef: opening %q", path)
	}
	defer a.Close()
	return loadArchive(a)
}

// LoadBytes is Load for an in-memory codadef ZIP buffer.
func LoadBytes(data []byte) (*Dictionary, error) {
	a, err := ziparchive.OpenBytes(data)
	if err != nil {
		return nil, errs.Wrap(errs.XML, err, "codadef: opening in-memory archive")
	}
	defer a.Close()
	return loadArchive(a)
}

func loadArchive(a *ziparchive.Archive) (*Dictionary, error) {
	revision, err := archiveRevision(a)
	if err != nil {
		return nil, err
	}
	named := newNamedTypeResolver(func(id string) ([]byte, error) {
		e, err := a.EntryByName(id + ".xml")
		if err != nil {
			return nil, err
		}
		return a.ReadEntry(e)
	})

	dict := NewDictionary()
	for i := 0; i < a.NumEntries(); i++ {
		e, err := a.EntryByIndex(i)
		if err != nil {
			return nil, err
		}
		if !strings.HasSuffix(e.Name, ".xml") || e.Name == "index.xml" {
			continue
		}
		data, err := a.ReadEntry(e)
		if err != nil {
			return nil, errs.Wrap(errs.XML, err, "codadef: reading %q", e.Name)
		}
		class, err := parseProductClassResolved(bytes.NewReader(data), named)
		if err != nil {
			return nil, errs.Wrap(errs.XML, err, "codadef: parsing %q", e.Name)
		}
		class.Revision = revision
		class.SourceFile = e.Name
		dict.merge(class)
	}
	return dict, nil
}

// archiveRevision reads the codadef archive's VERSION marker entry,
// grounded on get_product_class_revision: a missing entry, empty content,
// or content that fails to parse as an integer all mean revision 0 (not
// an error) — the original silently treats an invalid version number the
// same as no version number at all.
func archiveRevision(a *ziparchive.Archive) (int, error) {
	e, err := a.EntryByName("VERSION")
	if err != nil {
		return 0, nil
	}
	data, err := a.ReadEntry(e)
	if err != nil {
		return 0, errs.Wrap(errs.XML, err, "codadef: reading VERSION entry")
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, nil
	}
	return n, nil
}
