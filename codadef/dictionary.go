package codadef

import (
	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/expr"
	"github.com/stcorp/coda-go/types"
)

// DetectionRule is one alternative recognition rule for a ProductDefinition
// (spec.md §4.6): every MatchFilename/MatchSize/MatchExpression condition
// in Conditions must hold for the rule to select the definition.
type DetectionRule struct {
	Conditions []Condition
}

// ConditionKind identifies which kind of match a Condition checks.
type ConditionKind int

const (
	MatchFilename ConditionKind = iota
	MatchSize
	MatchExpression
)

// Condition is one leaf test within a DetectionRule.
type Condition struct {
	Kind ConditionKind

	// MatchFilename: Pattern is a shell-style glob (? and * only, per the
	// original's simple matcher).
	Pattern string

	// MatchSize: exact byte size the product must have.
	Size int64

	// MatchExpression: a boolean expression evaluated with no cursor bound
	// (constant) or against the opened product's root cursor.
	Expression expr.Node
}

// ProductVariable is a named, lazily-computed integer array exposed
// alongside a product's data (spec.md §3): "optional product-variables
// (named integer arrays computed via init-expressions)".
type ProductVariable struct {
	Name string
	Init expr.Node
}

// ProductDefinition is one named, versioned description of a product
// layout (spec.md §4.6). A ProductType may carry several same-named
// definitions (e.g. contributed by separate archive entries);
// activeDefinition/Dictionary.Recognize only ever select the
// highest-Revision one for a given Name.
type ProductDefinition struct {
	Name        string
	Revision    int
	Format      string
	Description string

	// ClassName and TypeName name the enclosing ProductClass/ProductType;
	// set by the loader so a definition returned by Dictionary.Recognize
	// can be resolved back through Dictionary.Lookup.
	ClassName string
	TypeName  string

	// RootType is the static type tree parsed from this definition's
	// <Type> element, or nil if the definition declared none.
	RootType types.Type

	DetectionRules []DetectionRule
	Variables      []ProductVariable
}

// ProductType groups the revisions of one named product format.
type ProductType struct {
	Name        string
	Description string
	Definitions []*ProductDefinition
}

// ProductClass groups the product types belonging to one mission or
// instrument (spec.md §4.6's top-level grouping, e.g. "ACE_FTS",
// "EPS_GRIB").
type ProductClass struct {
	Name        string
	Description string
	Types       []*ProductType

	// Revision is the class's archive-level revision, read from the
	// codadef archive's VERSION entry (0 if absent or unparseable). It
	// governs Dictionary.merge's whole-class replace/ignore policy, a
	// separate concept from a ProductDefinition's own Revision.
	Revision int

	// SourceFile is the archive entry this class was parsed from, kept
	// for introspection/diagnostics.
	SourceFile string
}

// Dictionary is the in-memory result of loading one or more codadef ZIP
// archives: every ProductClass they define, plus a name index used for
// merging and lookup.
type Dictionary struct {
	Classes []*ProductClass

	byClassName map[string]*ProductClass
}

// NewDictionary returns an empty dictionary ready for merge.
func NewDictionary() *Dictionary {
	return &Dictionary{byClassName: map[string]*ProductClass{}}
}

// ClassByName returns the named product class, or nil.
func (d *Dictionary) ClassByName(name string) *ProductClass {
	return d.byClassName[name]
}

// activeDefinition returns the highest-revision definition with this name
// within t (spec.md §4.6's revision-replacement policy).
func (t *ProductType) activeDefinition(name string) *ProductDefinition {
	var best *ProductDefinition
	for _, def := range t.Definitions {
		if def.Name != name {
			continue
		}
		if best == nil || def.Revision > best.Revision {
			best = def
		}
	}
	return best
}

// merge folds a freshly-parsed ProductClass into the dictionary.
//
// Grounded on get_product_class_revision/cd_product_class_init: the
// decision is made once, for the whole incoming class, by comparing
// archive-level Revision values — there is no field-by-field merging of
// product types or definitions. A revision that is lower than or equal to
// what's already registered means the entire incoming class is ignored;
// a strictly higher revision means the old class is discarded wholesale
// and replaced by the new one.
func (d *Dictionary) merge(pc *ProductClass) {
	existing, ok := d.byClassName[pc.Name]
	if !ok {
		d.Classes = append(d.Classes, pc)
		d.byClassName[pc.Name] = pc
		return
	}
	if pc.Revision <= existing.Revision {
		return
	}
	for i, c := range d.Classes {
		if c == existing {
			d.Classes[i] = pc
			break
		}
	}
	d.byClassName[pc.Name] = pc
}

// Lookup resolves a fully-qualified (class, type, version) reference to a
// ProductDefinition (spec.md §6's open_as). version <= 0 means "the
// currently active definition", matching activeDefinition's normal
// revision-replacement behavior; version > 0 asks for that exact
// ProductDefinition revision, even if a newer one has since superseded it
// within the same document.
func (d *Dictionary) Lookup(className, typeName string, version int) (*ProductDefinition, error) {
	class, ok := d.byClassName[className]
	if !ok {
		return nil, errs.New(errs.NoSuchProduct, "codadef: no product class named %q", className)
	}
	var typ *ProductType
	for _, t := range class.Types {
		if t.Name == typeName {
			typ = t
			break
		}
	}
	if typ == nil {
		return nil, errs.New(errs.NoSuchProduct, "codadef: product class %q has no product type named %q", className, typeName)
	}
	if version <= 0 {
		if len(typ.Definitions) == 0 {
			return nil, errs.New(errs.NoSuchProduct, "codadef: product type %q has no definitions", typeName)
		}
		return typ.activeDefinition(typ.Definitions[0].Name), nil
	}
	for _, def := range typ.Definitions {
		if def.Revision == version {
			return def, nil
		}
	}
	return nil, errs.New(errs.NoSuchProduct, "codadef: product type %q has no definition at version %d", typeName, version)
}
