package codadef

import (
	"path/filepath"
	"sort"

	"github.com/stcorp/coda-go/expr"
)

// Recognize returns the ProductDefinition whose detection rules match
// filename/size, or nil if none do (spec.md §4.6). cursor, when non-nil,
// backs MatchExpression conditions that need to inspect the file's
// contents; pass nil to only evaluate filename/size conditions (useful
// before a product is fully opened).
//
// Candidates are visited in a deterministic order — product classes
// sorted by name, then product types sorted by name, then (within each
// type) each distinct definition name's currently active revision, also
// sorted by name — so "first match wins" doesn't depend on archive load
// order or an archive's internal element order.
func (d *Dictionary) Recognize(filename string, size int64, cursor expr.Cursor) *ProductDefinition {
	base := filepath.Base(filename)
	for _, def := range d.recognitionCandidates() {
		if def.matches(base, size, cursor) {
			return def
		}
	}
	return nil
}

func (d *Dictionary) recognitionCandidates() []*ProductDefinition {
	classes := append([]*ProductClass(nil), d.Classes...)
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })

	var candidates []*ProductDefinition
	for _, class := range classes {
		types := append([]*ProductType(nil), class.Types...)
		sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
		for _, typ := range types {
			candidates = append(candidates, activeDefinitionsSorted(typ)...)
		}
	}
	return candidates
}

// activeDefinitionsSorted returns, for each distinct definition name
// within typ, its currently active (highest-revision) ProductDefinition,
// sorted by name.
func activeDefinitionsSorted(typ *ProductType) []*ProductDefinition {
	seen := map[string]bool{}
	var names []string
	for _, def := range typ.Definitions {
		if !seen[def.Name] {
			seen[def.Name] = true
			names = append(names, def.Name)
		}
	}
	sort.Strings(names)

	defs := make([]*ProductDefinition, 0, len(names))
	for _, name := range names {
		if active := typ.activeDefinition(name); active != nil {
			defs = append(defs, active)
		}
	}
	return defs
}

func (def *ProductDefinition) matches(base string, size int64, cursor expr.Cursor) bool {
	if len(def.DetectionRules) == 0 {
		return false
	}
	for _, rule := range def.DetectionRules {
		if rule.matches(base, size, cursor) {
			return true
		}
	}
	return false
}

func (r *DetectionRule) matches(base string, size int64, cursor expr.Cursor) bool {
	for _, cond := range r.Conditions {
		if !cond.matches(base, size, cursor) {
			return false
		}
	}
	return true
}

func (c *Condition) matches(base string, size int64, cursor expr.Cursor) bool {
	switch c.Kind {
	case MatchFilename:
		ok, err := filepath.Match(globToFilepathPattern(c.Pattern), base)
		return err == nil && ok
	case MatchSize:
		return size == c.Size
	case MatchExpression:
		if cursor == nil {
			return false
		}
		ctx := expr.NewContext().WithCursor(cursor)
		v, err := c.Expression.Eval(ctx)
		if err != nil {
			return false
		}
		b, err := v.AsBool()
		return err == nil && b
	default:
		return false
	}
}

// globToFilepathPattern is the identity function today: codadef's filename
// patterns use the same '?'/'*' wildcard semantics as path/filepath.Match
// (the original's own matcher is a hand-rolled equivalent of fnmatch).
func globToFilepathPattern(p string) string { return p }
