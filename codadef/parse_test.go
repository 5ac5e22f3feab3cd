package codadef

import (
	"strings"
	"testing"

	"github.com/stcorp/coda-go/types"
)

const sampleClassXML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<ProductClass name="TEST_CLASS" xmlns="http://www.stcorp.nl/coda/definition/2008/07">
  <Description>A test product class</Description>
  <ProductType name="TEST_TYPE">
    <Description>A test product type</Description>
    <ProductDefinition name="test_product" format="grib">
      <DetectionRule>
        <MatchFilename>TEST_*.grb</MatchFilename>
        <MatchSize>1024</MatchSize>
      </DetectionRule>
      <DetectionRule>
        <MatchExpression>1 == 1</MatchExpression>
      </DetectionRule>
      <ProductVariable name="count">
        <Init>1 + 2</Init>
      </ProductVariable>
      <Type>
        <Record>
          <Field name="header">
            <Integer>
              <BitSize>32</BitSize>
            </Integer>
          </Field>
        </Record>
      </Type>
    </ProductDefinition>
  </ProductType>
</ProductClass>
`

func TestParseProductClass(t *testing.T) {
	class, err := parseProductClass(strings.NewReader(sampleClassXML))
	if err != nil {
		t.Fatalf("parseProductClass: %v", err)
	}
	if class.Name != "TEST_CLASS" {
		t.Errorf("class name = %q, want TEST_CLASS", class.Name)
	}
	if class.Description != "A test product class" {
		t.Errorf("class description = %q", class.Description)
	}
	if len(class.Types) != 1 {
		t.Fatalf("got %d types, want 1", len(class.Types))
	}

	typ := class.Types[0]
	if typ.Name != "TEST_TYPE" {
		t.Errorf("type name = %q, want TEST_TYPE", typ.Name)
	}
	if len(typ.Definitions) != 1 {
		t.Fatalf("got %d definitions, want 1", len(typ.Definitions))
	}

	def := typ.Definitions[0]
	if def.Name != "test_product" || def.Format != "grib" {
		t.Errorf("definition = %+v", def)
	}
	if len(def.DetectionRules) != 2 {
		t.Fatalf("got %d detection rules, want 2", len(def.DetectionRules))
	}
	rule0 := def.DetectionRules[0]
	if len(rule0.Conditions) != 2 {
		t.Fatalf("rule 0: got %d conditions, want 2", len(rule0.Conditions))
	}
	if rule0.Conditions[0].Kind != MatchFilename || rule0.Conditions[0].Pattern != "TEST_*.grb" {
		t.Errorf("rule 0 condition 0 = %+v", rule0.Conditions[0])
	}
	if rule0.Conditions[1].Kind != MatchSize || rule0.Conditions[1].Size != 1024 {
		t.Errorf("rule 0 condition 1 = %+v", rule0.Conditions[1])
	}
	rule1 := def.DetectionRules[1]
	if len(rule1.Conditions) != 1 || rule1.Conditions[0].Kind != MatchExpression {
		t.Fatalf("rule 1 = %+v", rule1)
	}

	if len(def.Variables) != 1 || def.Variables[0].Name != "count" || def.Variables[0].Init == nil {
		t.Fatalf("variables = %+v", def.Variables)
	}
}

func TestParseProductClassSkipsTypeSubtree(t *testing.T) {
	// The <Type> subtree has its own nested Field/Attribute elements that
	// must not leak into the enclosing ProductDefinition's
	// DetectionRule/ProductVariable state; parsing the sample document to
	// completion without error, with the definition's RootType populated,
	// is the assertion here.
	class, err := parseProductClass(strings.NewReader(sampleClassXML))
	if err != nil {
		t.Fatalf("parseProductClass: %v", err)
	}
	def := class.Types[0].Definitions[0]
	if def.RootType == nil {
		t.Fatalf("definition RootType not populated")
	}
	rec, ok := def.RootType.(*types.Record)
	if !ok {
		t.Fatalf("RootType = %T, want *types.Record", def.RootType)
	}
	if rec.NumFields() != 1 || rec.Field(0).Name != "header" {
		t.Fatalf("RootType fields = %+v", rec)
	}
}

func TestParseProductClassMissingRoot(t *testing.T) {
	_, err := parseProductClass(strings.NewReader(`<NotAProductClass/>`))
	if err == nil {
		t.Fatal("expected error for document with no ProductClass element")
	}
}
