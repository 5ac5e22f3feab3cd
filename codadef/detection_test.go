package codadef

import (
	"testing"

	"github.com/stcorp/coda-go/expr"
)

func mustParse(t *testing.T, src string) expr.Node {
	t.Helper()
	n, err := expr.Parse(src)
	if err != nil {
		t.Fatalf("expr.Parse(%q): %v", src, err)
	}
	return n
}

func TestRecognizeByFilenameAndSize(t *testing.T) {
	dict := NewDictionary()
	def := &ProductDefinition{
		Name: "d",
		DetectionRules: []DetectionRule{{
			Conditions: []Condition{
				{Kind: MatchFilename, Pattern: "TEST_*.grb"},
				{Kind: MatchSize, Size: 1024},
			},
		}},
	}
	dict.merge(&ProductClass{
		Name:  "X",
		Types: []*ProductType{{Name: "T", Definitions: []*ProductDefinition{def}}},
	})

	if got := dict.Recognize("TEST_001.grb", 1024, nil); got != def {
		t.Fatalf("Recognize matching file = %v, want %v", got, def)
	}
	if got := dict.Recognize("TEST_001.grb", 999, nil); got != nil {
		t.Fatalf("Recognize wrong size = %v, want nil", got)
	}
	if got := dict.Recognize("OTHER.grb", 1024, nil); got != nil {
		t.Fatalf("Recognize wrong name = %v, want nil", got)
	}
}

func TestRecognizeRequiresAllConditionsInARule(t *testing.T) {
	dict := NewDictionary()
	def := &ProductDefinition{
		Name: "d",
		DetectionRules: []DetectionRule{{
			Conditions: []Condition{
				{Kind: MatchFilename, Pattern: "*.dat"},
				{Kind: MatchSize, Size: 10},
			},
		}},
	}
	dict.merge(&ProductClass{Name: "X", Types: []*ProductType{{Name: "T", Definitions: []*ProductDefinition{def}}}})

	// Filename matches but size doesn't: whole rule fails (AND semantics).
	if got := dict.Recognize("a.dat", 11, nil); got != nil {
		t.Fatalf("Recognize = %v, want nil", got)
	}
}

func TestRecognizeAnyRuleMatches(t *testing.T) {
	dict := NewDictionary()
	def := &ProductDefinition{
		Name: "d",
		DetectionRules: []DetectionRule{
			{Conditions: []Condition{{Kind: MatchFilename, Pattern: "A*"}}},
			{Conditions: []Condition{{Kind: MatchFilename, Pattern: "B*"}}},
		},
	}
	dict.merge(&ProductClass{Name: "X", Types: []*ProductType{{Name: "T", Definitions: []*ProductDefinition{def}}}})

	if got := dict.Recognize("B_file.dat", 0, nil); got != def {
		t.Fatalf("Recognize = %v, want %v (second rule should match)", got, def)
	}
}

func TestRecognizeWithExpressionRequiresCursor(t *testing.T) {
	dict := NewDictionary()
	def := &ProductDefinition{
		Name: "d",
		DetectionRules: []DetectionRule{{
			Conditions: []Condition{{Kind: MatchExpression, Expression: mustParse(t, "1 == 1")}},
		}},
	}
	dict.merge(&ProductClass{Name: "X", Types: []*ProductType{{Name: "T", Definitions: []*ProductDefinition{def}}}})

	if got := dict.Recognize("anything", 0, nil); got != nil {
		t.Fatalf("Recognize without cursor = %v, want nil (expression conditions need a cursor)", got)
	}
}

func TestRecognizeNoDetectionRulesNeverMatches(t *testing.T) {
	dict := NewDictionary()
	def := &ProductDefinition{Name: "d"}
	dict.merge(&ProductClass{Name: "X", Types: []*ProductType{{Name: "T", Definitions: []*ProductDefinition{def}}}})

	if got := dict.Recognize("whatever", 0, nil); got != nil {
		t.Fatalf("Recognize with no detection rules = %v, want nil", got)
	}
}
