package codadef

import "testing"

func TestActiveDefinitionPicksHighestRevision(t *testing.T) {
	typ := &ProductType{
		Definitions: []*ProductDefinition{
			{Name: "p", Revision: 1},
			{Name: "p", Revision: 3},
			{Name: "p", Revision: 2},
			{Name: "other", Revision: 5},
		},
	}
	got := typ.activeDefinition("p")
	if got == nil || got.Revision != 3 {
		t.Fatalf("activeDefinition = %+v, want revision 3", got)
	}
}

// TestMergeRevisionPolicy is Testable Property 7: loading a product class
// whose archive-level Revision is higher than what's registered replaces
// the whole class; a Revision that is lower than or equal to what's
// registered is ignored outright, with no field-by-field merging.
func TestMergeRevisionPolicy(t *testing.T) {
	dict := NewDictionary()

	v1 := &ProductClass{
		Name:     "X",
		Revision: 1,
		Types: []*ProductType{{
			Name:        "T",
			Definitions: []*ProductDefinition{{Name: "d", Revision: 1, Format: "v1"}},
		}},
	}
	dict.merge(v1)
	if n := len(dict.Classes); n != 1 {
		t.Fatalf("after first merge: %d classes, want 1", n)
	}

	// Lower-or-equal revision: the whole incoming class is ignored.
	vSame := &ProductClass{
		Name:     "X",
		Revision: 1,
		Types: []*ProductType{{
			Name:        "T",
			Definitions: []*ProductDefinition{{Name: "d", Revision: 1, Format: "stale"}},
		}},
	}
	dict.merge(vSame)
	if n := len(dict.Classes); n != 1 {
		t.Fatalf("after no-op merge: %d classes, want 1", n)
	}
	active := dict.ClassByName("X").Types[0].activeDefinition("d")
	if active.Format != "v1" {
		t.Fatalf("active format = %q, want v1 (equal-or-lower revision must not replace)", active.Format)
	}

	// Higher revision: replaces the whole class.
	v2 := &ProductClass{
		Name:     "X",
		Revision: 2,
		Types: []*ProductType{{
			Name:        "T",
			Definitions: []*ProductDefinition{{Name: "d", Revision: 2, Format: "v2"}},
		}},
	}
	dict.merge(v2)
	if n := len(dict.Classes); n != 1 {
		t.Fatalf("after replacement merge: %d classes, want 1", n)
	}
	active = dict.ClassByName("X").Types[0].activeDefinition("d")
	if active.Format != "v2" {
		t.Fatalf("active format = %q, want v2", active.Format)
	}
}

func TestClassByNameMissing(t *testing.T) {
	dict := NewDictionary()
	if c := dict.ClassByName("nope"); c != nil {
		t.Fatalf("ClassByName(missing) = %+v, want nil", c)
	}
}
