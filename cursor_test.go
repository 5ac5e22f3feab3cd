package coda

import (
	"testing"

	"github.com/stcorp/coda-go/dynamic"
	"github.com/stcorp/coda-go/errs"
	"github.com/stcorp/coda-go/types"
)

// buildS5Product builds the static/dynamic tree from spec.md §8 scenario
// S5: root: record { a: record { b: array[3] of int32 } }.
func buildS5Product(t *testing.T) *Product {
	t.Helper()

	int32Type := types.NewNumber(types.NumberInteger, types.ReadInt32, 32)
	arrayStatic := types.NewArray(int32Type, types.OrderC, types.ConstDimension(3))

	innerStatic := types.NewRecord()
	if err := innerStatic.AddField(types.Field{Name: "b", Type: arrayStatic}); err != nil {
		t.Fatal(err)
	}
	rootStatic := types.NewRecord()
	if err := rootStatic.AddField(types.Field{Name: "a", Type: innerStatic}); err != nil {
		t.Fatal(err)
	}

	elemTemplate := dynamic.NewScalar(int32Type, 0)
	arrayDyn := dynamic.NewArray(arrayStatic, 3, 0, 32)
	arrayDyn.ElementTemplate = elemTemplate

	innerDyn := dynamic.NewRecord(innerStatic)
	innerDyn.SetField(0, arrayDyn)
	rootDyn := dynamic.NewRecord(rootStatic)
	rootDyn.SetField(0, innerDyn)

	return &Product{
		filename:   "s5-test",
		format:     FormatCDF,
		rootStatic: rootStatic,
		rootDyn:    rootDyn,
		options:    DefaultOptions(),
	}
}

// TestNavigationPathAlgebra is Testable Property 1: goto(c, p) followed by
// goto_parent x depth(p) restores the cursor exactly (depth, type, index).
func TestNavigationPathAlgebra(t *testing.T) {
	p := buildS5Product(t)
	c := p.NewCursor()

	startDepth := c.GetDepth()
	startIndex := c.GetIndex()
	startType := c.GetType()

	if err := c.GotoRecordFieldByName("a"); err != nil {
		t.Fatalf("goto a: %v", err)
	}
	if err := c.GotoRecordFieldByName("b"); err != nil {
		t.Fatalf("goto b: %v", err)
	}
	if err := c.GotoArrayElementByIndex(2); err != nil {
		t.Fatalf("goto [2]: %v", err)
	}
	if idx := c.GetIndex(); idx != 2 {
		t.Fatalf("GetIndex() = %d, want 2", idx)
	}
	if depth := c.GetDepth(); depth != 3 {
		t.Fatalf("GetDepth() = %d, want 3", depth)
	}

	for i := 0; i < 3; i++ {
		if err := c.GotoParent(); err != nil {
			t.Fatalf("goto_parent %d: %v", i, err)
		}
	}

	if got := c.GetDepth(); got != startDepth {
		t.Errorf("depth after unwind = %d, want %d", got, startDepth)
	}
	if got := c.GetIndex(); got != startIndex {
		t.Errorf("index after unwind = %d, want %d", got, startIndex)
	}
	if got := c.GetType(); got != startType {
		t.Errorf("type after unwind changed")
	}
}

func TestGotoParentUnwindsOneLevelAtATime(t *testing.T) {
	p := buildS5Product(t)
	c := p.NewCursor()

	if err := c.GotoRecordFieldByName("a"); err != nil {
		t.Fatal(err)
	}
	if err := c.GotoRecordFieldByName("b"); err != nil {
		t.Fatal(err)
	}
	if err := c.GotoArrayElementByIndex(2); err != nil {
		t.Fatal(err)
	}
	if got := c.GetIndex(); got != 2 {
		t.Fatalf("GetIndex() = %d, want 2", got)
	}
	if err := c.GotoParent(); err != nil {
		t.Fatal(err)
	}
	if err := c.GotoParent(); err != nil {
		t.Fatal(err)
	}
	if got := c.GetDepth(); got != 1 {
		t.Fatalf("GetDepth() after two goto_parent = %d, want 1", got)
	}
}

// TestBoundaryChecks is Testable Property 6: with PerformBoundaryChecks
// on, goto_array_element outside [0, num_elements) fails with
// ArrayOutOfBounds and does not change the cursor.
func TestBoundaryChecks(t *testing.T) {
	p := buildS5Product(t)
	c := p.NewCursor()
	if err := c.GotoRecordFieldByName("a"); err != nil {
		t.Fatal(err)
	}
	if err := c.GotoRecordFieldByName("b"); err != nil {
		t.Fatal(err)
	}

	depthBefore := c.GetDepth()
	err := c.GotoArrayElementByIndex(3)
	if err == nil {
		t.Fatal("expected ArrayOutOfBounds error")
	}
	if !errs.Is(err, errs.ArrayOutOfBounds) {
		t.Fatalf("got error kind %v, want ArrayOutOfBounds", err)
	}
	if got := c.GetDepth(); got != depthBefore {
		t.Fatalf("depth changed after failed goto: %d, want %d", got, depthBefore)
	}

	err = c.GotoArrayElementByIndex(-1)
	if err == nil || !errs.Is(err, errs.ArrayOutOfBounds) {
		t.Fatalf("negative index: got %v, want ArrayOutOfBounds", err)
	}
}

func TestGotoParentAtRootFails(t *testing.T) {
	p := buildS5Product(t)
	c := p.NewCursor()
	if err := c.GotoParent(); err == nil {
		t.Fatal("expected error navigating above the root")
	}
}

func TestGotoRecordFieldByNameUnknownField(t *testing.T) {
	p := buildS5Product(t)
	c := p.NewCursor()
	if err := c.GotoRecordFieldByName("nonexistent"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := buildS5Product(t)
	c := p.NewCursor()
	if err := c.GotoRecordFieldByName("a"); err != nil {
		t.Fatal(err)
	}

	clone := c.Clone().(*Cursor)
	if err := clone.GotoRecordFieldByName("b"); err != nil {
		t.Fatal(err)
	}
	if clone.GetDepth() == c.GetDepth() {
		t.Fatal("clone's navigation leaked back into the original cursor")
	}
	if c.GetDepth() != 1 {
		t.Fatalf("original cursor depth changed: %d, want 1", c.GetDepth())
	}
}

func TestGotoAttributesFallsBackToEmptyRecord(t *testing.T) {
	p := buildS5Product(t)
	c := p.NewCursor()
	if err := c.GotoAttributes(); err != nil {
		t.Fatal(err)
	}
	n, err := c.GetNumElements()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("GetNumElements() on empty attributes = %d, want 0", n)
	}
}
