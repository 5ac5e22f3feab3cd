package treematch

import "testing"

// TestWildcardVsExactIndexPrecedence verifies spec.md §4.11's invariant
// (Testable Property 8): for a tree with a wildcard child and an
// exact-index child for index i, a cursor visiting index i returns the
// exact-index item; any other index returns the wildcard item.
func TestWildcardVsExactIndexPrecedence(t *testing.T) {
	root := New()
	root.AddItemForPath([]Step{{Wildcard: true}}, "wildcard-item")
	root.AddItemForPath([]Step{{Index: 2}}, "exact-item")

	got := GetItemForCursor(root, []CursorFrame{{Index: 2}})
	if got != "exact-item" {
		t.Fatalf("index 2: got %v, want exact-item", got)
	}

	for _, idx := range []int64{0, 1, 3, 100} {
		got := GetItemForCursor(root, []CursorFrame{{Index: idx}})
		if got != "wildcard-item" {
			t.Fatalf("index %d: got %v, want wildcard-item", idx, got)
		}
	}
}

func TestMultiLevelPath(t *testing.T) {
	root := New()
	// /a (index 0) / [] (wildcard array element) @attr (-1)
	root.AddItemForPath([]Step{{Index: 0}, {Wildcard: true}, {Index: -1}}, "attr-override")

	got := GetItemForCursor(root, []CursorFrame{{Index: 0}, {Index: 5}, {Index: -1}})
	if got != "attr-override" {
		t.Fatalf("got %v, want attr-override", got)
	}

	// A path that diverges before reaching the leaf should fall back to
	// whatever was bound at the deepest common ancestor (none, here).
	got = GetItemForCursor(root, []CursorFrame{{Index: 1}})
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestLastItemWins(t *testing.T) {
	root := New()
	root.AddItemForPath([]Step{{Index: 0}}, "first")
	root.AddItemForPath([]Step{{Index: 0}}, "second")

	got := GetItemForCursor(root, []CursorFrame{{Index: 0}})
	if got != "second" {
		t.Fatalf("got %v, want second", got)
	}
}

func TestDeepestMatchWinsOverShallower(t *testing.T) {
	root := New()
	root.AddItemForPath([]Step{{Index: 0}}, "shallow")
	root.AddItemForPath([]Step{{Index: 0}, {Index: 1}}, "deep")

	got := GetItemForCursor(root, []CursorFrame{{Index: 0}, {Index: 1}})
	if got != "deep" {
		t.Fatalf("got %v, want deep", got)
	}

	// Visiting only the first level should return the shallow item.
	got = GetItemForCursor(root, []CursorFrame{{Index: 0}})
	if got != "shallow" {
		t.Fatalf("got %v, want shallow", got)
	}

	// Visiting past the deep match via an unindexed third level keeps the
	// deepest matched node's item (no node exists past depth 2).
	got = GetItemForCursor(root, []CursorFrame{{Index: 0}, {Index: 1}, {Index: 9}})
	if got != "deep" {
		t.Fatalf("got %v, want deep", got)
	}
}

func TestNoMatchReturnsNil(t *testing.T) {
	root := New()
	if got := GetItemForCursor(root, []CursorFrame{{Index: 0}}); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}
