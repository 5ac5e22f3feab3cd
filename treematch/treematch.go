// Package treematch implements the path-template tree used to bind
// external items (e.g. comparator overrides) to cursor positions without
// needing the static type tree itself to carry that data (spec.md §4.11,
// C11).
//
// Grounded on the teacher's preference for small, purpose-built trees
// keyed on a handful of identifiers (saferwall/pe's directory-entry
// lookups by RVA) over a generic graph structure: nodes are identified by
// cursor steps alone (record-field index, array-element index, −1 for
// "attributes of parent"), and wildcard vs. exact-index children are two
// plain struct fields rather than a more general pattern-matching engine.
package treematch

// Step is one path-template element (spec.md §4.11's grammar:
// `[]` wildcard, `[N]` exact index, `/field`, `@attr`). A record field or
// a `@attr` marker is represented the same way an array uses an exact
// index, since the cursor itself encodes "attributes of parent" as
// index -1 (see coda.Cursor's frame.index).
type Step struct {
	// Index is the exact record-field or array-element index this step
	// matches, or -1 both for the "attributes of parent" marker and
	// (combined with Wildcard) for "don't care".
	Index int64

	// Wildcard marks an array step that matches every element ([] in the
	// path grammar), regardless of Index.
	Wildcard bool
}

// Node is one level of the tree: the items stored exactly at this node,
// plus the children reached by one more path step.
type Node struct {
	items []interface{}

	wildcard *Node
	children []indexedChild
}

type indexedChild struct {
	index int64
	node  *Node
}

// New returns an empty root node.
func New() *Node { return &Node{} }

func (n *Node) childFor(index int64, wildcard bool) *Node {
	if wildcard {
		if n.wildcard == nil {
			n.wildcard = &Node{}
		}
		return n.wildcard
	}
	for i := range n.children {
		if n.children[i].index == index {
			return n.children[i].node
		}
	}
	child := &Node{}
	n.children = append(n.children, indexedChild{index: index, node: child})
	return child
}

func (n *Node) childAt(index int64) *Node {
	for i := range n.children {
		if n.children[i].index == index {
			return n.children[i].node
		}
	}
	return nil
}

// AddItemForPath indexes item under the node reached by following path
// from n, creating intermediate nodes as needed, and appends it to that
// node's item list (later calls for the same path add additional items;
// GetItemForCursor returns the most recently added one).
func (n *Node) AddItemForPath(path []Step, item interface{}) {
	cur := n
	for _, step := range path {
		cur = cur.childFor(step.Index, step.Wildcard)
	}
	cur.items = append(cur.items, item)
}

// CursorFrame is the minimal per-level information GetItemForCursor needs
// from a navigation stack; coda.Cursor frames satisfy this shape directly.
type CursorFrame struct {
	Index int64
}

// GetItemForCursor walks n following frames in order, preferring an
// exact-index child over the wildcard child at each level (spec.md §4.11:
// "exact-index children take precedence over the wildcard child"), and
// returns the item list at the deepest node reached — specifically the
// last item added there, or nil if no path prefix matched anything.
func GetItemForCursor(root *Node, frames []CursorFrame) interface{} {
	cur := root
	var lastMatch *Node
	if len(cur.items) > 0 {
		lastMatch = cur
	}
	for _, f := range frames {
		var next *Node
		if child := cur.childAt(f.Index); child != nil {
			next = child
		} else if cur.wildcard != nil {
			next = cur.wildcard
		}
		if next == nil {
			break
		}
		cur = next
		if len(cur.items) > 0 {
			lastMatch = cur
		}
	}
	if lastMatch == nil {
		return nil
	}
	return lastMatch.items[len(lastMatch.items)-1]
}
