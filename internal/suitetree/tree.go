// Package suitetree reconstructs the suite hierarchy from flat parent/order
// rows and plans reorder/re-parent moves that keep the forest acyclic.
//
// Suites are held in an arena keyed by id with a separate parent-to-children
// index rebuilt on construction; cycle checks walk the arena by id lookups
// rather than following live object references.
package suitetree

import (
	"sort"

	"github.com/qahub/qa-hub/internal/datastore"
)

// Tree is an immutable view over one repository's suites.
type Tree struct {
	arena    map[uint]datastore.Suite
	children map[uint][]uint // parent id -> ordered child ids
	roots    []uint
}

// Build constructs a forest from a flat suite collection. Suites with a nil
// parent are roots; a suite whose parent is missing from the input is
// dropped from the tree, not promoted to root. Children are sorted
// ascending by order with nil treated as 0, ties kept in input order.
func Build(suites []datastore.Suite) *Tree {
	t := &Tree{
		arena:    make(map[uint]datastore.Suite, len(suites)),
		children: make(map[uint][]uint),
	}

	for _, s := range suites {
		t.arena[s.ID] = s
	}

	for _, s := range suites {
		switch {
		case s.ParentID == nil:
			t.roots = append(t.roots, s.ID)
		default:
			if _, ok := t.arena[*s.ParentID]; !ok {
				continue // orphan
			}
			t.children[*s.ParentID] = append(t.children[*s.ParentID], s.ID)
		}
	}

	t.sortSiblings(t.roots)
	for parent := range t.children {
		t.sortSiblings(t.children[parent])
	}

	return t
}

func (t *Tree) sortSiblings(ids []uint) {
	sort.SliceStable(ids, func(i, j int) bool {
		return effectiveOrder(t.arena[ids[i]]) < effectiveOrder(t.arena[ids[j]])
	})
}

func effectiveOrder(s datastore.Suite) int {
	if s.Order == nil {
		return 0
	}
	return *s.Order
}

// Get returns the suite with the given id.
func (t *Tree) Get(id uint) (datastore.Suite, bool) {
	s, ok := t.arena[id]
	return s, ok
}

// Roots returns the root suites in sibling order.
func (t *Tree) Roots() []datastore.Suite {
	return t.suitesByID(t.roots)
}

// Children returns the ordered children of a suite.
func (t *Tree) Children(id uint) []datastore.Suite {
	return t.suitesByID(t.children[id])
}

func (t *Tree) suitesByID(ids []uint) []datastore.Suite {
	out := make([]datastore.Suite, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.arena[id])
	}
	return out
}

// IsDescendant reports whether candidate sits somewhere below ancestor,
// walking parent pointers from candidate upward through the arena.
func (t *Tree) IsDescendant(ancestorID, candidateID uint) bool {
	current, ok := t.arena[candidateID]
	if !ok {
		return false
	}
	for current.ParentID != nil {
		if *current.ParentID == ancestorID {
			return true
		}
		parent, ok := t.arena[*current.ParentID]
		if !ok {
			return false
		}
		current = parent
	}
	return false
}

// Node pairs a suite with its resolved children, for tree-shaped responses.
type Node struct {
	Suite    datastore.Suite `json:"suite"`
	Children []*Node         `json:"children,omitempty"`
}

// Nodes materializes the forest as nested nodes.
func (t *Tree) Nodes() []*Node {
	var build func(id uint) *Node
	build = func(id uint) *Node {
		n := &Node{Suite: t.arena[id]}
		for _, childID := range t.children[id] {
			n.Children = append(n.Children, build(childID))
		}
		return n
	}

	out := make([]*Node, 0, len(t.roots))
	for _, rootID := range t.roots {
		out = append(out, build(rootID))
	}
	return out
}
