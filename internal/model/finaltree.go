package model

import "strings"

// FinalNode is a leaf Node after group expansion, with its final (suffixed)
// id/name and absolute bit position. DeclIndex is the node's position in
// the flattened declaration-order walk, used by the topo scheduler's
// tie-break rule (spec.md §3.1 TopoOrder).
type FinalNode struct {
	*Node
	DeclIndex int
}

// Container is a structural span (a Group's materialised children, or a
// Protocol section) whose total length is the sum of its enabled
// children's LengthBits plus any declared padding (spec.md §3.2 invariant).
// Containers never hold bits directly; no arena entry owns another by
// reference — only index ranges into FinalTree.Nodes (spec.md §9 design
// note: "no shared-ownership cycles").
type Container struct {
	Path     string // "<protocol id>.<section number>" for a section (e.g. "p.1" for p's body), the group's id for a group's span
	StartIdx int    // first index into FinalTree.Nodes, inclusive
	EndIdx   int    // last index, exclusive
	Padding  *PaddingSpec
}

// FinalTree is the Tree Finalizer's output: a flat, ordered node list with
// absolute bit positions, plus the container spans padding rules apply to.
type FinalTree struct {
	Nodes      []*FinalNode
	ByID       map[string]int
	Containers []*Container
	TotalBits  int
}

func NewFinalTree() *FinalTree {
	return &FinalTree{ByID: make(map[string]int)}
}

// Append adds a finalised node to the tree and indexes it by id.
func (t *FinalTree) Append(n *FinalNode) {
	t.ByID[n.Node.ID] = len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
}

// Find resolves a node id to its FinalNode, ignoring a leading
// "protocol:" qualifier if id is unambiguous without it.
func (t *FinalTree) Find(id string) (*FinalNode, bool) {
	if idx, ok := t.ByID[id]; ok {
		return t.Nodes[idx], true
	}
	if i := strings.LastIndex(id, ":"); i >= 0 {
		if idx, ok := t.ByID[id[i+1:]]; ok {
			return t.Nodes[idx], true
		}
	}
	return nil, false
}
