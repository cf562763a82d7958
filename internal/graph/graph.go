package graph

import (
	"fmt"

	"github.com/scigolib/bitproto/internal/model"
	"github.com/scigolib/bitproto/internal/xerrors"
)

// Graph is the DAG of spec.md §3.1: nodes are indices into the
// FinalTree's flat arena (no back pointers, no shared-ownership
// cycles, per spec.md §9), edges say "index i must be processed after
// index dependsOn[i][k]".
type Graph struct {
	Tree      *model.FinalTree
	DependsOn [][]int // DependsOn[i] = indices i must wait on
}

// Build walks every node's fwd_expr, bwd_expr, conditional predicates,
// length expression, and padding expressions, extracting #id / range /
// size() references per spec.md §4.2.
func Build(tree *model.FinalTree) (*Graph, error) {
	g := &Graph{Tree: tree, DependsOn: make([][]int, len(tree.Nodes))}

	for i, fn := range tree.Nodes {
		n := fn.Node
		seen := map[int]bool{}
		addDep := func(id string) error {
			idx, ok := tree.ByID[id]
			if !ok {
				return xerrors.New(xerrors.KindUnknownReference, xerrors.StagePlan, id, fmt.Errorf("unresolved node reference %q", id))
			}
			if idx == i || seen[idx] {
				return nil
			}
			seen[idx] = true
			g.DependsOn[i] = append(g.DependsOn[i], idx)
			return nil
		}

		texts := []string{n.LengthExpr, n.FwdExpr, n.BwdExpr}
		for _, cd := range n.ConditionalDeps {
			texts = append(texts, cd.Predicate)
			if cd.ConditionNodeID != "" {
				if err := addDep(cd.ConditionNodeID); err != nil {
					return nil, err
				}
			}
		}
		if n.Padding != nil {
			texts = append(texts, n.Padding.LengthExpr, n.Padding.ConditionExpr, n.Padding.Fill)
		}

		for _, text := range texts {
			if text == "" {
				continue
			}
			refs := collectRefs(text)
			sizeArg := map[string]bool{}
			for _, gID := range refs.groupSize {
				sizeArg[gID] = true
			}

			for _, r := range refs.plain {
				if _, leaf := tree.ByID[r]; !leaf && sizeArg[r] {
					continue // a group id, handled by addGroupSizeDeps below
				}
				if err := addDep(r); err != nil {
					return nil, err
				}
			}

			for _, pair := range refs.rangePair {
				if err := addRangeDeps(g, tree, i, pair[0], pair[1], seen); err != nil {
					return nil, err
				}
			}

			for _, gID := range refs.groupSize {
				addGroupSizeDeps(g, tree, i, gID, seen)
			}
		}
	}

	return g, nil
}

// addRangeDeps implements spec.md §3.1's range-dep: a reference
// fBetween(#A,#B) depends on every node whose [start_bit,end_bit] lies
// within [A.start_bit, B.end_bit], and requires A declared before B
// positionally (ErrorKind::RangeOrder otherwise).
func addRangeDeps(g *Graph, tree *model.FinalTree, i int, aID, bID string, seen map[int]bool) error {
	aIdx, ok := tree.ByID[aID]
	if !ok {
		return xerrors.New(xerrors.KindUnknownReference, xerrors.StagePlan, aID, fmt.Errorf("unresolved node reference %q", aID))
	}
	bIdx, ok := tree.ByID[bID]
	if !ok {
		return xerrors.New(xerrors.KindUnknownReference, xerrors.StagePlan, bID, fmt.Errorf("unresolved node reference %q", bID))
	}
	a := tree.Nodes[aIdx].Node
	b := tree.Nodes[bIdx].Node
	if a.StartBit > b.StartBit {
		return xerrors.New(xerrors.KindRangeOrder, xerrors.StagePlan, aID, fmt.Errorf("range endpoints %q and %q are out of positional order", aID, bID))
	}
	for j, fnj := range tree.Nodes {
		if fnj.Node.StartBit >= a.StartBit && fnj.Node.EndBit <= b.EndBit {
			if j == i || seen[j] {
				continue
			}
			seen[j] = true
			g.DependsOn[i] = append(g.DependsOn[i], j)
		}
	}
	return nil
}

// addGroupSizeDeps implements "for every size(#G) where G is a Group,
// it adds dependencies on G's materialised children" (spec.md §4.2).
// G's materialised children are the nodes inside the Container the
// finalizer records under G's id (clone leaf ids carry the template's own
// ids suffixed, e.g. "value_1", so they cannot be found by G's id alone).
func addGroupSizeDeps(g *Graph, tree *model.FinalTree, i int, groupID string, seen map[int]bool) {
	for _, c := range tree.Containers {
		if c.Path != groupID {
			continue
		}
		for j := c.StartIdx; j < c.EndIdx; j++ {
			if j == i || seen[j] {
				continue
			}
			seen[j] = true
			g.DependsOn[i] = append(g.DependsOn[i], j)
		}
	}
}
