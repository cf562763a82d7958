package graph

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/gammazero/deque"

	"github.com/scigolib/bitproto/internal/xerrors"
)

// TopoOrder computes a total order over g's nodes via Kahn's algorithm,
// breaking ties by declaration index so the result depends only on the
// finalised tree, never on map iteration order (spec.md §4.2).
//
// DependsOn[i] lists indices i must wait on, i.e. edges point from a
// dependant to its dependency; Kahn's algorithm here peels off nodes
// with no *unresolved dependency* (in-degree in the "depends on" sense)
// first, which is exactly the order the Derivation Driver needs: a
// referenced node is visited before the node that references it.
func TopoOrder(g *Graph) ([]int, error) {
	n := len(g.DependsOn)

	// dependents[j] = set of i such that i depends on j; used to decrement
	// in-degree as each j is resolved.
	dependents := make([][]int, n)
	inDegree := make([]int, n)
	for i, deps := range g.DependsOn {
		inDegree[i] = len(deps)
		for _, j := range deps {
			dependents[j] = append(dependents[j], i)
		}
	}

	ready := bitset.New(uint(n))
	q := deque.New[int]()
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			ready.Set(uint(i))
			q.PushBack(i)
		}
	}

	order := make([]int, 0, n)
	visited := bitset.New(uint(n))

	for q.Len() > 0 {
		// Pull the whole current ready frontier, sort by declaration
		// index for determinism, then push dependents that newly become
		// ready onto the back for the next frontier.
		frontier := make([]int, 0, q.Len())
		for q.Len() > 0 {
			frontier = append(frontier, q.PopFront())
		}
		sort.Slice(frontier, func(a, b int) bool {
			return g.Tree.Nodes[frontier[a]].DeclIndex < g.Tree.Nodes[frontier[b]].DeclIndex
		})
		for _, i := range frontier {
			if visited.Test(uint(i)) {
				continue
			}
			visited.Set(uint(i))
			order = append(order, i)
			for _, dep := range dependents[i] {
				inDegree[dep]--
				if inDegree[dep] == 0 && !ready.Test(uint(dep)) {
					ready.Set(uint(dep))
					q.PushBack(dep)
				}
			}
		}
	}

	if len(order) != n {
		scc := findCycleMembers(g, visited)
		return nil, xerrors.New(xerrors.KindCyclicDependency, xerrors.StagePlan, "",
			fmt.Errorf("cyclic dependency among nodes: %v", idsOf(g, scc)))
	}

	return order, nil
}

func idsOf(g *Graph, idxs []int) []string {
	out := make([]string, len(idxs))
	for i, idx := range idxs {
		out[i] = g.Tree.Nodes[idx].Node.ID
	}
	return out
}

// findCycleMembers returns every node index that never reached
// in-degree zero when Kahn's algorithm stalled: the members of every
// cycle plus every node that depends on one, directly or transitively.
func findCycleMembers(g *Graph, visited *bitset.BitSet) []int {
	var out []int
	for i := range g.DependsOn {
		if !visited.Test(uint(i)) {
			out = append(out, i)
		}
	}
	return out
}
