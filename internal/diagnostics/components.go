package diagnostics

import (
	"github.com/specialistvlad/railmap/internal/railgraph"
)

// ComponentIndex assigns every node of a graph to a connected component.
// Component numbers are dense and ordered by their lowest node id.
type ComponentIndex struct {
	of      []int
	members [][]railgraph.NodeID
}

// Components partitions g into connected components.
func Components(g *railgraph.Graph) ComponentIndex {
	idx := ComponentIndex{of: make([]int, g.Len())}
	for i := range idx.of {
		idx.of[i] = -1
	}

	var queue []railgraph.NodeID
	for start := 0; start < g.Len(); start++ {
		if idx.of[start] >= 0 {
			continue
		}
		comp := len(idx.members)
		idx.of[start] = comp
		queue = append(queue[:0], railgraph.NodeID(start))
		var members []railgraph.NodeID
		for head := 0; head < len(queue); head++ {
			n := queue[head]
			members = append(members, n)
			for _, nb := range g.Neighbors(n) {
				if idx.of[nb] < 0 {
					idx.of[nb] = comp
					queue = append(queue, nb)
				}
			}
		}
		idx.members = append(idx.members, railgraph.SortedIDs(members))
	}
	return idx
}

// Count returns the number of components.
func (c ComponentIndex) Count() int { return len(c.members) }

// Of returns the component of a node, or -1 for ids outside the graph.
func (c ComponentIndex) Of(id railgraph.NodeID) int {
	if id < 0 || int(id) >= len(c.of) {
		return -1
	}
	return c.of[id]
}

// Members returns the nodes of a component in ascending id order. Callers
// must not modify it.
func (c ComponentIndex) Members(comp int) []railgraph.NodeID {
	if comp < 0 || comp >= len(c.members) {
		return nil
	}
	return c.members[comp]
}
