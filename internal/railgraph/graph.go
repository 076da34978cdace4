package railgraph

import (
	"github.com/specialistvlad/railmap/internal/model"
)

// NodeID is an index into the graph's node arena.
type NodeID int32

// Node is one rail node: a position and its neighbour set.
type Node struct {
	Pos model.Position
	Adj []NodeID
}

// EdgeKey identifies one direction of a rail.
type EdgeKey struct {
	From NodeID
	To   NodeID
}

// UndirectedKey identifies a rail regardless of direction.
type UndirectedKey struct {
	A NodeID
	B NodeID
}

// Undirected returns the direction-agnostic key of the edge.
func (k EdgeKey) Undirected() UndirectedKey {
	if k.From <= k.To {
		return UndirectedKey{A: k.From, B: k.To}
	}
	return UndirectedKey{A: k.To, B: k.From}
}

// Graph is the rail graph of one scope. It is immutable once built and safe
// for concurrent readers.
type Graph struct {
	nodes    []Node
	index    map[model.Position]NodeID
	conns    map[EdgeKey]*Connection
	declared map[EdgeKey]bool
}

func newGraph() *Graph {
	return &Graph{
		index:    make(map[model.Position]NodeID),
		conns:    make(map[EdgeKey]*Connection),
		declared: make(map[EdgeKey]bool),
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of directed connections.
func (g *Graph) EdgeCount() int { return len(g.conns) }

// Contains reports whether id is a node of g.
func (g *Graph) Contains(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Position returns the coordinates of a node.
func (g *Graph) Position(id NodeID) model.Position {
	return g.nodes[id].Pos
}

// Lookup resolves a position to its node, if one exists.
func (g *Graph) Lookup(p model.Position) (NodeID, bool) {
	id, ok := g.index[p]
	return id, ok
}

// Neighbors returns the adjacency set of a node. Callers must not modify it.
func (g *Graph) Neighbors(id NodeID) []NodeID {
	return g.nodes[id].Adj
}

// Degree returns the number of distinct neighbours of a node.
func (g *Graph) Degree(id NodeID) int {
	return len(g.nodes[id].Adj)
}

// Connection returns the metadata for traversing from -> to.
func (g *Graph) Connection(from, to NodeID) (*Connection, bool) {
	c, ok := g.conns[EdgeKey{From: from, To: to}]
	return c, ok
}

// EdgeRecord converts a traversal into its persisted form.
func (g *Graph) EdgeRecord(from, to NodeID) model.EdgeRecord {
	rec := model.EdgeRecord{From: g.Position(from), To: g.Position(to)}
	c, ok := g.Connection(from, to)
	if !ok {
		return rec
	}
	rec.RailType = c.RailType
	rec.TransportMode = c.TransportMode
	rec.YStart = c.YStart
	rec.YEnd = c.YEnd
	rec.VerticalCurveRadius = c.VerticalCurveRadius
	rec.SecondaryDirection = c.SecondaryDirection
	rec.Primary = c.Primary.info()
	rec.Secondary = c.Secondary.info()
	rec.Preferred = c.Preferred.String()
	return rec
}

func (g *Graph) addNode(p model.Position) NodeID {
	if id, ok := g.index[p]; ok {
		return id
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{Pos: p})
	g.index[p] = id
	return id
}

// setConnection stores one direction of a rail. Derived (reversed) metadata
// never overwrites metadata declared by the owning track.
func (g *Graph) setConnection(from NodeID, c Connection, declared bool) {
	key := EdgeKey{From: from, To: c.To}
	if _, exists := g.conns[key]; exists {
		if g.declared[key] && !declared {
			return
		}
	} else {
		g.nodes[from].Adj = append(g.nodes[from].Adj, c.To)
	}
	conn := c
	g.conns[key] = &conn
	if declared {
		g.declared[key] = true
	}
}
