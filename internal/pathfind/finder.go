package pathfind

import (
	"container/heap"
	"math"
	"sync"

	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/railgraph"
)

// DefaultVisitCap bounds the number of nodes one segment search may finalise.
const DefaultVisitCap = 200_000

// FailureReason explains why a search produced no path.
type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonStartNotInGraph  FailureReason = "start-nodes-not-in-graph"
	ReasonTargetNotInGraph FailureReason = "target-nodes-not-in-graph"
	ReasonNoPath           FailureReason = "no-path"
	ReasonVisitCapExceeded FailureReason = "visit-cap-exceeded"
)

// Options configures a Finder.
type Options struct {
	// VisitCap is the per-segment node visit limit. Zero selects DefaultVisitCap.
	VisitCap int
}

// Path is the result of one segment search.
type Path struct {
	Nodes   []railgraph.NodeID
	Cost    float64
	Visited int
}

// RouteResult is a stitched multi-stop path.
type RouteResult struct {
	Nodes     []railgraph.NodeID
	Positions []model.Position
	Edges     []model.EdgeRecord
	Segments  int
	Failure   FailureReason
	// FailedSegment is the index of the segment that failed, or -1.
	FailedSegment int
}

// OK reports whether every segment was found.
func (r RouteResult) OK() bool { return r.Failure == ReasonNone }

// Finder runs segment searches over one graph and tracks edge reuse.
type Finder struct {
	g        *railgraph.Graph
	visitCap int

	mu          sync.RWMutex
	density     map[railgraph.UndirectedKey]float64
	lastFailure FailureReason
}

// NewFinder creates a finder with density seeded from the graph's branching.
func NewFinder(g *railgraph.Graph, opts Options) *Finder {
	f := &Finder{
		g:        g,
		visitCap: opts.VisitCap,
		density:  make(map[railgraph.UndirectedKey]float64),
	}
	if f.visitCap <= 0 {
		f.visitCap = DefaultVisitCap
	}
	for i := 0; i < g.Len(); i++ {
		u := railgraph.NodeID(i)
		for _, v := range g.Neighbors(u) {
			if v < u {
				continue
			}
			seed := (g.Degree(u) - 2) + (g.Degree(v) - 2)
			if seed > 0 {
				f.density[railgraph.EdgeKey{From: u, To: v}.Undirected()] = float64(seed)
			}
		}
	}
	return f
}

// LastFailure returns the reason of the most recent failed search.
func (f *Finder) LastFailure() FailureReason {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastFailure
}

// Density returns the current reuse density of an undirected edge.
func (f *Finder) Density(a, b railgraph.NodeID) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.density[railgraph.EdgeKey{From: a, To: b}.Undirected()]
}

// FindPathBetween searches from any node of src to any node of dst. It does
// not update edge density.
func (f *Finder) FindPathBetween(src, dst []railgraph.NodeID) (Path, FailureReason) {
	p, reason := f.search(src, dst)
	if reason != ReasonNone {
		f.fail(reason)
	}
	return p, reason
}

// FindRoute stitches a path through the stop groups in order. Every segment
// is seeded with all nodes of its source group, so consecutive segments may
// meet at different nodes of a shared group. Empty groups are ignored; with
// fewer than two remaining groups no search runs and the result holds at most
// one point.
func (f *Finder) FindRoute(groups [][]railgraph.NodeID) RouteResult {
	stops := make([][]railgraph.NodeID, 0, len(groups))
	for _, grp := range groups {
		if len(grp) > 0 {
			stops = append(stops, grp)
		}
	}
	res := RouteResult{FailedSegment: -1}
	if len(stops) < 2 {
		if len(stops) == 1 && f.g.Contains(stops[0][0]) {
			res.Nodes = []railgraph.NodeID{stops[0][0]}
			res.Positions = []model.Position{f.g.Position(stops[0][0])}
		}
		return res
	}

	for i := 1; i < len(stops); i++ {
		p, reason := f.search(stops[i-1], stops[i])
		if reason != ReasonNone {
			f.fail(reason)
			return RouteResult{Failure: reason, FailedSegment: i - 1, Segments: i - 1}
		}
		f.reinforce(p.Nodes)
		res.Nodes = appendCollapsed(res.Nodes, p.Nodes)
		res.Segments++
	}

	res.Positions = make([]model.Position, len(res.Nodes))
	for i, id := range res.Nodes {
		res.Positions[i] = f.g.Position(id)
	}
	for i := 0; i+1 < len(res.Nodes); i++ {
		res.Edges = append(res.Edges, f.g.EdgeRecord(res.Nodes[i], res.Nodes[i+1]))
	}
	return res
}

func (f *Finder) search(src, dst []railgraph.NodeID) (Path, FailureReason) {
	g := f.g
	sources := f.valid(src)
	if len(sources) == 0 {
		return Path{}, ReasonStartNotInGraph
	}
	targets := make(map[railgraph.NodeID]struct{}, len(dst))
	for _, id := range f.valid(dst) {
		targets[id] = struct{}{}
	}
	if len(targets) == 0 {
		return Path{}, ReasonTargetNotInGraph
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	n := g.Len()
	dist := make([]float64, n)
	prev := make([]railgraph.NodeID, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}

	pq := make(priorityQueue, 0, len(sources))
	for _, s := range sources {
		if dist[s] == 0 {
			continue
		}
		dist[s] = 0
		heap.Push(&pq, &queueItem{node: s})
	}

	visited := 0
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*queueItem)
		u := item.node
		if done[u] || item.cost > dist[u] {
			continue
		}
		done[u] = true
		visited++
		if _, ok := targets[u]; ok {
			return Path{Nodes: reconstruct(prev, u), Cost: dist[u], Visited: visited}, ReasonNone
		}
		if visited >= f.visitCap {
			return Path{Visited: visited}, ReasonVisitCapExceeded
		}
		for _, v := range g.Neighbors(u) {
			if done[v] {
				continue
			}
			cost := dist[u] + EdgeCost(g, u, v, f.density[railgraph.EdgeKey{From: u, To: v}.Undirected()])
			if cost < dist[v] {
				dist[v] = cost
				prev[v] = u
				heap.Push(&pq, &queueItem{node: v, cost: cost})
			}
		}
	}
	return Path{Visited: visited}, ReasonNoPath
}

func (f *Finder) valid(ids []railgraph.NodeID) []railgraph.NodeID {
	out := make([]railgraph.NodeID, 0, len(ids))
	for _, id := range ids {
		if f.g.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

func (f *Finder) reinforce(nodes []railgraph.NodeID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i+1 < len(nodes); i++ {
		f.density[railgraph.EdgeKey{From: nodes[i], To: nodes[i+1]}.Undirected()]++
	}
}

func (f *Finder) fail(reason FailureReason) {
	f.mu.Lock()
	f.lastFailure = reason
	f.mu.Unlock()
}

func reconstruct(prev []railgraph.NodeID, end railgraph.NodeID) []railgraph.NodeID {
	var out []railgraph.NodeID
	for at := end; at != -1; at = prev[at] {
		out = append(out, at)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// appendCollapsed appends seg to path, dropping repeats at the joint.
func appendCollapsed(path, seg []railgraph.NodeID) []railgraph.NodeID {
	for _, id := range seg {
		if len(path) > 0 && path[len(path)-1] == id {
			continue
		}
		path = append(path, id)
	}
	return path
}
