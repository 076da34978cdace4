package railgraph

import (
	"sort"

	"github.com/specialistvlad/railmap/internal/model"
)

// DefaultMaxRing is the largest ring radius searched around an endpoint's column.
const DefaultMaxRing = 8

type column struct {
	x int64
	z int64
}

// SnappedPlatform is a platform with its endpoints resolved to graph nodes.
type SnappedPlatform struct {
	PlatformID string
	Nodes      []NodeID
	Unresolved int
}

// SnapStats counts endpoint resolution results across a batch of platforms.
type SnapStats struct {
	Endpoints  int
	Exact      int
	Snapped    int
	Unresolved int
	Duplicates int
}

// Snapper resolves positions to nearby graph nodes.
type Snapper struct {
	g       *Graph
	maxRing int
	columns map[column][]NodeID
}

// NewSnapper indexes the graph's nodes by (x, z) column. A non-positive
// maxRing selects DefaultMaxRing.
func NewSnapper(g *Graph, maxRing int) *Snapper {
	if maxRing <= 0 {
		maxRing = DefaultMaxRing
	}
	s := &Snapper{g: g, maxRing: maxRing, columns: make(map[column][]NodeID)}
	for i := range g.nodes {
		p := g.nodes[i].Pos
		c := column{x: p.X, z: p.Z}
		s.columns[c] = append(s.columns[c], NodeID(i))
	}
	return s
}

// Snap resolves p to a node. exact is true when p is itself a node.
func (s *Snapper) Snap(p model.Position) (id NodeID, exact bool, ok bool) {
	if id, ok := s.g.Lookup(p); ok {
		return id, true, true
	}
	for r := 0; r <= s.maxRing; r++ {
		if id, ok := s.bestInRing(p, r); ok {
			return id, false, true
		}
	}
	return 0, false, false
}

// bestInRing scans the columns at Chebyshev distance r from p's column and
// returns the closest candidate by elevation, then horizontal distance, then
// position order.
func (s *Snapper) bestInRing(p model.Position, r int) (NodeID, bool) {
	var (
		best  NodeID
		found bool
	)
	rr := int64(r)
	consider := func(c column) {
		for _, id := range s.columns[c] {
			if !found || s.better(p, id, best) {
				best, found = id, true
			}
		}
	}
	if r == 0 {
		consider(column{x: p.X, z: p.Z})
		return best, found
	}
	for dx := -rr; dx <= rr; dx++ {
		consider(column{x: p.X + dx, z: p.Z - rr})
		consider(column{x: p.X + dx, z: p.Z + rr})
	}
	for dz := -rr + 1; dz <= rr-1; dz++ {
		consider(column{x: p.X - rr, z: p.Z + dz})
		consider(column{x: p.X + rr, z: p.Z + dz})
	}
	return best, found
}

func (s *Snapper) better(p model.Position, a, b NodeID) bool {
	pa, pb := s.g.Position(a), s.g.Position(b)
	if da, db := abs(pa.Y-p.Y), abs(pb.Y-p.Y); da != db {
		return da < db
	}
	if ha, hb := sq(pa.X-p.X)+sq(pa.Z-p.Z), sq(pb.X-p.X)+sq(pb.Z-p.Z); ha != hb {
		return ha < hb
	}
	return pa.Less(pb)
}

// SnapPlatforms resolves every platform's endpoints. A platform never snaps
// two endpoints to the same node. Output order follows input order.
func (s *Snapper) SnapPlatforms(platforms []model.PlatformRecord) ([]SnappedPlatform, SnapStats) {
	var stats SnapStats
	out := make([]SnappedPlatform, 0, len(platforms))
	for _, p := range platforms {
		sp := SnappedPlatform{PlatformID: p.ID}
		for _, e := range p.Endpoints() {
			stats.Endpoints++
			id, exact, ok := s.Snap(e)
			if !ok {
				stats.Unresolved++
				sp.Unresolved++
				continue
			}
			if containsNode(sp.Nodes, id) {
				stats.Duplicates++
				continue
			}
			if exact {
				stats.Exact++
			} else {
				stats.Snapped++
			}
			sp.Nodes = append(sp.Nodes, id)
		}
		out = append(out, sp)
	}
	return out, stats
}

// SnapIndex maps platform ids to their snapped nodes.
type SnapIndex map[string][]NodeID

// Index turns a snapping result into a lookup by platform id.
func Index(snapped []SnappedPlatform) SnapIndex {
	idx := make(SnapIndex, len(snapped))
	for _, sp := range snapped {
		idx[sp.PlatformID] = sp.Nodes
	}
	return idx
}

// SortedIDs returns ids sorted ascending; used where node sets need a stable order.
func SortedIDs(ids []NodeID) []NodeID {
	out := append([]NodeID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func containsNode(ids []NodeID, id NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func sq(v int64) int64 { return v * v }
