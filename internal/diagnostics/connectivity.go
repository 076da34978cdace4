package diagnostics

import (
	"math"
	"sort"

	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/railgraph"
)

// ReasonPlatformsDisconnected marks a route whose consecutive stops lie in
// different graph components.
const ReasonPlatformsDisconnected = "route_platforms_disconnected"

// NodePair is the closest pair of nodes found across a gap.
type NodePair struct {
	From     model.Position `json:"from"`
	To       model.Position `json:"to"`
	Distance float64        `json:"distance"`
}

// DisconnectedSegment is a stop-to-stop leg whose platforms share no component.
type DisconnectedSegment struct {
	Segment        int      `json:"segment"`
	FromPlatformID string   `json:"fromPlatformId"`
	ToPlatformID   string   `json:"toPlatformId"`
	FromComponent  int      `json:"fromComponent"`
	ToComponent    int      `json:"toComponent"`
	Nearest        NodePair `json:"nearest"`
}

// Connectivity describes how a route's stops map onto graph components.
type Connectivity struct {
	RouteID      string                `json:"routeId"`
	Components   []int                 `json:"components"`
	Unsnapped    []string              `json:"unsnapped,omitempty"`
	Reason       string                `json:"reason,omitempty"`
	Disconnected []DisconnectedSegment `json:"disconnected,omitempty"`
}

type stop struct {
	platformID string
	comps      map[int]struct{}
}

// RouteConnectivity checks that each consecutive pair of the route's snapped
// stops shares a component. Platforms without snapped nodes are listed in
// Unsnapped and skipped, so the legs around them are checked against the
// neighbouring snapped stops.
func RouteConnectivity(g *railgraph.Graph, comps ComponentIndex, route model.RouteRecord, snaps railgraph.SnapIndex) Connectivity {
	out := Connectivity{RouteID: route.ID, Components: []int{}}
	seen := make(map[int]struct{})

	var stops []stop
	for _, pid := range route.PlatformIDs {
		nodes := snaps[pid]
		if len(nodes) == 0 {
			out.Unsnapped = append(out.Unsnapped, pid)
			continue
		}
		s := stop{platformID: pid, comps: make(map[int]struct{})}
		for _, n := range nodes {
			c := comps.Of(n)
			if c < 0 {
				continue
			}
			s.comps[c] = struct{}{}
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out.Components = append(out.Components, c)
			}
		}
		if len(s.comps) == 0 {
			out.Unsnapped = append(out.Unsnapped, pid)
			continue
		}
		stops = append(stops, s)
	}
	sort.Ints(out.Components)

	for i := 0; i+1 < len(stops); i++ {
		a, b := stops[i], stops[i+1]
		if shares(a.comps, b.comps) {
			continue
		}
		pair, from, to := nearestPair(g, comps, a.comps, b.comps)
		out.Disconnected = append(out.Disconnected, DisconnectedSegment{
			Segment:        i,
			FromPlatformID: a.platformID,
			ToPlatformID:   b.platformID,
			FromComponent:  from,
			ToComponent:    to,
			Nearest:        pair,
		})
	}
	if len(out.Disconnected) > 0 {
		out.Reason = ReasonPlatformsDisconnected
	}
	return out
}

func shares(a, b map[int]struct{}) bool {
	for c := range a {
		if _, ok := b[c]; ok {
			return true
		}
	}
	return false
}

// nearestPair scans every node of the from-components against every node of
// the to-components. Ties keep the pair found first in ascending
// component and node order.
func nearestPair(g *railgraph.Graph, comps ComponentIndex, fromComps, toComps map[int]struct{}) (NodePair, int, int) {
	best := NodePair{Distance: math.Inf(1)}
	bestFrom, bestTo := -1, -1
	for _, fc := range sortedComps(fromComps) {
		for _, tc := range sortedComps(toComps) {
			for _, a := range comps.Members(fc) {
				pa := g.Position(a)
				for _, b := range comps.Members(tc) {
					pb := g.Position(b)
					if d := dist3(pa, pb); d < best.Distance {
						best = NodePair{From: pa, To: pb, Distance: d}
						bestFrom, bestTo = fc, tc
					}
				}
			}
		}
	}
	return best, bestFrom, bestTo
}

func sortedComps(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

func dist3(a, b model.Position) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	dz := float64(a.Z - b.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
