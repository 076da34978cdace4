package railgraph

import (
	"errors"

	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/payload"
)

// BuildStats summarises one graph build.
type BuildStats struct {
	Tracks             int
	SkippedNoPosition  int
	Malformed          int
	DroppedConnections int
	Nodes              int
	DirectedEdges      int
}

// Build aggregates all track records of a scope into one graph. It returns
// false when no track had a resolvable node position.
func Build(tracks []model.TrackRecord) (*Graph, BuildStats, bool) {
	stats := BuildStats{Tracks: len(tracks)}
	g := newGraph()

	for _, rec := range tracks {
		t, err := payload.DecodeTrack(rec.Payload)
		if err != nil {
			if errors.Is(err, payload.ErrNoPosition) {
				stats.SkippedNoPosition++
			} else {
				stats.Malformed++
			}
			continue
		}
		stats.DroppedConnections += t.Dropped
		from := g.addNode(t.Node)
		for _, pc := range t.Connections {
			if pc.Target == t.Node {
				stats.DroppedConnections++
				continue
			}
			to := g.addNode(pc.Target)
			fwd := Connection{
				To:                  to,
				RailType:            pc.RailType,
				TransportMode:       pc.TransportMode,
				YStart:              pc.YStart,
				YEnd:                pc.YEnd,
				VerticalCurveRadius: pc.VerticalCurveRadius,
				SecondaryDirection:  pc.SecondaryDirection,
				Primary:             curveFromPayload(pc.Primary),
				Secondary:           curveFromPayload(pc.Secondary),
			}
			fwd.Preferred = preferredVariant(fwd.Primary, fwd.Secondary)
			g.setConnection(from, fwd, true)
			g.setConnection(to, fwd.Reversed(from), false)
		}
	}

	stats.Nodes = g.Len()
	stats.DirectedEdges = g.EdgeCount()
	if g.Len() == 0 {
		return nil, stats, false
	}
	return g, stats, true
}
