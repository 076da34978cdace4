// Package geometry turns a route record into its persisted geometry
// snapshot: a 2D path on the (x, z) plane, its bounds and stop markers.
package geometry

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/specialistvlad/railmap/internal/ctxlog"
	"github.com/specialistvlad/railmap/internal/dataset"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/pathfind"
	"github.com/specialistvlad/railmap/internal/railgraph"
)

// Reasons recorded on snapshots that did not use the graph.
const (
	ReasonNoPlatforms      = "route-has-no-platforms"
	ReasonGraphUnavailable = "graph-unavailable"
	ReasonTooFewStops      = "too-few-snapped-stops"
)

// Config wires a Computer to one scope's inputs. Graph and Finder are nil
// when the scope has no usable track data.
type Config struct {
	Dataset     *dataset.Dataset
	Graph       *railgraph.Graph
	Finder      *pathfind.Finder
	Snaps       railgraph.SnapIndex
	Fingerprint string
	Now         func() time.Time
}

// Computer produces route snapshots for one scope. It is safe for concurrent use.
type Computer struct {
	cfg Config
}

// New creates a Computer.
func New(cfg Config) *Computer {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Computer{cfg: cfg}
}

// Trace is the outcome of one route's graph search.
type Trace struct {
	// Positions is the stitched graph path; it has at least two points when
	// the search succeeded.
	Positions []model.Position
	Edges     []model.EdgeRecord
	// Reason explains why the graph yielded no usable path.
	Reason string
	Err    error
}

// Compute builds the snapshot of one route. It never fails: errors and panics
// are captured as a FAILED snapshot carrying the message.
func (c *Computer) Compute(ctx context.Context, route model.RouteRecord) model.RouteGeometrySnapshot {
	var tr Trace
	if ctx.Err() == nil {
		tr = c.Trace(route)
	}
	return c.Assemble(ctx, route, tr)
}

// Trace runs the graph search of one route. Every successful search
// reinforces the finder's edge density, so the order of Trace calls shapes the
// paths of later routes.
func (c *Computer) Trace(route model.RouteRecord) (tr Trace) {
	defer func() {
		if r := recover(); r != nil {
			tr = Trace{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if len(route.PlatformIDs) == 0 {
		return Trace{Reason: ReasonNoPlatforms}
	}
	if c.cfg.Graph == nil || c.cfg.Finder == nil {
		return Trace{Reason: ReasonGraphUnavailable}
	}
	groups := make([][]railgraph.NodeID, 0, len(route.PlatformIDs))
	for _, id := range route.PlatformIDs {
		if nodes := c.cfg.Snaps[id]; len(nodes) > 0 {
			groups = append(groups, nodes)
		}
	}
	if len(groups) < 2 {
		return Trace{Reason: ReasonTooFewStops}
	}
	res := c.cfg.Finder.FindRoute(groups)
	if !res.OK() {
		return Trace{Reason: string(res.Failure)}
	}
	if len(res.Positions) < 2 {
		return Trace{Reason: ReasonTooFewStops}
	}
	return Trace{Positions: res.Positions, Edges: res.Edges}
}

// Assemble builds the snapshot of one route from its trace. It never fails:
// errors and panics are captured as a FAILED snapshot carrying the message.
func (c *Computer) Assemble(ctx context.Context, route model.RouteRecord, tr Trace) (snap model.RouteGeometrySnapshot) {
	logger := ctxlog.FromContext(ctx).With("route", route.ID)
	var now time.Time
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Route geometry panicked.", "panic", r)
			snap = c.failed(route, now, fmt.Errorf("panic: %v", r))
		}
	}()

	now = c.cfg.Now()
	snap, err := c.assemble(ctx, route, tr, now)
	if err != nil {
		logger.Warn("Route geometry failed.", "error", err)
		return c.failed(route, now, err)
	}
	logger.Debug("Route geometry computed.",
		"source", snap.Source,
		"points", len(snap.NodePath),
		"stops", len(snap.Stops),
		"reason", snap.FailureReason,
	)
	return snap
}

func (c *Computer) assemble(ctx context.Context, route model.RouteRecord, tr Trace, now time.Time) (model.RouteGeometrySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.RouteGeometrySnapshot{}, err
	}
	if tr.Err != nil {
		return model.RouteGeometrySnapshot{}, tr.Err
	}
	snap := c.base(route, now)
	snap.Status = model.SnapshotReady
	snap.Stops = c.stops(route)

	if len(route.PlatformIDs) == 0 {
		snap.Source = model.SourceFallback
		snap.FailureReason = ReasonNoPlatforms
		return snap, nil
	}

	if len(tr.Positions) >= 2 {
		snap.Source = model.SourceGraph
		snap.Paths = [][]orb.Point{Points(tr.Positions)}
		snap.Bounds = Bound(snap.Paths...)
		snap.NodePath = tr.Positions
		snap.Edges = tr.Edges
		return snap, nil
	}
	snap.FailureReason = tr.Reason

	snap.Source = model.SourceFallback
	if pts := c.fallbackPoints(route); len(pts) > 0 {
		snap.Paths = [][]orb.Point{pts}
	}
	snap.Bounds = Bound(snap.Paths...)
	return snap, nil
}

func (c *Computer) fallbackPoints(route model.RouteRecord) []orb.Point {
	var pts []orb.Point
	for _, id := range route.PlatformIDs {
		p, ok := c.cfg.Dataset.Platform(id)
		if !ok {
			continue
		}
		pt, ok := PlatformPoint(c.cfg.Dataset, p)
		if !ok {
			continue
		}
		if n := len(pts); n > 0 && pts[n-1] == pt {
			continue
		}
		pts = append(pts, pt)
	}
	return pts
}

func (c *Computer) stops(route model.RouteRecord) []model.StopMarker {
	var out []model.StopMarker
	for _, id := range route.PlatformIDs {
		p, ok := c.cfg.Dataset.Platform(id)
		if !ok {
			continue
		}
		pt, ok := PlatformPoint(c.cfg.Dataset, p)
		if !ok {
			continue
		}
		name := p.Name
		if st, ok := c.cfg.Dataset.Station(p.StationID); ok && st.Name != "" {
			name = st.Name
		}
		label := Label(name)
		if label == "" {
			continue
		}
		out = append(out, model.StopMarker{StationID: p.StationID, PlatformID: p.ID, Label: label, Point: pt})
	}
	return out
}

func (c *Computer) base(route model.RouteRecord, now time.Time) model.RouteGeometrySnapshot {
	return model.RouteGeometrySnapshot{
		Scope:       c.cfg.Dataset.Key,
		RouteID:     route.ID,
		RouteName:   route.Name,
		Color:       route.Color,
		Fingerprint: c.cfg.Fingerprint,
		GeneratedAt: now,
	}
}

func (c *Computer) failed(route model.RouteRecord, now time.Time, err error) model.RouteGeometrySnapshot {
	snap := c.base(route, now)
	snap.Status = model.SnapshotFailed
	snap.ErrorMessage = err.Error()
	return snap
}
