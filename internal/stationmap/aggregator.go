package stationmap

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/specialistvlad/railmap/internal/dataset"
	"github.com/specialistvlad/railmap/internal/geometry"
	"github.com/specialistvlad/railmap/internal/model"
)

// DefaultSplitDistance is the largest centre distance at which a route joins
// an existing bucket of its line.
const DefaultSplitDistance = 1500.0

// Options configures an Aggregator.
type Options struct {
	SplitDistance float64
}

// Aggregator builds station maps for one scope. Its indexes are computed once
// in New; it is safe for concurrent use afterwards.
type Aggregator struct {
	ds        *dataset.Dataset
	split     float64
	platforms map[string][]string // station id -> platform ids
	stations  map[string][]string // platform id -> station ids
	routes    map[string][]string // platform id -> route ids
}

// New indexes station, platform and route associations of the dataset.
func New(ds *dataset.Dataset, opts Options) *Aggregator {
	a := &Aggregator{
		ds:        ds,
		split:     opts.SplitDistance,
		platforms: make(map[string][]string),
		stations:  make(map[string][]string),
		routes:    make(map[string][]string),
	}
	if a.split <= 0 {
		a.split = DefaultSplitDistance
	}

	for _, st := range ds.Stations {
		for _, p := range ds.Platforms {
			if belongs(st, p) {
				a.platforms[st.ID] = append(a.platforms[st.ID], p.ID)
				a.stations[p.ID] = append(a.stations[p.ID], st.ID)
			}
		}
	}

	seen := make(map[[2]string]bool)
	link := func(platformID, routeID string) {
		k := [2]string{platformID, routeID}
		if seen[k] {
			return
		}
		seen[k] = true
		a.routes[platformID] = append(a.routes[platformID], routeID)
	}
	for _, r := range ds.Routes {
		for _, pid := range r.PlatformIDs {
			link(pid, r.ID)
		}
	}
	// Platforms may also declare their routes directly.
	for _, p := range ds.Platforms {
		for _, rid := range p.RouteIDs {
			if _, ok := ds.Route(rid); ok {
				link(p.ID, rid)
			}
		}
	}
	for pid := range a.routes {
		sort.Strings(a.routes[pid])
	}
	return a
}

// belongs reports whether a platform is part of a station, either by explicit
// linkage or because an endpoint or the midpoint lies inside the station box.
func belongs(st model.StationRecord, p model.PlatformRecord) bool {
	if p.StationID != "" && p.StationID == st.ID {
		return true
	}
	if st.Bounds == nil {
		return false
	}
	for _, e := range p.Endpoints() {
		if st.Bounds.ContainsXZ(float64(e.X), float64(e.Z)) {
			return true
		}
	}
	if x, z, ok := p.CenterXZ(); ok {
		return st.Bounds.ContainsXZ(x, z)
	}
	return false
}

// RoutesOf returns the ids of routes serving a station, sorted.
func (a *Aggregator) RoutesOf(stationID string) []string {
	set := make(map[string]struct{})
	for _, pid := range a.platforms[stationID] {
		for _, rid := range a.routes[pid] {
			set[rid] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// StationsOf returns the ids of stations a route serves, sorted.
func (a *Aggregator) StationsOf(routeID string) []string {
	set := make(map[string]struct{})
	for pid, rids := range a.routes {
		for _, rid := range rids {
			if rid != routeID {
				continue
			}
			for _, sid := range a.stations[pid] {
				set[sid] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

// Build aggregates the READY route snapshots serving a station. Routes
// without a usable snapshot are left out.
func (a *Aggregator) Build(station model.StationRecord, snaps map[string]model.RouteGeometrySnapshot, fingerprint string, now time.Time) model.StationMapSnapshot {
	out := model.StationMapSnapshot{
		Scope:       a.ds.Key,
		StationID:   station.ID,
		Fingerprint: fingerprint,
		GeneratedAt: now,
		Lines:       []model.LineBucket{},
	}

	groups := make(map[string][]*bucket)
	var keys []string
	for _, rid := range a.RoutesOf(station.ID) {
		snap, ok := snaps[rid]
		if !ok || snap.Status != model.SnapshotReady {
			continue
		}
		name := a.routeName(rid, snap)
		key := LineKey(name)
		if key == "" {
			key = "route:" + rid
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = a.place(groups[key], key, name, snap)
	}

	for _, key := range keys {
		for _, b := range groups[key] {
			out.Lines = append(out.Lines, b.line)
		}
	}
	sort.SliceStable(out.Lines, func(i, j int) bool {
		li, lj := out.Lines[i], out.Lines[j]
		if li.DisplayName != lj.DisplayName {
			return li.DisplayName < lj.DisplayName
		}
		return li.RouteIDs[0] < lj.RouteIDs[0]
	})
	return out
}

func (a *Aggregator) routeName(routeID string, snap model.RouteGeometrySnapshot) string {
	if snap.RouteName != "" {
		return snap.RouteName
	}
	if r, ok := a.ds.Route(routeID); ok && r.Name != "" {
		return r.Name
	}
	return routeID
}

type bucket struct {
	line  model.LineBucket
	stops map[string]struct{}
}

// place adds a route to the nearest bucket of its line within the split
// distance, or opens a new bucket.
func (a *Aggregator) place(buckets []*bucket, key, name string, snap model.RouteGeometrySnapshot) []*bucket {
	target := a.nearest(buckets, snap)
	if target == nil {
		bk := key
		if n := len(buckets); n > 0 {
			bk = fmt.Sprintf("%s#%d", key, n+1)
		}
		target = &bucket{
			line:  model.LineBucket{Key: bk, DisplayName: DisplayName(name)},
			stops: make(map[string]struct{}),
		}
		if target.line.DisplayName == "" {
			target.line.DisplayName = snap.RouteID
		}
		buckets = append(buckets, target)
	}
	target.add(snap)
	return buckets
}

// nearest returns the bucket whose centre is closest to the route's, within
// the split distance. Routes without any geometry join the first bucket.
func (a *Aggregator) nearest(buckets []*bucket, snap model.RouteGeometrySnapshot) *bucket {
	if len(buckets) == 0 {
		return nil
	}
	center, ok := centerOf(snap)
	if !ok {
		return buckets[0]
	}
	var target *bucket
	best := math.Inf(1)
	for _, b := range buckets {
		if b.line.Bounds == nil {
			continue
		}
		if d := distance(center, b.line.Bounds.Center()); d <= a.split && d < best {
			target, best = b, d
		}
	}
	return target
}

func (b *bucket) add(snap model.RouteGeometrySnapshot) {
	b.line.RouteIDs = append(b.line.RouteIDs, snap.RouteID)
	if b.line.Color == "" {
		b.line.Color = snap.Color
	}
	b.line.Paths = append(b.line.Paths, snap.Paths...)
	b.line.Bounds = geometry.Union(b.line.Bounds, snap.Bounds)
	for _, s := range snap.Stops {
		k := stopKey(s)
		if _, dup := b.stops[k]; dup {
			continue
		}
		b.stops[k] = struct{}{}
		b.line.Stops = append(b.line.Stops, s)
	}
}

func stopKey(s model.StopMarker) string {
	if s.StationID != "" {
		return "station:" + s.StationID
	}
	return fmt.Sprintf("pos:%g,%g:%s", s.Point[0], s.Point[1], s.Label)
}

func centerOf(snap model.RouteGeometrySnapshot) (orb.Point, bool) {
	if snap.Bounds != nil {
		return snap.Bounds.Center(), true
	}
	pts := make([]orb.Point, 0, len(snap.Stops))
	for _, s := range snap.Stops {
		pts = append(pts, s.Point)
	}
	if b := geometry.Bound(pts); b != nil {
		return b.Center(), true
	}
	return orb.Point{}, false
}

func distance(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
