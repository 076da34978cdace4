// Package compute runs the derivation of one scope in three stages: compute
// everything in memory, stage the results, then commit them to a snapshot
// store. Computation never touches the store, so it can be tested without one.
package compute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/railmap/internal/ctxlog"
	"github.com/specialistvlad/railmap/internal/dataset"
	"github.com/specialistvlad/railmap/internal/executor"
	"github.com/specialistvlad/railmap/internal/geometry"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/pathfind"
	"github.com/specialistvlad/railmap/internal/railgraph"
	"github.com/specialistvlad/railmap/internal/stationmap"
	"github.com/specialistvlad/railmap/internal/store"
)

// Options tunes the pipeline.
type Options struct {
	Workers       int
	VisitCap      int
	MaxSnapRing   int
	SplitDistance float64
}

// Pipeline computes route and station snapshots for a scope.
type Pipeline struct {
	opts Options
	now  func() time.Time
}

// New creates a Pipeline. A nil clock selects time.Now.
func New(opts Options, now func() time.Time) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{opts: opts, now: now}
}

// Stage holds the in-memory results of one scope computation.
type Stage struct {
	Key         model.ScopeKey
	Fingerprint string
	Routes      []model.RouteGeometrySnapshot
	Stations    []model.StationMapSnapshot
	Graph       GraphStats
}

// GraphStats summarises graph construction and snapping for logs and diagnostics.
type GraphStats struct {
	Available bool
	Build     railgraph.BuildStats
	Snap      railgraph.SnapStats
}

// Prepared is a scope's dataset with its graph, snapping and finder ready
// for route computation.
type Prepared struct {
	Dataset  *dataset.Dataset
	Graph    *railgraph.Graph
	Snapped  []railgraph.SnappedPlatform
	Finder   *pathfind.Finder
	Stats    GraphStats
	Geometry *geometry.Computer
	Stations *stationmap.Aggregator
}

// Prepare builds the graph, snaps platforms and wires the per-scope computers.
func (p *Pipeline) Prepare(ctx context.Context, ds *dataset.Dataset, fingerprint string) *Prepared {
	logger := ctxlog.FromContext(ctx)
	prep := &Prepared{Dataset: ds}

	g, buildStats, ok := railgraph.Build(ds.Tracks)
	prep.Stats.Build = buildStats
	cfg := geometry.Config{Dataset: ds, Fingerprint: fingerprint, Now: p.now}
	if ok {
		snapped, snapStats := railgraph.NewSnapper(g, p.opts.MaxSnapRing).SnapPlatforms(ds.Platforms)
		prep.Graph = g
		prep.Snapped = snapped
		prep.Finder = pathfind.NewFinder(g, pathfind.Options{VisitCap: p.opts.VisitCap})
		prep.Stats.Available = true
		prep.Stats.Snap = snapStats
		cfg.Graph = g
		cfg.Finder = prep.Finder
		cfg.Snaps = railgraph.Index(snapped)
	}
	logger.Debug("Rail graph prepared.",
		"available", prep.Stats.Available,
		"nodes", buildStats.Nodes,
		"edges", buildStats.DirectedEdges,
		"tracksSkipped", buildStats.SkippedNoPosition+buildStats.Malformed,
		"endpointsSnapped", prep.Stats.Snap.Exact+prep.Stats.Snap.Snapped,
		"endpointsUnresolved", prep.Stats.Snap.Unresolved,
	)

	prep.Geometry = geometry.New(cfg)
	prep.Stations = stationmap.New(ds, stationmap.Options{SplitDistance: p.opts.SplitDistance})
	return prep
}

// Run computes every route of the dataset, then every station map. Graph
// searches run sequentially in dataset order so identical inputs give
// identical geometry; snapshot assembly and station maps use the pool.
func (p *Pipeline) Run(ctx context.Context, ds *dataset.Dataset, fingerprint string) (*Stage, error) {
	prep := p.Prepare(ctx, ds, fingerprint)
	stage := &Stage{
		Key:         ds.Key,
		Fingerprint: fingerprint,
		Routes:      make([]model.RouteGeometrySnapshot, len(ds.Routes)),
		Graph:       prep.Stats,
	}
	// Searches run in route order; each one reinforces the edge density that
	// the following searches see.
	traces := make([]geometry.Trace, len(ds.Routes))
	for i, route := range ds.Routes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("compute routes: %w", err)
		}
		traces[i] = prep.Geometry.Trace(route)
	}

	pool := executor.Pool{Workers: p.opts.Workers}
	err := pool.Run(ctx, len(ds.Routes), func(ctx context.Context, i int) error {
		stage.Routes[i] = prep.Geometry.Assemble(ctx, ds.Routes[i], traces[i])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("compute routes: %w", err)
	}

	stations, err := p.StationMaps(ctx, prep, ds.Stations, ByRoute(stage.Routes), fingerprint)
	if err != nil {
		return nil, err
	}
	stage.Stations = stations
	return stage, nil
}

// StationMaps aggregates the given stations from route snapshots.
func (p *Pipeline) StationMaps(ctx context.Context, prep *Prepared, stations []model.StationRecord, routes map[string]model.RouteGeometrySnapshot, fingerprint string) ([]model.StationMapSnapshot, error) {
	out := make([]model.StationMapSnapshot, len(stations))
	now := p.now()
	pool := executor.Pool{Workers: p.opts.Workers}
	err := pool.Run(ctx, len(stations), func(ctx context.Context, i int) error {
		out[i] = prep.Stations.Build(stations[i], routes, fingerprint, now)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("compute station maps: %w", err)
	}
	return out, nil
}

// CommitResult counts the rows a commit wrote.
type CommitResult struct {
	Routes       int
	Stations     int
	FailedRoutes int
	FailedWrites int
}

// Commit upserts one row per route and per station and prunes station maps
// of stations no longer in the scope. A failed write is logged and counted;
// it does not stop the remaining writes.
func (s *Stage) Commit(ctx context.Context, snapshots store.SnapshotStore) (CommitResult, error) {
	logger := ctxlog.FromContext(ctx)
	var (
		res  CommitResult
		errs []error
	)
	for _, snap := range s.Routes {
		if snap.Status == model.SnapshotFailed {
			res.FailedRoutes++
		}
		if err := snapshots.UpsertRouteSnapshot(ctx, snap); err != nil {
			logger.Error("Failed to write route snapshot.", "route", snap.RouteID, "error", err)
			res.FailedWrites++
			errs = append(errs, fmt.Errorf("route %s: %w", snap.RouteID, err))
			continue
		}
		res.Routes++
	}

	keep := make([]string, 0, len(s.Stations))
	for _, snap := range s.Stations {
		keep = append(keep, snap.StationID)
		if err := snapshots.UpsertStationSnapshot(ctx, snap); err != nil {
			logger.Error("Failed to write station snapshot.", "station", snap.StationID, "error", err)
			res.FailedWrites++
			errs = append(errs, fmt.Errorf("station %s: %w", snap.StationID, err))
			continue
		}
		res.Stations++
	}
	if err := snapshots.DeleteStationSnapshots(ctx, s.Key, keep); err != nil {
		logger.Warn("Failed to prune station snapshots.", "error", err)
		errs = append(errs, fmt.Errorf("prune station snapshots: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if res.Routes == 0 && res.Stations == 0 && len(errs) > 0 {
		return res, fmt.Errorf("commit scope %s: %w", s.Key, errors.Join(errs...))
	}
	return res, nil
}

// ByRoute indexes route snapshots by route id.
func ByRoute(snaps []model.RouteGeometrySnapshot) map[string]model.RouteGeometrySnapshot {
	out := make(map[string]model.RouteGeometrySnapshot, len(snaps))
	for _, s := range snaps {
		out[s.RouteID] = s
	}
	return out
}
