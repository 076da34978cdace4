// Package scope decides when a compute scope needs recomputation and runs it
// under the scope's exclusive claim.
//
// One attempt walks this state machine:
//
//	fingerprint → existing row?
//	  SUCCEEDED with same fingerprint → SKIPPED_UNCHANGED (unless forced)
//	  RUNNING                         → SKIPPED_RUNNING (unless reclaiming)
//	  otherwise claim                 → lost race: SKIPPED_LOCKED
//	claimed → load, compute, commit   → SUCCEEDED | FAILED
//
// The claim in the snapshot store is the only mutual exclusion. Any number of
// triggers may target the same scope; at most one of them computes it.
package scope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/railmap/internal/compute"
	"github.com/specialistvlad/railmap/internal/ctxlog"
	"github.com/specialistvlad/railmap/internal/dataset"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/notify"
	"github.com/specialistvlad/railmap/internal/store"
)

// ErrRouteNotFound is returned when a targeted route is not in the scope.
var ErrRouteNotFound = errors.New("route not found in scope")

// Options modifies one compute attempt.
type Options struct {
	// Force recomputes even when the fingerprint is unchanged.
	Force bool
	// Reclaim also takes over a scope left RUNNING, e.g. by a crashed process.
	Reclaim bool
}

// Result reports one compute attempt.
type Result struct {
	Key         model.ScopeKey
	Outcome     model.Outcome
	Fingerprint string
	Commit      compute.CommitResult
	Err         error
	Duration    time.Duration
}

// Config wires an Orchestrator.
type Config struct {
	Source    store.SourceStore
	Snapshots store.SnapshotStore
	Pipeline  *compute.Pipeline
	Publisher notify.Publisher
	Now       func() time.Time
}

// Orchestrator computes scopes and single routes.
type Orchestrator struct {
	source    store.SourceStore
	snapshots store.SnapshotStore
	pipeline  *compute.Pipeline
	publisher notify.Publisher
	now       func() time.Time
}

// New creates an Orchestrator. Publisher and Now are optional.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		source:    cfg.Source,
		snapshots: cfg.Snapshots,
		pipeline:  cfg.Pipeline,
		publisher: cfg.Publisher,
		now:       cfg.Now,
	}
	if o.publisher == nil {
		o.publisher = notify.Nop{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.pipeline == nil {
		o.pipeline = compute.New(compute.Options{}, o.now)
	}
	return o
}

// Sweep computes every dimension of a server's network variant, one scope at
// a time. A failing scope is recorded in its Result and does not stop the sweep.
func (o *Orchestrator) Sweep(ctx context.Context, serverID, variant string, opts Options) ([]Result, error) {
	logger := ctxlog.FromContext(ctx)
	dims, err := o.source.ListDimensions(ctx, serverID, variant)
	if err != nil {
		return nil, fmt.Errorf("list dimensions for %s/%s: %w", serverID, variant, err)
	}
	logger.Info("Starting sweep.", "server", serverID, "variant", variant, "scopes", len(dims))

	results := make([]Result, 0, len(dims))
	for _, dim := range dims {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		key := model.ScopeKey{ServerID: serverID, NetworkVariant: variant, DimensionContext: dim}
		res, err := o.ComputeScope(ctx, key, opts)
		if err != nil {
			logger.Error("Scope failed.", "scope", key.String(), "error", err)
		}
		results = append(results, res)
	}
	logger.Info("Sweep finished.", "server", serverID, "variant", variant, "scopes", len(results))
	return results, nil
}

// ComputeScope runs one attempt of the scope state machine. The returned
// error is non-nil only when the outcome is FAILED.
func (o *Orchestrator) ComputeScope(ctx context.Context, key model.ScopeKey, opts Options) (Result, error) {
	ctx, logger := ctxlog.With(ctx, "scope", key.String())
	start := o.now()
	res := Result{Key: key}
	finish := func(outcome model.Outcome, err error) (Result, error) {
		res.Outcome = outcome
		res.Err = err
		res.Duration = o.now().Sub(start)
		logger.Info("Scope attempt finished.",
			"outcome", outcome,
			"fingerprint", res.Fingerprint,
			"routes", res.Commit.Routes,
			"stations", res.Commit.Stations,
			"failedRoutes", res.Commit.FailedRoutes,
			"duration", res.Duration,
		)
		if !outcome.Skipped() {
			o.publish(ctx, res)
		}
		return res, err
	}

	fp, err := Fingerprint(ctx, o.source, key)
	if err != nil {
		return finish(model.OutcomeFailed, err)
	}
	res.Fingerprint = fp

	state, err := o.snapshots.GetScope(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return finish(model.OutcomeFailed, fmt.Errorf("read scope state: %w", err))
	case state.Status == model.ScopeRunning && !opts.Reclaim:
		return finish(model.OutcomeSkippedRunning, nil)
	case state.Status == model.ScopeSucceeded && state.Fingerprint == fp && !opts.Force:
		return finish(model.OutcomeSkippedUnchanged, nil)
	}

	claimed, err := o.snapshots.ClaimScope(ctx, key, fp, o.now(), opts.Reclaim)
	if err != nil {
		return finish(model.OutcomeFailed, fmt.Errorf("claim scope: %w", err))
	}
	if !claimed {
		return finish(model.OutcomeSkippedLocked, nil)
	}
	logger.Debug("Scope claimed.", "fingerprint", fp)

	commit, runErr := o.run(ctx, key, fp)
	res.Commit = commit

	final := model.ScopeState{Key: key, Status: model.ScopeSucceeded, Fingerprint: fp, ComputedAt: o.now()}
	if runErr != nil {
		final.Status = model.ScopeFailed
		final.ErrorMessage = runErr.Error()
		final.ComputedAt = state.ComputedAt
	}
	// The terminal state is recorded even if ctx was cancelled mid-compute.
	if err := o.snapshots.FinishScope(context.WithoutCancel(ctx), final); err != nil {
		return finish(model.OutcomeFailed, errors.Join(runErr, fmt.Errorf("record scope state: %w", err)))
	}
	if runErr != nil {
		return finish(model.OutcomeFailed, runErr)
	}
	return finish(model.OutcomeComputed, nil)
}

// run loads, computes and commits a claimed scope. Panics are returned as errors.
func (o *Orchestrator) run(ctx context.Context, key model.ScopeKey, fp string) (commit compute.CommitResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during scope compute: %v", r)
		}
	}()

	ds, err := dataset.Load(ctx, o.source, key)
	if err != nil {
		return commit, err
	}
	stage, err := o.pipeline.Run(ctx, ds, fp)
	if err != nil {
		return commit, err
	}
	return stage.Commit(ctx, o.snapshots)
}

// ComputeRoute recomputes a single route regardless of the scope's
// fingerprint, persists it, then rebuilds the station maps of the stations it
// serves from the stored route snapshots. It does not take the scope claim.
func (o *Orchestrator) ComputeRoute(ctx context.Context, key model.ScopeKey, routeID string) (model.RouteGeometrySnapshot, error) {
	ctx, logger := ctxlog.With(ctx, "scope", key.String(), "route", routeID)

	ds, err := dataset.Load(ctx, o.source, key)
	if err != nil {
		return model.RouteGeometrySnapshot{}, err
	}
	route, ok := ds.Route(routeID)
	if !ok {
		return model.RouteGeometrySnapshot{}, fmt.Errorf("%w: %s", ErrRouteNotFound, routeID)
	}
	fp, err := Fingerprint(ctx, o.source, key)
	if err != nil {
		return model.RouteGeometrySnapshot{}, err
	}

	prep := o.pipeline.Prepare(ctx, ds, fp)
	snap := prep.Geometry.Compute(ctx, route)
	if err := o.snapshots.UpsertRouteSnapshot(ctx, snap); err != nil {
		return snap, fmt.Errorf("write route snapshot: %w", err)
	}

	stored, err := o.snapshots.ListRouteSnapshots(ctx, key)
	if err != nil {
		return snap, fmt.Errorf("list route snapshots: %w", err)
	}
	byRoute := compute.ByRoute(stored)
	byRoute[snap.RouteID] = snap

	var stations []model.StationRecord
	for _, id := range prep.Stations.StationsOf(routeID) {
		if st, ok := ds.Station(id); ok {
			stations = append(stations, st)
		}
	}
	maps, err := o.pipeline.StationMaps(ctx, prep, stations, byRoute, fp)
	if err != nil {
		return snap, err
	}
	for _, m := range maps {
		if err := o.snapshots.UpsertStationSnapshot(ctx, m); err != nil {
			logger.Error("Failed to write station snapshot.", "station", m.StationID, "error", err)
		}
	}
	logger.Info("Route recomputed.", "status", snap.Status, "source", snap.Source, "stations", len(maps))
	return snap, nil
}

func (o *Orchestrator) publish(ctx context.Context, res Result) {
	ev := notify.Event{
		Scope:        res.Key,
		Outcome:      res.Outcome,
		Fingerprint:  res.Fingerprint,
		Routes:       res.Commit.Routes,
		Stations:     res.Commit.Stations,
		FailedRoutes: res.Commit.FailedRoutes,
		At:           o.now(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	if err := o.publisher.Publish(ctx, ev); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to publish scope event.", "error", err)
	}
}
