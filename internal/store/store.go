// Package store defines the seams between the compute core and the external
// persistence it reads raw entities from and writes snapshots to.
//
// # Two Stores
//
// The core talks to persistence through two interfaces:
//   - **SourceStore** is read-only. It serves the raw route, platform,
//     station and track rows of one scope, plus the cheap aggregates
//     (count and latest update) the fingerprint is built from.
//   - **SnapshotStore** owns everything the core writes: the per-scope
//     status row, route geometry snapshots and station map snapshots.
//
// A deployment may back both with the same database (see internal/sqlstore)
// or with process memory (see internal/inmemorystore).
//
// # Scope Status Row
//
// The status row is the only cross-process coordination point. Its
// lifecycle is:
//
//	absent → RUNNING → SUCCEEDED | FAILED → RUNNING → ...
//
// ClaimScope is the single transition into RUNNING and must be atomic with
// respect to other claimers of the same scope: a conditional update for
// existing rows and an insert for new ones. Losing either race is reported
// as (false, nil), never as an error.
//
// # Snapshot Writes
//
// Each snapshot is written with one upsert keyed by (scope, id). Readers
// therefore observe either the previous or the new snapshot, never a partial
// one.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/specialistvlad/railmap/internal/model"
)

// ErrNotFound is returned by lookups of rows that do not exist.
var ErrNotFound = errors.New("store: not found")

// Aggregate summarises one record kind of a scope.
type Aggregate struct {
	Count      int
	MaxUpdated time.Time
}

// SourceStore is the read side over raw synchronised entities.
//
// Thread-safety: Implementations MUST be safe for concurrent use.
type SourceStore interface {
	// ListRecords returns every row of one kind in the scope, ordered by
	// entity id so repeated loads see the same order.
	ListRecords(ctx context.Context, key model.ScopeKey, kind model.RecordKind) ([]model.SourceRecord, error)

	// Aggregate returns the row count and the latest update time of one kind.
	// An empty kind yields a zero Aggregate.
	Aggregate(ctx context.Context, key model.ScopeKey, kind model.RecordKind) (Aggregate, error)

	// ListDimensions returns the distinct dimension contexts that have any
	// source rows for the server and network variant, sorted ascending.
	ListDimensions(ctx context.Context, serverID, variant string) ([]string, error)
}

// SnapshotStore is the write side: scope status rows and derived snapshots.
//
// Thread-safety: Implementations MUST be safe for concurrent use, and
// ClaimScope MUST be atomic per scope.
type SnapshotStore interface {
	// GetScope returns the status row of a scope, or ErrNotFound.
	GetScope(ctx context.Context, key model.ScopeKey) (model.ScopeState, error)

	// ClaimScope moves the scope into RUNNING with the given fingerprint.
	//
	// Existing rows are claimed only when their status is not RUNNING, unless
	// allowRunning is set. A missing row is inserted. It reports false when
	// another claimer won, either because the conditional update affected no
	// rows or because the insert hit an existing row.
	ClaimScope(ctx context.Context, key model.ScopeKey, fingerprint string, now time.Time, allowRunning bool) (bool, error)

	// FinishScope records the terminal state of a claimed scope.
	FinishScope(ctx context.Context, state model.ScopeState) error

	// UpsertRouteSnapshot writes a route snapshot keyed by (scope, route id).
	UpsertRouteSnapshot(ctx context.Context, snap model.RouteGeometrySnapshot) error

	// GetRouteSnapshot returns one route snapshot, or ErrNotFound.
	GetRouteSnapshot(ctx context.Context, key model.ScopeKey, routeID string) (model.RouteGeometrySnapshot, error)

	// ListRouteSnapshots returns every route snapshot of a scope ordered by route id.
	ListRouteSnapshots(ctx context.Context, key model.ScopeKey) ([]model.RouteGeometrySnapshot, error)

	// UpsertStationSnapshot writes a station map keyed by (scope, station id).
	UpsertStationSnapshot(ctx context.Context, snap model.StationMapSnapshot) error

	// GetStationSnapshot returns one station map, or ErrNotFound.
	GetStationSnapshot(ctx context.Context, key model.ScopeKey, stationID string) (model.StationMapSnapshot, error)

	// DeleteStationSnapshots removes the scope's station maps whose station id
	// is not in keep.
	DeleteStationSnapshots(ctx context.Context, key model.ScopeKey, keep []string) error
}
