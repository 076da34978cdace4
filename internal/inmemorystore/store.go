package inmemorystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/store"
)

type entityKey struct {
	scope model.ScopeKey
	id    string
}

// Store is an in-memory source and snapshot store.
type Store struct {
	mu      sync.RWMutex
	records map[model.ScopeKey]map[model.RecordKind]map[string]model.SourceRecord

	scopes   sync.Map // Key: model.ScopeKey, Value: model.ScopeState
	routes   sync.Map // Key: entityKey, Value: model.RouteGeometrySnapshot
	stations sync.Map // Key: entityKey, Value: model.StationMapSnapshot
}

var (
	_ store.SourceStore   = (*Store)(nil)
	_ store.SnapshotStore = (*Store)(nil)
)

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{records: make(map[model.ScopeKey]map[model.RecordKind]map[string]model.SourceRecord)}
}

// PutRecords upserts source rows of one scope, keyed by kind and entity id.
func (s *Store) PutRecords(key model.ScopeKey, recs ...model.SourceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds, ok := s.records[key]
	if !ok {
		kinds = make(map[model.RecordKind]map[string]model.SourceRecord)
		s.records[key] = kinds
	}
	for _, r := range recs {
		rows, ok := kinds[r.Kind]
		if !ok {
			rows = make(map[string]model.SourceRecord)
			kinds[r.Kind] = rows
		}
		rows[r.EntityID] = r
	}
}

// DeleteRecord removes one source row.
func (s *Store) DeleteRecord(key model.ScopeKey, kind model.RecordKind, entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kinds, ok := s.records[key]; ok {
		delete(kinds[kind], entityID)
	}
}

// ListRecords returns the rows of one kind ordered by entity id.
func (s *Store) ListRecords(ctx context.Context, key model.ScopeKey, kind model.RecordKind) ([]model.SourceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.records[key][kind]
	out := make([]model.SourceRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

// Aggregate returns the count and latest update of one kind.
func (s *Store) Aggregate(ctx context.Context, key model.ScopeKey, kind model.RecordKind) (store.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var agg store.Aggregate
	for _, r := range s.records[key][kind] {
		agg.Count++
		if r.UpdatedAt.After(agg.MaxUpdated) {
			agg.MaxUpdated = r.UpdatedAt
		}
	}
	return agg, nil
}

// ListDimensions returns the dimension contexts with any rows.
func (s *Store) ListDimensions(ctx context.Context, serverID, variant string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for key, kinds := range s.records {
		if key.ServerID != serverID || key.NetworkVariant != variant {
			continue
		}
		for _, rows := range kinds {
			if len(rows) > 0 {
				out = append(out, key.DimensionContext)
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// GetScope returns the status row of a scope.
func (s *Store) GetScope(ctx context.Context, key model.ScopeKey) (model.ScopeState, error) {
	v, ok := s.scopes.Load(key)
	if !ok {
		return model.ScopeState{}, store.ErrNotFound
	}
	return v.(model.ScopeState), nil
}

// ClaimScope moves the scope into RUNNING unless another claimer holds it.
func (s *Store) ClaimScope(ctx context.Context, key model.ScopeKey, fingerprint string, now time.Time, allowRunning bool) (bool, error) {
	claimed := model.ScopeState{Key: key, Status: model.ScopeRunning, Fingerprint: fingerprint, ClaimedAt: now}

	current, loaded := s.scopes.LoadOrStore(key, claimed)
	if !loaded {
		return true, nil
	}
	prev := current.(model.ScopeState)
	if prev.Status == model.ScopeRunning && !allowRunning {
		return false, nil
	}
	claimed.ComputedAt = prev.ComputedAt
	return s.scopes.CompareAndSwap(key, prev, claimed), nil
}

// FinishScope records the terminal state of a scope.
func (s *Store) FinishScope(ctx context.Context, state model.ScopeState) error {
	s.scopes.Store(state.Key, state)
	return nil
}

// UpsertRouteSnapshot writes a route snapshot.
func (s *Store) UpsertRouteSnapshot(ctx context.Context, snap model.RouteGeometrySnapshot) error {
	s.routes.Store(entityKey{scope: snap.Scope, id: snap.RouteID}, snap)
	return nil
}

// GetRouteSnapshot returns one route snapshot.
func (s *Store) GetRouteSnapshot(ctx context.Context, key model.ScopeKey, routeID string) (model.RouteGeometrySnapshot, error) {
	v, ok := s.routes.Load(entityKey{scope: key, id: routeID})
	if !ok {
		return model.RouteGeometrySnapshot{}, store.ErrNotFound
	}
	return v.(model.RouteGeometrySnapshot), nil
}

// ListRouteSnapshots returns the scope's route snapshots ordered by route id.
func (s *Store) ListRouteSnapshots(ctx context.Context, key model.ScopeKey) ([]model.RouteGeometrySnapshot, error) {
	var out []model.RouteGeometrySnapshot
	s.routes.Range(func(k, v any) bool {
		if k.(entityKey).scope == key {
			out = append(out, v.(model.RouteGeometrySnapshot))
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RouteID < out[j].RouteID })
	return out, nil
}

// UpsertStationSnapshot writes a station map.
func (s *Store) UpsertStationSnapshot(ctx context.Context, snap model.StationMapSnapshot) error {
	s.stations.Store(entityKey{scope: snap.Scope, id: snap.StationID}, snap)
	return nil
}

// GetStationSnapshot returns one station map.
func (s *Store) GetStationSnapshot(ctx context.Context, key model.ScopeKey, stationID string) (model.StationMapSnapshot, error) {
	v, ok := s.stations.Load(entityKey{scope: key, id: stationID})
	if !ok {
		return model.StationMapSnapshot{}, store.ErrNotFound
	}
	return v.(model.StationMapSnapshot), nil
}

// DeleteStationSnapshots removes station maps of the scope not listed in keep.
func (s *Store) DeleteStationSnapshots(ctx context.Context, key model.ScopeKey, keep []string) error {
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	s.stations.Range(func(k, _ any) bool {
		ek := k.(entityKey)
		if ek.scope != key {
			return true
		}
		if _, ok := keepSet[ek.id]; !ok {
			s.stations.Delete(k)
		}
		return true
	})
	return nil
}
