package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/store"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Supported dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Store is a gorm-backed source and snapshot store.
type Store struct {
	db *gorm.DB
}

var (
	_ store.SourceStore   = (*Store)(nil)
	_ store.SnapshotStore = (*Store)(nil)
)

// Open connects to the database and migrates the schema. SQLite connections
// are limited to one so writers serialise instead of failing with SQLITE_BUSY.
func Open(dialect, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch dialect {
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("access sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db)
}

// New wraps an open gorm connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&sourceRow{}, &scopeRow{}, &routeRow{}, &stationRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func scoped(db *gorm.DB, key model.ScopeKey) *gorm.DB {
	return db.Where("server_id = ? AND network_variant = ? AND dimension_context = ?",
		key.ServerID, key.NetworkVariant, key.DimensionContext)
}

// PutRecords upserts source rows of one scope.
func (s *Store) PutRecords(ctx context.Context, key model.ScopeKey, recs ...model.SourceRecord) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]sourceRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, toSourceRow(key, r))
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&rows, 200).Error
	if err != nil {
		return fmt.Errorf("upsert source records: %w", err)
	}
	return nil
}

// DeleteRecord removes one source row.
func (s *Store) DeleteRecord(ctx context.Context, key model.ScopeKey, kind model.RecordKind, entityID string) error {
	err := scoped(s.db.WithContext(ctx), key).
		Where("kind = ? AND entity_id = ?", string(kind), entityID).
		Delete(&sourceRow{}).Error
	if err != nil {
		return fmt.Errorf("delete source record %s/%s: %w", kind, entityID, err)
	}
	return nil
}

// ListRecords returns the rows of one kind ordered by entity id.
func (s *Store) ListRecords(ctx context.Context, key model.ScopeKey, kind model.RecordKind) ([]model.SourceRecord, error) {
	var rows []sourceRow
	err := scoped(s.db.WithContext(ctx), key).
		Where("kind = ?", string(kind)).
		Order("entity_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	out := make([]model.SourceRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

// Aggregate returns the count and latest update of one kind.
func (s *Store) Aggregate(ctx context.Context, key model.ScopeKey, kind model.RecordKind) (store.Aggregate, error) {
	var agg struct {
		Count int64
		MaxMs int64
	}
	err := scoped(s.db.WithContext(ctx).Model(&sourceRow{}), key).
		Where("kind = ?", string(kind)).
		Select("COUNT(*) AS count, COALESCE(MAX(updated_unix_ms), 0) AS max_ms").
		Scan(&agg).Error
	if err != nil {
		return store.Aggregate{}, fmt.Errorf("aggregate %s: %w", kind, err)
	}
	return store.Aggregate{Count: int(agg.Count), MaxUpdated: fromUnixMs(agg.MaxMs)}, nil
}

// ListDimensions returns the dimension contexts with any rows.
func (s *Store) ListDimensions(ctx context.Context, serverID, variant string) ([]string, error) {
	var dims []string
	err := s.db.WithContext(ctx).Model(&sourceRow{}).
		Where("server_id = ? AND network_variant = ?", serverID, variant).
		Distinct("dimension_context").
		Order("dimension_context").
		Pluck("dimension_context", &dims).Error
	if err != nil {
		return nil, fmt.Errorf("list dimensions: %w", err)
	}
	return dims, nil
}

// GetScope returns the status row of a scope.
func (s *Store) GetScope(ctx context.Context, key model.ScopeKey) (model.ScopeState, error) {
	var row scopeRow
	err := scoped(s.db.WithContext(ctx), key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ScopeState{}, store.ErrNotFound
	}
	if err != nil {
		return model.ScopeState{}, fmt.Errorf("read scope %s: %w", key, err)
	}
	return row.state(), nil
}

// ClaimScope moves the scope into RUNNING unless another claimer holds it.
func (s *Store) ClaimScope(ctx context.Context, key model.ScopeKey, fingerprint string, now time.Time, allowRunning bool) (bool, error) {
	db := s.db.WithContext(ctx)
	claimed := scopeRow{
		scopeColumns:  columnsOf(key),
		Status:        string(model.ScopeRunning),
		Fingerprint:   fingerprint,
		ClaimedUnixMs: unixMs(now),
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&claimed)
	if res.Error != nil {
		return false, fmt.Errorf("insert scope claim: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var prev scopeRow
	if err := scoped(db, key).Take(&prev).Error; err != nil {
		return false, fmt.Errorf("read scope for claim: %w", err)
	}
	if prev.Status == string(model.ScopeRunning) && !allowRunning {
		return false, nil
	}
	res = scoped(db.Model(&scopeRow{}), key).
		Where("status = ? AND fingerprint = ? AND claimed_unix_ms = ?", prev.Status, prev.Fingerprint, prev.ClaimedUnixMs).
		Updates(map[string]any{
			"status":          string(model.ScopeRunning),
			"fingerprint":     fingerprint,
			"error_message":   "",
			"claimed_unix_ms": unixMs(now),
		})
	if res.Error != nil {
		return false, fmt.Errorf("update scope claim: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// FinishScope records the terminal state of a scope.
func (s *Store) FinishScope(ctx context.Context, state model.ScopeState) error {
	row := toScopeRow(state)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("write scope %s: %w", state.Key, err)
	}
	return nil
}

// UpsertRouteSnapshot writes a route snapshot.
func (s *Store) UpsertRouteSnapshot(ctx context.Context, snap model.RouteGeometrySnapshot) error {
	row, err := toRouteRow(snap)
	if err != nil {
		return fmt.Errorf("route %s: %w", snap.RouteID, err)
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert route snapshot %s: %w", snap.RouteID, err)
	}
	return nil
}

// GetRouteSnapshot returns one route snapshot.
func (s *Store) GetRouteSnapshot(ctx context.Context, key model.ScopeKey, routeID string) (model.RouteGeometrySnapshot, error) {
	var row routeRow
	err := scoped(s.db.WithContext(ctx), key).Where("route_id = ?", routeID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.RouteGeometrySnapshot{}, store.ErrNotFound
	}
	if err != nil {
		return model.RouteGeometrySnapshot{}, fmt.Errorf("read route snapshot %s: %w", routeID, err)
	}
	return row.snapshot()
}

// ListRouteSnapshots returns the scope's route snapshots ordered by route id.
func (s *Store) ListRouteSnapshots(ctx context.Context, key model.ScopeKey) ([]model.RouteGeometrySnapshot, error) {
	var rows []routeRow
	if err := scoped(s.db.WithContext(ctx), key).Order("route_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list route snapshots: %w", err)
	}
	out := make([]model.RouteGeometrySnapshot, 0, len(rows))
	for _, r := range rows {
		snap, err := r.snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// UpsertStationSnapshot writes a station map.
func (s *Store) UpsertStationSnapshot(ctx context.Context, snap model.StationMapSnapshot) error {
	row, err := toStationRow(snap)
	if err != nil {
		return fmt.Errorf("station %s: %w", snap.StationID, err)
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert station snapshot %s: %w", snap.StationID, err)
	}
	return nil
}

// GetStationSnapshot returns one station map.
func (s *Store) GetStationSnapshot(ctx context.Context, key model.ScopeKey, stationID string) (model.StationMapSnapshot, error) {
	var row stationRow
	err := scoped(s.db.WithContext(ctx), key).Where("station_id = ?", stationID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.StationMapSnapshot{}, store.ErrNotFound
	}
	if err != nil {
		return model.StationMapSnapshot{}, fmt.Errorf("read station snapshot %s: %w", stationID, err)
	}
	return row.snapshot()
}

// DeleteStationSnapshots removes station maps of the scope not listed in keep.
func (s *Store) DeleteStationSnapshots(ctx context.Context, key model.ScopeKey, keep []string) error {
	q := scoped(s.db.WithContext(ctx), key)
	if len(keep) > 0 {
		q = q.Where("station_id NOT IN ?", keep)
	}
	if err := q.Delete(&stationRow{}).Error; err != nil {
		return fmt.Errorf("prune station snapshots: %w", err)
	}
	return nil
}
