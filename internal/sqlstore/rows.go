package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/specialistvlad/railmap/internal/model"
	"gorm.io/datatypes"
)

type scopeColumns struct {
	ServerID         string `gorm:"column:server_id;type:varchar(128);primaryKey"`
	NetworkVariant   string `gorm:"column:network_variant;type:varchar(128);primaryKey"`
	DimensionContext string `gorm:"column:dimension_context;type:varchar(128);primaryKey"`
}

func columnsOf(k model.ScopeKey) scopeColumns {
	return scopeColumns{ServerID: k.ServerID, NetworkVariant: k.NetworkVariant, DimensionContext: k.DimensionContext}
}

func (c scopeColumns) key() model.ScopeKey {
	return model.ScopeKey{ServerID: c.ServerID, NetworkVariant: c.NetworkVariant, DimensionContext: c.DimensionContext}
}

type sourceRow struct {
	scopeColumns
	Kind          string         `gorm:"column:kind;type:varchar(32);primaryKey"`
	EntityID      string         `gorm:"column:entity_id;type:varchar(128);primaryKey"`
	Name          string         `gorm:"column:name;type:text"`
	Color         string         `gorm:"column:color;type:varchar(32)"`
	Payload       datatypes.JSON `gorm:"column:payload"`
	UpdatedUnixMs int64          `gorm:"column:updated_unix_ms;not null;default:0;index"`
}

func (sourceRow) TableName() string { return "source_records" }

type scopeRow struct {
	scopeColumns
	Status         string `gorm:"column:status;type:varchar(16);not null;index"`
	Fingerprint    string `gorm:"column:fingerprint;type:text"`
	ErrorMessage   string `gorm:"column:error_message;type:text"`
	ClaimedUnixMs  int64  `gorm:"column:claimed_unix_ms;not null;default:0"`
	ComputedUnixMs int64  `gorm:"column:computed_unix_ms;not null;default:0"`
}

func (scopeRow) TableName() string { return "compute_scopes" }

type routeRow struct {
	scopeColumns
	RouteID         string         `gorm:"column:route_id;type:varchar(128);primaryKey"`
	RouteName       string         `gorm:"column:route_name;type:text"`
	Color           string         `gorm:"column:color;type:varchar(32)"`
	Status          string         `gorm:"column:status;type:varchar(16);not null"`
	Source          string         `gorm:"column:source;type:varchar(16)"`
	Paths           datatypes.JSON `gorm:"column:paths"`
	Bounds          datatypes.JSON `gorm:"column:bounds"`
	Stops           datatypes.JSON `gorm:"column:stops"`
	NodePath        datatypes.JSON `gorm:"column:node_path"`
	Edges           datatypes.JSON `gorm:"column:edges"`
	Fingerprint     string         `gorm:"column:fingerprint;type:text"`
	FailureReason   string         `gorm:"column:failure_reason;type:varchar(64)"`
	ErrorMessage    string         `gorm:"column:error_message;type:text"`
	GeneratedUnixMs int64          `gorm:"column:generated_unix_ms;not null;default:0"`
}

func (routeRow) TableName() string { return "route_snapshots" }

type stationRow struct {
	scopeColumns
	StationID       string         `gorm:"column:station_id;type:varchar(128);primaryKey"`
	Lines           datatypes.JSON `gorm:"column:lines"`
	Fingerprint     string         `gorm:"column:fingerprint;type:text"`
	GeneratedUnixMs int64          `gorm:"column:generated_unix_ms;not null;default:0"`
}

func (stationRow) TableName() string { return "station_snapshots" }

func unixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func toSourceRow(key model.ScopeKey, r model.SourceRecord) sourceRow {
	return sourceRow{
		scopeColumns:  columnsOf(key),
		Kind:          string(r.Kind),
		EntityID:      r.EntityID,
		Name:          r.Name,
		Color:         r.Color,
		Payload:       datatypes.JSON(r.Payload),
		UpdatedUnixMs: unixMs(r.UpdatedAt),
	}
}

func (r sourceRow) record() model.SourceRecord {
	return model.SourceRecord{
		EntityID:  r.EntityID,
		Kind:      model.RecordKind(r.Kind),
		Payload:   json.RawMessage(r.Payload),
		Name:      r.Name,
		Color:     r.Color,
		UpdatedAt: fromUnixMs(r.UpdatedUnixMs),
	}
}

func toScopeRow(s model.ScopeState) scopeRow {
	return scopeRow{
		scopeColumns:   columnsOf(s.Key),
		Status:         string(s.Status),
		Fingerprint:    s.Fingerprint,
		ErrorMessage:   s.ErrorMessage,
		ClaimedUnixMs:  unixMs(s.ClaimedAt),
		ComputedUnixMs: unixMs(s.ComputedAt),
	}
}

func (r scopeRow) state() model.ScopeState {
	return model.ScopeState{
		Key:          r.key(),
		Status:       model.ScopeStatus(r.Status),
		Fingerprint:  r.Fingerprint,
		ErrorMessage: r.ErrorMessage,
		ClaimedAt:    fromUnixMs(r.ClaimedUnixMs),
		ComputedAt:   fromUnixMs(r.ComputedUnixMs),
	}
}

func toRouteRow(s model.RouteGeometrySnapshot) (routeRow, error) {
	row := routeRow{
		scopeColumns:    columnsOf(s.Scope),
		RouteID:         s.RouteID,
		RouteName:       s.RouteName,
		Color:           s.Color,
		Status:          string(s.Status),
		Source:          string(s.Source),
		Fingerprint:     s.Fingerprint,
		FailureReason:   s.FailureReason,
		ErrorMessage:    s.ErrorMessage,
		GeneratedUnixMs: unixMs(s.GeneratedAt),
	}
	var err error
	if row.Paths, err = encode(s.Paths); err != nil {
		return row, fmt.Errorf("encode paths: %w", err)
	}
	if s.Bounds != nil {
		if row.Bounds, err = encode(s.Bounds); err != nil {
			return row, fmt.Errorf("encode bounds: %w", err)
		}
	}
	if row.Stops, err = encode(s.Stops); err != nil {
		return row, fmt.Errorf("encode stops: %w", err)
	}
	if row.NodePath, err = encode(s.NodePath); err != nil {
		return row, fmt.Errorf("encode node path: %w", err)
	}
	if row.Edges, err = encode(s.Edges); err != nil {
		return row, fmt.Errorf("encode edges: %w", err)
	}
	return row, nil
}

func (r routeRow) snapshot() (model.RouteGeometrySnapshot, error) {
	s := model.RouteGeometrySnapshot{
		Scope:         r.key(),
		RouteID:       r.RouteID,
		RouteName:     r.RouteName,
		Color:         r.Color,
		Status:        model.SnapshotStatus(r.Status),
		Source:        model.GeometrySource(r.Source),
		Fingerprint:   r.Fingerprint,
		FailureReason: r.FailureReason,
		ErrorMessage:  r.ErrorMessage,
		GeneratedAt:   fromUnixMs(r.GeneratedUnixMs),
	}
	if err := decode(r.Paths, &s.Paths); err != nil {
		return s, fmt.Errorf("decode paths of route %s: %w", r.RouteID, err)
	}
	if len(r.Bounds) > 0 {
		s.Bounds = new(orb.Bound)
		if err := decode(r.Bounds, s.Bounds); err != nil {
			return s, fmt.Errorf("decode bounds of route %s: %w", r.RouteID, err)
		}
	}
	if err := decode(r.Stops, &s.Stops); err != nil {
		return s, fmt.Errorf("decode stops of route %s: %w", r.RouteID, err)
	}
	if err := decode(r.NodePath, &s.NodePath); err != nil {
		return s, fmt.Errorf("decode node path of route %s: %w", r.RouteID, err)
	}
	if err := decode(r.Edges, &s.Edges); err != nil {
		return s, fmt.Errorf("decode edges of route %s: %w", r.RouteID, err)
	}
	return s, nil
}

func toStationRow(s model.StationMapSnapshot) (stationRow, error) {
	lines, err := encode(s.Lines)
	if err != nil {
		return stationRow{}, fmt.Errorf("encode lines: %w", err)
	}
	return stationRow{
		scopeColumns:    columnsOf(s.Scope),
		StationID:       s.StationID,
		Lines:           lines,
		Fingerprint:     s.Fingerprint,
		GeneratedUnixMs: unixMs(s.GeneratedAt),
	}, nil
}

func (r stationRow) snapshot() (model.StationMapSnapshot, error) {
	s := model.StationMapSnapshot{
		Scope:       r.key(),
		StationID:   r.StationID,
		Fingerprint: r.Fingerprint,
		GeneratedAt: fromUnixMs(r.GeneratedUnixMs),
	}
	if err := decode(r.Lines, &s.Lines); err != nil {
		return s, fmt.Errorf("decode lines of station %s: %w", r.StationID, err)
	}
	return s, nil
}

func encode(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func decode(b datatypes.JSON, v any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}
