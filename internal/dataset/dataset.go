// Package dataset loads the raw entities of one compute scope and indexes
// their normalised projections.
package dataset

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/railmap/internal/ctxlog"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/payload"
	"github.com/specialistvlad/railmap/internal/store"
)

// Dataset is the read-only input of one scope computation. Records are kept
// in id order.
type Dataset struct {
	Key       model.ScopeKey
	Routes    []model.RouteRecord
	Platforms []model.PlatformRecord
	Stations  []model.StationRecord
	Tracks    []model.TrackRecord
	// Skipped counts rows per kind whose payload could not be normalised.
	Skipped map[model.RecordKind]int

	routes    map[string]int
	platforms map[string]int
	stations  map[string]int
}

// New assembles a dataset from already normalised records.
func New(key model.ScopeKey, routes []model.RouteRecord, platforms []model.PlatformRecord, stations []model.StationRecord, tracks []model.TrackRecord) *Dataset {
	d := &Dataset{
		Key:       key,
		Routes:    append([]model.RouteRecord(nil), routes...),
		Platforms: append([]model.PlatformRecord(nil), platforms...),
		Stations:  append([]model.StationRecord(nil), stations...),
		Tracks:    append([]model.TrackRecord(nil), tracks...),
		Skipped:   make(map[model.RecordKind]int),
	}
	sort.SliceStable(d.Routes, func(i, j int) bool { return d.Routes[i].ID < d.Routes[j].ID })
	sort.SliceStable(d.Platforms, func(i, j int) bool { return d.Platforms[i].ID < d.Platforms[j].ID })
	sort.SliceStable(d.Stations, func(i, j int) bool { return d.Stations[i].ID < d.Stations[j].ID })

	d.routes = make(map[string]int, len(d.Routes))
	for i, r := range d.Routes {
		d.routes[r.ID] = i
	}
	d.platforms = make(map[string]int, len(d.Platforms))
	for i, p := range d.Platforms {
		d.platforms[p.ID] = i
	}
	d.stations = make(map[string]int, len(d.Stations))
	for i, s := range d.Stations {
		d.stations[s.ID] = i
	}
	return d
}

// Load reads the four record kinds of the scope. Rows that fail to
// normalise are counted in Skipped and left out.
func Load(ctx context.Context, src store.SourceStore, key model.ScopeKey) (*Dataset, error) {
	logger := ctxlog.FromContext(ctx)
	rows := make(map[model.RecordKind][]model.SourceRecord, len(model.RecordKinds))
	for _, kind := range model.RecordKinds {
		recs, err := src.ListRecords(ctx, key, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s for scope %s: %w", kind, key, err)
		}
		rows[kind] = recs
	}

	skipped := make(map[model.RecordKind]int)
	routes := decodeAll(rows[model.KindRoute], payload.DecodeRoute, func(r model.RouteRecord) string { return r.ID }, func() { skipped[model.KindRoute]++ })
	platforms := decodeAll(rows[model.KindPlatform], payload.DecodePlatform, func(p model.PlatformRecord) string { return p.ID }, func() { skipped[model.KindPlatform]++ })
	stations := decodeAll(rows[model.KindStation], payload.DecodeStation, func(s model.StationRecord) string { return s.ID }, func() { skipped[model.KindStation]++ })

	tracks := make([]model.TrackRecord, 0, len(rows[model.KindTrack]))
	for _, r := range rows[model.KindTrack] {
		tracks = append(tracks, model.TrackRecord{ID: r.EntityID, Payload: r.Payload})
	}

	d := New(key, routes, platforms, stations, tracks)
	for k, v := range skipped {
		d.Skipped[k] = v
	}
	logger.Debug("Dataset loaded.",
		"scope", key.String(),
		"routes", len(d.Routes),
		"platforms", len(d.Platforms),
		"stations", len(d.Stations),
		"tracks", len(d.Tracks),
		"skipped", d.SkippedTotal(),
	)
	return d, nil
}

func decodeAll[T any](rows []model.SourceRecord, decode func(model.SourceRecord) (T, error), id func(T) string, skip func()) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := decode(row)
		if err != nil || id(v) == "" {
			skip()
			continue
		}
		out = append(out, v)
	}
	return out
}

// Route returns the route with the given id.
func (d *Dataset) Route(id string) (model.RouteRecord, bool) {
	i, ok := d.routes[id]
	if !ok {
		return model.RouteRecord{}, false
	}
	return d.Routes[i], true
}

// Platform returns the platform with the given id.
func (d *Dataset) Platform(id string) (model.PlatformRecord, bool) {
	i, ok := d.platforms[id]
	if !ok {
		return model.PlatformRecord{}, false
	}
	return d.Platforms[i], true
}

// Station returns the station with the given id.
func (d *Dataset) Station(id string) (model.StationRecord, bool) {
	i, ok := d.stations[id]
	if !ok {
		return model.StationRecord{}, false
	}
	return d.Stations[i], true
}

// SkippedTotal is the number of rows dropped during normalisation.
func (d *Dataset) SkippedTotal() int {
	n := 0
	for _, v := range d.Skipped {
		n += v
	}
	return n
}
