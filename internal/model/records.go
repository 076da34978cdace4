package model

import (
	"encoding/json"
	"time"
)

// RecordKind names one of the four source entity tables.
type RecordKind string

const (
	KindRoute    RecordKind = "routes"
	KindPlatform RecordKind = "platforms"
	KindStation  RecordKind = "stations"
	KindTrack    RecordKind = "tracks"
)

// RecordKinds is the fixed order used wherever all kinds are enumerated.
var RecordKinds = []RecordKind{KindRoute, KindPlatform, KindStation, KindTrack}

// SourceRecord is a raw entity row as returned by the source store.
type SourceRecord struct {
	EntityID  string
	Kind      RecordKind
	Payload   json.RawMessage
	Name      string
	Color     string
	UpdatedAt time.Time
}

// RouteRecord is the normalised projection of a route payload.
type RouteRecord struct {
	ID            string
	Name          string
	Color         string
	TransportMode string
	PlatformIDs   []string
}

// PlatformRecord is the normalised projection of a platform payload.
type PlatformRecord struct {
	ID        string
	Name      string
	StationID string
	Pos1      *Position
	Pos2      *Position
	RouteIDs  []string
}

// Endpoints returns the distinct declared endpoint positions.
func (p PlatformRecord) Endpoints() []Position {
	var out []Position
	if p.Pos1 != nil {
		out = append(out, *p.Pos1)
	}
	if p.Pos2 != nil && (p.Pos1 == nil || *p.Pos2 != *p.Pos1) {
		out = append(out, *p.Pos2)
	}
	return out
}

// CenterXZ returns the midpoint of the endpoints on the horizontal plane.
func (p PlatformRecord) CenterXZ() (float64, float64, bool) {
	eps := p.Endpoints()
	if len(eps) == 0 {
		return 0, 0, false
	}
	var x, z float64
	for _, e := range eps {
		x += float64(e.X)
		z += float64(e.Z)
	}
	n := float64(len(eps))
	return x / n, z / n, true
}

// StationRecord is the normalised projection of a station payload.
type StationRecord struct {
	ID     string
	Name   string
	Color  string
	Bounds *Box
}

// TrackRecord is a raw track entity; its payload is decoded by the graph builder.
type TrackRecord struct {
	ID      string
	Payload json.RawMessage
}
