package model

import (
	"time"

	"github.com/paulmach/orb"
)

// SnapshotStatus is the state of a persisted route snapshot.
type SnapshotStatus string

const (
	SnapshotReady  SnapshotStatus = "READY"
	SnapshotFailed SnapshotStatus = "FAILED"
)

// GeometrySource tells where a route's path points came from.
type GeometrySource string

const (
	SourceGraph    GeometrySource = "graph"
	SourceFallback GeometrySource = "fallback"
)

// StopMarker is a labelled stop drawn along a route.
type StopMarker struct {
	StationID  string    `json:"stationId,omitempty"`
	PlatformID string    `json:"platformId,omitempty"`
	Label      string    `json:"label"`
	Point      orb.Point `json:"point"`
}

// CurveInfo is the persisted form of one curve variant.
type CurveInfo struct {
	H        float64 `json:"h"`
	K        float64 `json:"k"`
	R        float64 `json:"r"`
	TStart   float64 `json:"tStart"`
	TEnd     float64 `json:"tEnd"`
	Reverse  bool    `json:"reverse"`
	Straight bool    `json:"straight"`
}

// EdgeRecord is one traversed connection of a computed route path.
type EdgeRecord struct {
	From                Position   `json:"from"`
	To                  Position   `json:"to"`
	RailType            string     `json:"railType,omitempty"`
	TransportMode       string     `json:"transportMode,omitempty"`
	YStart              float64    `json:"yStart"`
	YEnd                float64    `json:"yEnd"`
	VerticalCurveRadius float64    `json:"verticalCurveRadius,omitempty"`
	SecondaryDirection  bool       `json:"secondaryDirection,omitempty"`
	Primary             *CurveInfo `json:"primary,omitempty"`
	Secondary           *CurveInfo `json:"secondary,omitempty"`
	Preferred           string     `json:"preferred,omitempty"`
}

// RouteGeometrySnapshot is the persisted geometry of one route in one scope.
type RouteGeometrySnapshot struct {
	Scope         ScopeKey
	RouteID       string
	RouteName     string
	Color         string
	Status        SnapshotStatus
	Source        GeometrySource
	Paths         [][]orb.Point
	Bounds        *orb.Bound
	Stops         []StopMarker
	NodePath      []Position
	Edges         []EdgeRecord
	Fingerprint   string
	FailureReason string
	ErrorMessage  string
	GeneratedAt   time.Time
}

// LineBucket is one physically contiguous group of same-named routes at a station.
type LineBucket struct {
	Key         string        `json:"key"`
	DisplayName string        `json:"displayName"`
	Color       string        `json:"color,omitempty"`
	RouteIDs    []string      `json:"routeIds"`
	Paths       [][]orb.Point `json:"paths"`
	Bounds      *orb.Bound    `json:"bounds,omitempty"`
	Stops       []StopMarker  `json:"stops"`
}

// StationMapSnapshot is the persisted "lines through here" summary of a station.
type StationMapSnapshot struct {
	Scope       ScopeKey
	StationID   string
	Lines       []LineBucket
	Fingerprint string
	GeneratedAt time.Time
}
