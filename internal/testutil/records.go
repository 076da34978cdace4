package testutil

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/specialistvlad/railmap/internal/model"
)

// P is shorthand for a position literal.
func P(x, y, z int64) model.Position {
	return model.Position{X: x, Y: y, Z: z}
}

// Conn describes one connection entry of a track fixture. Extra is merged
// into the entry verbatim, so tests can set any payload field spelling.
type Conn struct {
	To    model.Position
	Extra map[string]any
}

// Straight is a plain straight connection to p.
func Straight(p model.Position) Conn {
	return Conn{To: p, Extra: map[string]any{"is_straight_1": true}}
}

// Track builds a raw track record at node with the given connections.
func Track(id string, node model.Position, conns ...Conn) model.TrackRecord {
	entries := make([]map[string]any, 0, len(conns))
	for _, c := range conns {
		e := map[string]any{"node_pos": []int64{c.To.X, c.To.Y, c.To.Z}}
		for k, v := range c.Extra {
			e[k] = v
		}
		entries = append(entries, e)
	}
	return model.TrackRecord{
		ID:      id,
		Payload: mustJSON(map[string]any{"node_pos": map[string]int64{"x": node.X, "y": node.Y, "z": node.Z}, "connections": entries}),
	}
}

// Line builds a chain of straight tracks through the given points.
func Line(prefix string, points ...model.Position) []model.TrackRecord {
	out := make([]model.TrackRecord, 0, len(points))
	for i := 0; i+1 < len(points); i++ {
		out = append(out, Track(prefix+"-"+strconv.Itoa(i), points[i], Straight(points[i+1])))
	}
	return out
}

// Platform builds a raw platform source record.
func Platform(id, name, stationID string, a, b model.Position) model.SourceRecord {
	return source(id, model.KindPlatform, name, map[string]any{
		"station_id": stationID,
		"pos1":       []int64{a.X, a.Y, a.Z},
		"pos2":       []int64{b.X, b.Y, b.Z},
	})
}

// Route builds a raw route source record.
func Route(id, name, color string, platformIDs ...string) model.SourceRecord {
	rec := source(id, model.KindRoute, name, map[string]any{
		"platform_ids":   platformIDs,
		"transport_mode": "TRAIN",
	})
	rec.Color = color
	return rec
}

// Station builds a raw station source record with a footprint box.
func Station(id, name string, c1, c2 model.Position) model.SourceRecord {
	return source(id, model.KindStation, name, map[string]any{
		"corner1": []int64{c1.X, c1.Z},
		"corner2": []int64{c2.X, c2.Z},
	})
}

// TrackSource wraps a track record as a source row.
func TrackSource(t model.TrackRecord) model.SourceRecord {
	return model.SourceRecord{EntityID: t.ID, Kind: model.KindTrack, Payload: t.Payload, UpdatedAt: baseTime}
}

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func source(id string, kind model.RecordKind, name string, payload map[string]any) model.SourceRecord {
	return model.SourceRecord{EntityID: id, Kind: kind, Name: name, Payload: mustJSON(payload), UpdatedAt: baseTime}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

