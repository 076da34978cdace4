package payload

import (
	"errors"
	"sort"
	"strings"

	"github.com/specialistvlad/railmap/internal/model"
)

// ErrNoPosition is returned when a track payload has no resolvable node position.
var ErrNoPosition = errors.New("payload: no resolvable node position")

// Curve is a decoded arc descriptor.
type Curve struct {
	H        float64
	K        float64
	R        float64
	TStart   float64
	TEnd     float64
	Reverse  bool
	Straight bool
}

// Connection is one decoded connection entry of a track.
type Connection struct {
	Target              model.Position
	RailType            string
	TransportMode       string
	YStart              float64
	YEnd                float64
	VerticalCurveRadius float64
	SecondaryDirection  bool
	Primary             *Curve
	Secondary           *Curve
}

// Track is a decoded track payload: a node and its outgoing connections.
type Track struct {
	Node        model.Position
	Connections []Connection
	// Dropped counts connection entries without a resolvable target.
	Dropped int
}

// DecodeTrack normalises a raw track payload.
func DecodeTrack(raw []byte) (Track, error) {
	o, err := decodeObject(raw)
	if err != nil {
		return Track{}, err
	}
	node, ok := o.position(nodePosKeys)
	if !ok {
		return Track{}, ErrNoPosition
	}
	t := Track{Node: *node}

	v, ok := o.lookup(connectionsKeys)
	if !ok {
		return t, nil
	}
	switch entries := v.(type) {
	case []any:
		for _, e := range entries {
			m, ok := e.(map[string]any)
			if !ok {
				t.Dropped++
				continue
			}
			c, ok := decodeConnection(object(m), "", *node)
			if !ok {
				t.Dropped++
				continue
			}
			t.Connections = append(t.Connections, c)
		}
	case map[string]any:
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m, ok := entries[k].(map[string]any)
			if !ok {
				t.Dropped++
				continue
			}
			c, ok := decodeConnection(object(m), k, *node)
			if !ok {
				t.Dropped++
				continue
			}
			t.Connections = append(t.Connections, c)
		}
	}
	return t, nil
}

// decodeConnection resolves one entry. mapKey is the entry's key when the
// connections were given as an object keyed by neighbour position.
func decodeConnection(o object, mapKey string, from model.Position) (Connection, bool) {
	target, ok := o.position(targetKeys)
	if !ok && mapKey != "" {
		p, err := model.ParsePositionKey(mapKey)
		if err == nil {
			target, ok = &p, true
		}
	}
	if !ok {
		return Connection{}, false
	}
	c := Connection{
		Target:        *target,
		RailType:      o.str(railTypeKeys),
		TransportMode: o.str(transportKeys),
		YStart:        float64(from.Y),
		YEnd:          float64(target.Y),
	}
	if y, ok := o.float(yStartKeys); ok {
		c.YStart = y
	}
	if y, ok := o.float(yEndKeys); ok {
		c.YEnd = y
	}
	c.VerticalCurveRadius, _ = o.float(vRadiusKeys)
	c.SecondaryDirection = o.boolean(secondaryKeys) || isSecondaryMarker(o.str(directionKeys))
	c.Primary = decodeCurve(o, primaryCurveKeys)
	c.Secondary = decodeCurve(o, secondaryCurveKeys)
	return c, true
}

func isSecondaryMarker(s string) bool {
	switch strings.ToLower(s) {
	case "secondary", "2", "reverse", "backward":
		return true
	}
	return false
}

func decodeCurve(o object, keys curveKeys) *Curve {
	if nested, ok := o.obj(keys.nested); ok {
		return curveFrom(nested, nestedH, nestedK, nestedR, nestedTStart, nestedTEnd, nestedReverse, nestedStraight)
	}
	return curveFrom(o, keys.h, keys.k, keys.r, keys.tStart, keys.tEnd, keys.reverse, keys.straight)
}

func curveFrom(o object, hK, kK, rK, tsK, teK, revK, strK []string) *Curve {
	var c Curve
	var found bool
	if v, ok := o.float(hK); ok {
		c.H, found = v, true
	}
	if v, ok := o.float(kK); ok {
		c.K, found = v, true
	}
	if v, ok := o.float(rK); ok {
		c.R, found = v, true
	}
	if v, ok := o.float(tsK); ok {
		c.TStart, found = v, true
	}
	if v, ok := o.float(teK); ok {
		c.TEnd, found = v, true
	}
	if _, ok := o.lookup(strK); ok {
		c.Straight, found = o.boolean(strK), true
	}
	if !found {
		return nil
	}
	c.Reverse = o.boolean(revK)
	return &c
}
