package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Position is an integer world coordinate. Y is the elevation.
type Position struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	Z int64 `json:"z"`
}

// Key returns the canonical "x,y,z" encoding of the position.
func (p Position) Key() string {
	return strconv.FormatInt(p.X, 10) + "," + strconv.FormatInt(p.Y, 10) + "," + strconv.FormatInt(p.Z, 10)
}

func (p Position) String() string {
	return p.Key()
}

// Less orders positions by X, then Z, then Y.
func (p Position) Less(o Position) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	if p.Z != o.Z {
		return p.Z < o.Z
	}
	return p.Y < o.Y
}

// ParsePositionKey decodes a key produced by Position.Key. Fractional
// components are floored onto the block grid, like every other position form.
func ParsePositionKey(s string) (Position, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return Position{}, fmt.Errorf("position key %q: expected 3 components, got %d", s, len(parts))
	}
	var out [3]int64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Position{}, fmt.Errorf("position key %q: %w", s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Position{}, fmt.Errorf("position key %q: non-finite component %q", s, part)
		}
		out[i] = int64(math.Floor(v))
	}
	return Position{X: out[0], Y: out[1], Z: out[2]}, nil
}

// Box is an axis-aligned 3D box given by two corners in any order.
type Box struct {
	Min Position `json:"min"`
	Max Position `json:"max"`
}

// NewBox normalises two corners into a Box.
func NewBox(a, b Position) Box {
	return Box{
		Min: Position{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Max: Position{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)},
	}
}

// ContainsXZ reports whether x,z falls inside the box footprint, inclusive.
func (b Box) ContainsXZ(x, z float64) bool {
	return x >= float64(b.Min.X) && x <= float64(b.Max.X) &&
		z >= float64(b.Min.Z) && z <= float64(b.Max.Z)
}

// CenterXZ returns the centre of the box footprint.
func (b Box) CenterXZ() (float64, float64) {
	return float64(b.Min.X+b.Max.X) / 2, float64(b.Min.Z+b.Max.Z) / 2
}
