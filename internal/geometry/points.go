package geometry

import (
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/specialistvlad/railmap/internal/dataset"
	"github.com/specialistvlad/railmap/internal/model"
)

// Point projects a position onto the horizontal (x, z) plane.
func Point(p model.Position) orb.Point {
	return orb.Point{float64(p.X), float64(p.Z)}
}

// Points projects a node path onto the horizontal plane.
func Points(ps []model.Position) []orb.Point {
	out := make([]orb.Point, len(ps))
	for i, p := range ps {
		out[i] = Point(p)
	}
	return out
}

// Label reduces a station or platform name to its display label: the text
// before the first "|", trimmed.
func Label(name string) string {
	if i := strings.Index(name, "|"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// PlatformPoint is the platform's endpoint centre, or its station's box
// centre when the platform has no usable position.
func PlatformPoint(ds *dataset.Dataset, p model.PlatformRecord) (orb.Point, bool) {
	if x, z, ok := p.CenterXZ(); ok {
		return orb.Point{x, z}, true
	}
	if st, ok := ds.Station(p.StationID); ok && st.Bounds != nil {
		x, z := st.Bounds.CenterXZ()
		return orb.Point{x, z}, true
	}
	return orb.Point{}, false
}

// Bound is the bounding box of all finite points, or nil when there are none.
func Bound(paths ...[]orb.Point) *orb.Bound {
	var (
		b     orb.Bound
		found bool
	)
	for _, path := range paths {
		for _, p := range path {
			if !finite(p) {
				continue
			}
			if !found {
				b, found = orb.Bound{Min: p, Max: p}, true
				continue
			}
			b = b.Extend(p)
		}
	}
	if !found {
		return nil
	}
	return &b
}

// Union merges two optional bounds.
func Union(a, b *orb.Bound) *orb.Bound {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		out := *b
		return &out
	case b == nil:
		out := *a
		return &out
	}
	out := a.Union(*b)
	return &out
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsInf(p[0], 0) && !math.IsNaN(p[1]) && !math.IsInf(p[1], 0)
}
