package stationmap

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/specialistvlad/railmap/internal/dataset"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scope = model.ScopeKey{ServerID: "srv", NetworkVariant: "main", DimensionContext: "overworld"}
	now   = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
)

func pos(p model.Position) *model.Position { return &p }

func snapshot(id, name, color string, path []orb.Point, stops ...model.StopMarker) model.RouteGeometrySnapshot {
	b := orb.MultiPoint(path).Bound()
	return model.RouteGeometrySnapshot{
		Scope: scope, RouteID: id, RouteName: name, Color: color,
		Status: model.SnapshotReady, Paths: [][]orb.Point{path}, Bounds: &b, Stops: stops,
	}
}

func fixture() *dataset.Dataset {
	box := model.NewBox(testutil.P(-20, 0, -20), testutil.P(20, 0, 20))
	return dataset.New(scope,
		[]model.RouteRecord{
			{ID: "r1", Name: "Red | east", PlatformIDs: []string{"p1", "p9"}},
			{ID: "r2", Name: "red", PlatformIDs: []string{"p2"}},
			{ID: "r3", Name: "Blue", PlatformIDs: []string{"p1"}},
			{ID: "r4", Name: "Red||far branch", PlatformIDs: []string{"p2", "pfar"}},
			{ID: "r5", Name: "Green"},
			{ID: "r6", Name: "Broken", PlatformIDs: []string{"p1"}},
		},
		[]model.PlatformRecord{
			{ID: "p1", StationID: "S", Pos1: pos(testutil.P(0, 0, 0))},
			{ID: "p2", Pos1: pos(testutil.P(10, 0, 10)), Pos2: pos(testutil.P(30, 0, 10))},
			{ID: "p5", Pos1: pos(testutil.P(-5, 0, -5)), RouteIDs: []string{"r5", "ghost"}},
			{ID: "p9", StationID: "T", Pos1: pos(testutil.P(100, 0, 0))},
			{ID: "pfar", Pos1: pos(testutil.P(10000, 0, 0))},
		},
		[]model.StationRecord{
			{ID: "S", Name: "Central", Bounds: &box},
			{ID: "T", Name: "Terminus"},
		},
		nil,
	)
}

func TestAggregator_Associations(t *testing.T) {
	t.Parallel()
	a := New(fixture(), Options{})

	assert.Equal(t, []string{"r1", "r2", "r3", "r4", "r5", "r6"}, a.RoutesOf("S"))
	assert.Equal(t, []string{"r1"}, a.RoutesOf("T"))
	assert.Equal(t, []string{"S", "T"}, a.StationsOf("r1"))
	assert.Equal(t, []string{"S"}, a.StationsOf("r5"))
	assert.Empty(t, a.StationsOf("ghost"))
}

func TestAggregator_Build(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	ds := fixture()
	st, _ := ds.Station("S")
	central := model.StopMarker{StationID: "S", Label: "Central", Point: orb.Point{0, 0}}
	snaps := map[string]model.RouteGeometrySnapshot{
		"r1": snapshot("r1", "Red | east", "#FF0000", []orb.Point{{0, 0}, {100, 0}}, central,
			model.StopMarker{Label: "Yard", Point: orb.Point{100, 0}}),
		"r2": snapshot("r2", "red", "#AA0000", []orb.Point{{20, 10}, {60, 10}}, central,
			model.StopMarker{Label: "Yard", Point: orb.Point{100, 0}}),
		"r3": snapshot("r3", "Blue", "#0000FF", []orb.Point{{0, 0}, {0, 50}}, central),
		"r4": snapshot("r4", "Red||far branch", "", []orb.Point{{20, 10}, {10000, 0}}),
		"r6": {Scope: scope, RouteID: "r6", Status: model.SnapshotFailed, ErrorMessage: "boom"},
	}

	// --- Act ---
	out := New(ds, Options{}).Build(st, snaps, "fp", now)

	// --- Assert ---
	assert.Equal(t, "S", out.StationID)
	assert.Equal(t, "fp", out.Fingerprint)
	assert.Equal(t, now, out.GeneratedAt)
	require.Len(t, out.Lines, 3)

	blue := out.Lines[0]
	assert.Equal(t, "blue", blue.Key)
	assert.Equal(t, "Blue", blue.DisplayName)
	assert.Equal(t, []string{"r3"}, blue.RouteIDs)

	red := out.Lines[1]
	assert.Equal(t, "red", red.Key)
	assert.Equal(t, "Red", red.DisplayName)
	assert.Equal(t, "#FF0000", red.Color)
	assert.Equal(t, []string{"r1", "r2"}, red.RouteIDs)
	assert.Len(t, red.Paths, 2)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{100, 10}}, *red.Bounds)
	assert.Equal(t, []model.StopMarker{central, {Label: "Yard", Point: orb.Point{100, 0}}}, red.Stops)

	far := out.Lines[2]
	assert.Equal(t, "red#2", far.Key)
	assert.Equal(t, "Red", far.DisplayName)
	assert.Equal(t, []string{"r4"}, far.RouteIDs)
}

func TestAggregator_SplitDistanceIsConfigurable(t *testing.T) {
	t.Parallel()
	ds := fixture()
	st, _ := ds.Station("S")
	snaps := map[string]model.RouteGeometrySnapshot{
		"r1": snapshot("r1", "Red", "", []orb.Point{{0, 0}, {100, 0}}),
		"r4": snapshot("r4", "Red", "", []orb.Point{{20, 10}, {10000, 0}}),
	}

	out := New(ds, Options{SplitDistance: 1e6}).Build(st, snaps, "fp", now)

	require.Len(t, out.Lines, 1)
	assert.Equal(t, []string{"r1", "r4"}, out.Lines[0].RouteIDs)
}

func TestAggregator_EmptyStation(t *testing.T) {
	t.Parallel()
	ds := fixture()
	out := New(ds, Options{}).Build(model.StationRecord{ID: "nowhere"}, nil, "fp", now)
	assert.NotNil(t, out.Lines)
	assert.Empty(t, out.Lines)
}

func TestLineKey(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		in, key, display string
	}{
		{in: "Red Line", key: "red line", display: "Red Line"},
		{in: " Red Line || depot run", key: "red line", display: "Red Line"},
		{in: "Red Line | Platform 2", key: "red line", display: "Red Line"},
		{in: "A|B||C", key: "a", display: "A"},
		{in: "||", key: "", display: ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.key, LineKey(tc.in), tc.in)
		assert.Equal(t, tc.display, DisplayName(tc.in), tc.in)
	}
}
