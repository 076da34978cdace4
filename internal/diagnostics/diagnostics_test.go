package diagnostics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/railgraph"
	"github.com/specialistvlad/railmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	posA = testutil.P(0, 64, 0)
	posB = testutil.P(100, 64, 0)
	posC = testutil.P(200, 64, 0)
	posD = testutil.P(500, 64, 0)
	posE = testutil.P(600, 64, 0)
)

// twoIslands builds A-B-C and D-E with no rail between them.
func twoIslands(t *testing.T) *railgraph.Graph {
	t.Helper()
	tracks := append(testutil.Line("w", posA, posB, posC), testutil.Line("e", posD, posE)...)
	g, _, ok := railgraph.Build(tracks)
	require.True(t, ok)
	return g
}

func node(t *testing.T, g *railgraph.Graph, p model.Position) railgraph.NodeID {
	t.Helper()
	id, ok := g.Lookup(p)
	require.True(t, ok, "no node at %s", p)
	return id
}

func TestComponents(t *testing.T) {
	t.Parallel()
	g := twoIslands(t)

	comps := Components(g)

	a, b, c, d, e := node(t, g, posA), node(t, g, posB), node(t, g, posC), node(t, g, posD), node(t, g, posE)
	assert.Equal(t, 2, comps.Count())
	assert.Equal(t, comps.Of(a), comps.Of(b))
	assert.Equal(t, comps.Of(a), comps.Of(c))
	assert.Equal(t, comps.Of(d), comps.Of(e))
	assert.NotEqual(t, comps.Of(a), comps.Of(d))
	assert.Equal(t, railgraph.SortedIDs([]railgraph.NodeID{a, b, c}), comps.Members(comps.Of(a)))
	assert.Equal(t, -1, comps.Of(railgraph.NodeID(99)))
	assert.Nil(t, comps.Members(7))
}

func TestRouteConnectivity(t *testing.T) {
	t.Parallel()
	g := twoIslands(t)
	comps := Components(g)
	snaps := railgraph.SnapIndex{
		"pa": {node(t, g, posA)},
		"pb": {node(t, g, posB)},
		"pe": {node(t, g, posE)},
	}

	t.Run("connected", func(t *testing.T) {
		got := RouteConnectivity(g, comps, model.RouteRecord{ID: "r1", PlatformIDs: []string{"pa", "pb"}}, snaps)

		assert.Empty(t, got.Reason)
		assert.Empty(t, got.Disconnected)
		assert.Len(t, got.Components, 1)
	})

	t.Run("disconnected reports nearest pair", func(t *testing.T) {
		got := RouteConnectivity(g, comps, model.RouteRecord{ID: "r2", PlatformIDs: []string{"pa", "px", "pe"}}, snaps)

		assert.Equal(t, ReasonPlatformsDisconnected, got.Reason)
		assert.Equal(t, []string{"px"}, got.Unsnapped)
		assert.Len(t, got.Components, 2)
		want := []DisconnectedSegment{{
			Segment:        0,
			FromPlatformID: "pa",
			ToPlatformID:   "pe",
			FromComponent:  comps.Of(node(t, g, posA)),
			ToComponent:    comps.Of(node(t, g, posE)),
			Nearest:        NodePair{From: posC, To: posD, Distance: 300},
		}}
		if diff := cmp.Diff(want, got.Disconnected); diff != "" {
			t.Errorf("disconnected segments mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCurveCoverage(t *testing.T) {
	t.Parallel()
	curve := &model.CurveInfo{R: 20}
	straight := &model.CurveInfo{Straight: true}

	testCases := []struct {
		name  string
		edges []model.EdgeRecord
		want  CoverageStats
	}{
		{name: "empty", want: CoverageStats{}},
		{
			name: "mixed",
			edges: []model.EdgeRecord{
				{Primary: curve},
				{Secondary: curve, VerticalCurveRadius: 40},
				{Primary: straight, Secondary: curve},
				{},
			},
			want: CoverageStats{Total: 4, Primary: 2, Secondary: 2, AnyCurve: 3, NoCurve: 1, Straight: 1, VerticalCurve: 1},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CurveCoverage(tc.edges))
		})
	}
}
