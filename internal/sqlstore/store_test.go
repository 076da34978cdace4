package sqlstore

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/store"
	"github.com/specialistvlad/railmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scopeA = model.ScopeKey{ServerID: "srv", NetworkVariant: "main", DimensionContext: "overworld"}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DialectSQLite, filepath.Join(t.TempDir(), "railmap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_UnknownDialect(t *testing.T) {
	_, err := Open("oracle", "")
	assert.ErrorContains(t, err, `unsupported database dialect "oracle"`)
}

func TestRecords(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	p1 := testutil.Platform("p2", "North", "st1", testutil.P(0, 0, 0), testutil.P(4, 0, 0))
	p2 := testutil.Platform("p1", "South", "st1", testutil.P(0, 0, 9), testutil.P(4, 0, 9))
	p2.UpdatedAt = p2.UpdatedAt.Add(time.Hour)
	require.NoError(t, s.PutRecords(ctx, scopeA, p1, p2))
	require.NoError(t, s.PutRecords(ctx, model.ScopeKey{ServerID: "srv", NetworkVariant: "main", DimensionContext: "nether"},
		testutil.Route("r1", "Red", "#FF0000", "p1")))

	recs, err := s.ListRecords(ctx, scopeA, model.KindPlatform)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "p1", recs[0].EntityID)
	assert.Equal(t, "South", recs[0].Name)
	assert.JSONEq(t, string(p2.Payload), string(recs[0].Payload))
	assert.True(t, p2.UpdatedAt.Equal(recs[0].UpdatedAt))

	agg, err := s.Aggregate(ctx, scopeA, model.KindPlatform)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Count)
	assert.True(t, p2.UpdatedAt.Equal(agg.MaxUpdated))

	empty, err := s.Aggregate(ctx, scopeA, model.KindTrack)
	require.NoError(t, err)
	assert.Equal(t, store.Aggregate{}, empty)

	dims, err := s.ListDimensions(ctx, "srv", "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"nether", "overworld"}, dims)

	require.NoError(t, s.DeleteRecord(ctx, scopeA, model.KindPlatform, "p1"))
	recs, err = s.ListRecords(ctx, scopeA, model.KindPlatform)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestClaimScope_Transitions(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	now := time.UnixMilli(1700000000000).UTC()

	_, err := s.GetScope(ctx, scopeA)
	require.ErrorIs(t, err, store.ErrNotFound)

	ok, err := s.ClaimScope(ctx, scopeA, "fp1", now, false)
	require.NoError(t, err)
	require.True(t, ok, "first claim inserts the row")

	ok, err = s.ClaimScope(ctx, scopeA, "fp1", now, false)
	require.NoError(t, err)
	assert.False(t, ok, "RUNNING rows are exclusive")

	require.NoError(t, s.FinishScope(ctx, model.ScopeState{
		Key: scopeA, Status: model.ScopeFailed, Fingerprint: "fp1", ErrorMessage: "boom", ComputedAt: now,
	}))

	ok, err = s.ClaimScope(ctx, scopeA, "fp2", now.Add(time.Minute), false)
	require.NoError(t, err)
	require.True(t, ok)

	st, err := s.GetScope(ctx, scopeA)
	require.NoError(t, err)
	assert.Equal(t, model.ScopeState{
		Key:         scopeA,
		Status:      model.ScopeRunning,
		Fingerprint: "fp2",
		ClaimedAt:   now.Add(time.Minute),
		ComputedAt:  now,
	}, st)

	ok, err = s.ClaimScope(ctx, scopeA, "fp3", now, true)
	require.NoError(t, err)
	assert.True(t, ok, "reclaim takes over a RUNNING row")
}

func TestClaimScope_ExactlyOneConcurrentWinner(t *testing.T) {
	t.Parallel()
	for _, existing := range []bool{false, true} {
		s := openTestStore(t)
		ctx := context.Background()
		if existing {
			require.NoError(t, s.FinishScope(ctx, model.ScopeState{Key: scopeA, Status: model.ScopeSucceeded, Fingerprint: "old"}))
		}

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := s.ClaimScope(ctx, scopeA, "fp", time.Now(), false)
				assert.NoError(t, err)
				if ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load(), "existing row: %v", existing)
	}
}

func TestRouteSnapshots(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	generated := time.UnixMilli(1767225600000).UTC()

	full := model.RouteGeometrySnapshot{
		Scope:     scopeA,
		RouteID:   "r1",
		RouteName: "Red | Express",
		Color:     "#FF0000",
		Status:    model.SnapshotReady,
		Source:    model.SourceGraph,
		Paths:     [][]orb.Point{{{0, 0}, {100, 0}}},
		Bounds:    &orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{100, 0}},
		Stops:     []model.StopMarker{{StationID: "s1", PlatformID: "p1", Label: "Alpha", Point: orb.Point{0, 0}}},
		NodePath:  []model.Position{testutil.P(0, 64, 0), testutil.P(100, 64, 0)},
		Edges: []model.EdgeRecord{{
			From:    testutil.P(0, 64, 0),
			To:      testutil.P(100, 64, 0),
			YStart:  64,
			YEnd:    64,
			Primary: &model.CurveInfo{Straight: true},
		}},
		Fingerprint: "fp",
		GeneratedAt: generated,
	}
	fallback := model.RouteGeometrySnapshot{
		Scope:         scopeA,
		RouteID:       "r0",
		Status:        model.SnapshotReady,
		Source:        model.SourceFallback,
		FailureReason: "no-path",
		GeneratedAt:   generated,
	}
	require.NoError(t, s.UpsertRouteSnapshot(ctx, full))
	require.NoError(t, s.UpsertRouteSnapshot(ctx, fallback))

	got, err := s.GetRouteSnapshot(ctx, scopeA, "r1")
	require.NoError(t, err)
	if diff := cmp.Diff(full, got); diff != "" {
		t.Errorf("route snapshot mismatch (-want +got):\n%s", diff)
	}

	fallback.Status = model.SnapshotFailed
	fallback.ErrorMessage = "panic: boom"
	require.NoError(t, s.UpsertRouteSnapshot(ctx, fallback))

	list, err := s.ListRouteSnapshots(ctx, scopeA)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r0", list[0].RouteID)
	assert.Equal(t, model.SnapshotFailed, list[0].Status)
	assert.Nil(t, list[0].Bounds)

	_, err = s.GetRouteSnapshot(ctx, scopeA, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStationSnapshots(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	other := model.ScopeKey{ServerID: "srv", NetworkVariant: "main", DimensionContext: "end"}

	line := model.LineBucket{
		Key:         "red",
		DisplayName: "Red",
		Color:       "#FF0000",
		RouteIDs:    []string{"r1"},
		Paths:       [][]orb.Point{{{0, 0}, {1, 1}}},
		Stops:       []model.StopMarker{{Label: "Alpha", Point: orb.Point{0, 0}}},
	}
	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, s.UpsertStationSnapshot(ctx, model.StationMapSnapshot{Scope: scopeA, StationID: id, Lines: []model.LineBucket{line}}))
	}
	require.NoError(t, s.UpsertStationSnapshot(ctx, model.StationMapSnapshot{Scope: other, StationID: "s1"}))

	got, err := s.GetStationSnapshot(ctx, scopeA, "s2")
	require.NoError(t, err)
	assert.Equal(t, []model.LineBucket{line}, got.Lines)

	require.NoError(t, s.DeleteStationSnapshots(ctx, scopeA, []string{"s2"}))

	_, err = s.GetStationSnapshot(ctx, scopeA, "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetStationSnapshot(ctx, scopeA, "s2")
	assert.NoError(t, err)
	_, err = s.GetStationSnapshot(ctx, other, "s1")
	assert.NoError(t, err, "other scopes are untouched")

	require.NoError(t, s.DeleteStationSnapshots(ctx, scopeA, nil))
	_, err = s.GetStationSnapshot(ctx, scopeA, "s2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
