package inmemorystore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/store"
	"github.com/specialistvlad/railmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scopeA = model.ScopeKey{ServerID: "srv", NetworkVariant: "main", DimensionContext: "overworld"}

func TestRecords_ListAndAggregate(t *testing.T) {
	s := New()
	ctx := context.Background()

	p1 := testutil.Platform("p2", "North", "st1", testutil.P(0, 0, 0), testutil.P(4, 0, 0))
	p2 := testutil.Platform("p1", "South", "st1", testutil.P(0, 0, 9), testutil.P(4, 0, 9))
	p2.UpdatedAt = p2.UpdatedAt.Add(time.Hour)
	s.PutRecords(scopeA, p1, p2)
	s.PutRecords(model.ScopeKey{ServerID: "srv", NetworkVariant: "main", DimensionContext: "nether"},
		testutil.Route("r1", "Red", "#FF0000", "p1"))

	recs, err := s.ListRecords(ctx, scopeA, model.KindPlatform)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "p1", recs[0].EntityID)
	assert.Equal(t, "p2", recs[1].EntityID)

	agg, err := s.Aggregate(ctx, scopeA, model.KindPlatform)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Count)
	assert.Equal(t, p2.UpdatedAt, agg.MaxUpdated)

	empty, err := s.Aggregate(ctx, scopeA, model.KindTrack)
	require.NoError(t, err)
	assert.Equal(t, store.Aggregate{}, empty)

	dims, err := s.ListDimensions(ctx, "srv", "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"nether", "overworld"}, dims)

	s.DeleteRecord(scopeA, model.KindPlatform, "p1")
	recs, err = s.ListRecords(ctx, scopeA, model.KindPlatform)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestClaimScope_Transitions(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	_, err := s.GetScope(ctx, scopeA)
	require.ErrorIs(t, err, store.ErrNotFound)

	ok, err := s.ClaimScope(ctx, scopeA, "fp1", now, false)
	require.NoError(t, err)
	require.True(t, ok, "first claim inserts the row")

	ok, err = s.ClaimScope(ctx, scopeA, "fp1", now, false)
	require.NoError(t, err)
	assert.False(t, ok, "RUNNING rows are exclusive")

	require.NoError(t, s.FinishScope(ctx, model.ScopeState{
		Key: scopeA, Status: model.ScopeSucceeded, Fingerprint: "fp1", ComputedAt: now,
	}))

	ok, err = s.ClaimScope(ctx, scopeA, "fp2", now.Add(time.Minute), false)
	require.NoError(t, err)
	require.True(t, ok)

	st, err := s.GetScope(ctx, scopeA)
	require.NoError(t, err)
	assert.Equal(t, model.ScopeRunning, st.Status)
	assert.Equal(t, "fp2", st.Fingerprint)
	assert.Equal(t, now, st.ComputedAt, "previous computed-at survives a claim")

	ok, err = s.ClaimScope(ctx, scopeA, "fp3", now, true)
	require.NoError(t, err)
	assert.True(t, ok, "reclaim takes over a RUNNING row")
}

func TestClaimScope_ExactlyOneConcurrentWinner(t *testing.T) {
	for _, existing := range []bool{false, true} {
		s := New()
		ctx := context.Background()
		if existing {
			require.NoError(t, s.FinishScope(ctx, model.ScopeState{Key: scopeA, Status: model.ScopeFailed}))
		}

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
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

func TestSnapshots(t *testing.T) {
	s := New()
	ctx := context.Background()
	other := model.ScopeKey{ServerID: "srv", NetworkVariant: "main", DimensionContext: "end"}

	require.NoError(t, s.UpsertRouteSnapshot(ctx, model.RouteGeometrySnapshot{Scope: scopeA, RouteID: "r2", Status: model.SnapshotReady}))
	require.NoError(t, s.UpsertRouteSnapshot(ctx, model.RouteGeometrySnapshot{Scope: scopeA, RouteID: "r1", Status: model.SnapshotReady}))
	require.NoError(t, s.UpsertRouteSnapshot(ctx, model.RouteGeometrySnapshot{Scope: scopeA, RouteID: "r1", Status: model.SnapshotFailed}))
	require.NoError(t, s.UpsertRouteSnapshot(ctx, model.RouteGeometrySnapshot{Scope: other, RouteID: "r9"}))

	list, err := s.ListRouteSnapshots(ctx, scopeA)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r1", list[0].RouteID)
	assert.Equal(t, model.SnapshotFailed, list[0].Status)

	_, err = s.GetRouteSnapshot(ctx, scopeA, "r9")
	assert.ErrorIs(t, err, store.ErrNotFound)

	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, s.UpsertStationSnapshot(ctx, model.StationMapSnapshot{Scope: scopeA, StationID: id}))
	}
	require.NoError(t, s.UpsertStationSnapshot(ctx, model.StationMapSnapshot{Scope: other, StationID: "s1"}))

	require.NoError(t, s.DeleteStationSnapshots(ctx, scopeA, []string{"s2"}))

	_, err = s.GetStationSnapshot(ctx, scopeA, "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetStationSnapshot(ctx, scopeA, "s2")
	assert.NoError(t, err)
	_, err = s.GetStationSnapshot(ctx, other, "s1")
	assert.NoError(t, err, "other scopes are untouched")
}
