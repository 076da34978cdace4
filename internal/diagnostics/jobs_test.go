package diagnostics

import (
	"strconv"
	"testing"
	"time"

	"github.com/bluele/gcache"
	"github.com/specialistvlad/railmap/internal/inmemorystore"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/scope"
	"github.com/specialistvlad/railmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scopeKey = model.ScopeKey{ServerID: "srv", NetworkVariant: "main", DimensionContext: "overworld"}

func newJobService(t *testing.T) (*Service, gcache.FakeClock) {
	t.Helper()
	s := inmemorystore.New()
	recs := []model.SourceRecord{
		testutil.Route("r1", "Red", "#FF0000", "pa", "pc"),
		testutil.Route("r2", "Blue", "#0000FF", "pb", "pd"),
		testutil.Route("r3", "Grey", "#999999", "pa", "px"),
		testutil.Platform("pa", "A", "", posA, posA),
		testutil.Platform("pb", "B", "", posB, posB),
		testutil.Platform("pc", "C", "", posC, posC),
		testutil.Platform("pd", "D", "", posD, posD),
		testutil.Platform("px", "X", "", testutil.P(5000, 64, 5000), testutil.P(5000, 64, 5000)),
	}
	tracks := append(testutil.Line("w", posA, posB, posC), testutil.Line("e", posD, posE)...)
	for _, tr := range tracks {
		recs = append(recs, testutil.TrackSource(tr))
	}
	s.PutRecords(scopeKey, recs...)

	clock := gcache.NewFakeClock()
	n := 0
	svc := NewService(Config{
		Source: s,
		Clock:  clock,
		NewID: func() string {
			n++
			return "job-" + strconv.Itoa(n)
		},
	})
	return svc, clock
}

func TestStartRailJob_ConnectedRoute(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	ctx, _ := testutil.Context(t)
	svc, _ := newJobService(t)

	// --- Act ---
	sum, err := svc.StartRailJob(ctx, scopeKey, "r1")
	require.NoError(t, err)
	page, err := svc.Page(sum.JobID, Query{})
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, "job-1", sum.JobID)
	assert.Equal(t, 4, sum.Total, "two rails and two platform endpoints")
	assert.Zero(t, sum.Failing)
	assert.Empty(t, sum.PathFailure)
	assert.Empty(t, sum.Connectivity.Reason)
	assert.Equal(t, 2, sum.Coverage.Total)
	assert.Equal(t, 2, sum.Coverage.Straight)
	assert.Equal(t, sum.CreatedAt.Add(DefaultTTL), sum.ExpiresAt)

	require.Len(t, page.Entries, 4)
	first := page.Entries[0]
	assert.Equal(t, posA.Key()+"->"+posB.Key(), first.RailID)
	assert.Equal(t, RailResolved, first.Status)
	assert.Equal(t, []string{"pa", "pb"}, first.Platforms)
	assert.Equal(t, []string{"r1", "r2", "r3"}, first.Routes)
	assert.Empty(t, first.Issues)
	assert.Equal(t, "platform:pa:1", page.Entries[2].RailID)
}

func TestStartRailJob_DisconnectedRoute(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	svc, _ := newJobService(t)

	sum, err := svc.StartRailJob(ctx, scopeKey, "r2")
	require.NoError(t, err)

	assert.Equal(t, ReasonPlatformsDisconnected, sum.Connectivity.Reason)
	assert.NotEmpty(t, sum.PathFailure)
	require.Len(t, sum.Connectivity.Disconnected, 1)
	assert.Equal(t, NodePair{From: posC, To: posD, Distance: 300}, sum.Connectivity.Disconnected[0].Nearest)

	page, err := svc.Page(sum.JobID, Query{ErrorsOnly: true})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	gap := page.Entries[0]
	assert.Equal(t, "gap:0", gap.RailID)
	assert.Equal(t, RailUnresolved, gap.Status)
	assert.Equal(t, []string{IssueDisconnected}, gap.Issues)
	assert.Equal(t, []string{"pb", "pd"}, gap.Platforms)
}

func TestStartRailJob_UnsnappedPlatform(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	svc, _ := newJobService(t)

	sum, err := svc.StartRailJob(ctx, scopeKey, "r3")
	require.NoError(t, err)

	assert.Equal(t, []string{"px"}, sum.Connectivity.Unsnapped)
	page, err := svc.Page(sum.JobID, Query{Keyword: "UNSNAPPED"})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "platform:px:1", page.Entries[0].RailID)
	assert.Equal(t, RailUnresolved, page.Entries[0].Status)
}

func TestStartRailJob_UnknownRoute(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	svc, _ := newJobService(t)

	_, err := svc.StartRailJob(ctx, scopeKey, "nope")

	assert.ErrorIs(t, err, scope.ErrRouteNotFound)
}

func TestPage_Pagination(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	svc, _ := newJobService(t)
	sum, err := svc.StartRailJob(ctx, scopeKey, "r1")
	require.NoError(t, err)

	testCases := []struct {
		name      string
		query     Query
		wantIDs   []string
		wantPages int
		wantPage  int
	}{
		{
			name:      "first page",
			query:     Query{Page: 1, PageSize: 3},
			wantIDs:   []string{posA.Key() + "->" + posB.Key(), posB.Key() + "->" + posC.Key(), "platform:pa:1"},
			wantPages: 2,
			wantPage:  1,
		},
		{
			name:      "last page",
			query:     Query{Page: 2, PageSize: 3},
			wantIDs:   []string{"platform:pc:1"},
			wantPages: 2,
			wantPage:  2,
		},
		{
			name:      "past the end",
			query:     Query{Page: 9, PageSize: 3},
			wantIDs:   []string{},
			wantPages: 2,
			wantPage:  9,
		},
		{
			name:      "page zero clamps to one",
			query:     Query{Page: 0, PageSize: 1, Keyword: "platform:pc"},
			wantIDs:   []string{"platform:pc:1"},
			wantPages: 1,
			wantPage:  1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := svc.Page(sum.JobID, tc.query)
			require.NoError(t, err)

			ids := []string{}
			for _, e := range page.Entries {
				ids = append(ids, e.RailID)
			}
			assert.Equal(t, tc.wantIDs, ids)
			assert.Equal(t, tc.wantPages, page.TotalPages)
			assert.Equal(t, tc.wantPage, page.Page)
		})
	}
}

func TestPage_ExpiryAndReplacement(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	svc, clock := newJobService(t)

	first, err := svc.StartRailJob(ctx, scopeKey, "r1")
	require.NoError(t, err)

	clock.Advance(DefaultTTL - time.Second)
	_, err = svc.Page(first.JobID, Query{})
	require.NoError(t, err, "still inside the TTL")

	second, err := svc.StartRailJob(ctx, scopeKey, "r2")
	require.NoError(t, err)
	_, err = svc.Page(first.JobID, Query{})
	assert.ErrorIs(t, err, ErrJobNotFound, "a new job replaces the previous one")

	clock.Advance(DefaultTTL + time.Second)
	_, err = svc.Page(second.JobID, Query{})
	assert.ErrorIs(t, err, ErrJobNotFound, "expired")

	_, err = svc.Page("unknown", Query{})
	assert.ErrorIs(t, err, ErrJobNotFound)
}
