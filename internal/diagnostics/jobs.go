package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"
	"github.com/specialistvlad/railmap/internal/compute"
	"github.com/specialistvlad/railmap/internal/ctxlog"
	"github.com/specialistvlad/railmap/internal/dataset"
	"github.com/specialistvlad/railmap/internal/model"
	"github.com/specialistvlad/railmap/internal/railgraph"
	"github.com/specialistvlad/railmap/internal/scope"
	"github.com/specialistvlad/railmap/internal/store"
)

// ErrJobNotFound is returned for unknown, replaced or expired job ids.
var ErrJobNotFound = errors.New("diagnostics job not found or expired")

const (
	// DefaultTTL is how long a job's report stays readable.
	DefaultTTL = 5 * time.Minute
	// DefaultPageSize applies when a query leaves the page size unset.
	DefaultPageSize = 50
	// MaxPageSize caps the page size of a query.
	MaxPageSize = 500
)

// RailStatus tells whether a rail entry resolved onto the graph.
type RailStatus string

const (
	RailResolved   RailStatus = "resolved"
	RailUnresolved RailStatus = "unresolved"
)

// Issue tags attached to rail entries.
const (
	IssueGraphUnavailable   = "graph_unavailable"
	IssuePlatformUnsnapped  = "platform_unsnapped"
	IssueNoCurve            = "no_curve_metadata"
	IssueReverseCurve       = "reverse_curve"
	IssueSecondaryDirection = "secondary_direction"
	IssueDisconnected       = ReasonPlatformsDisconnected
)

// RailEntry is one line of a rail report: a traversed rail, a platform
// endpoint, or a gap between components.
type RailEntry struct {
	RailID    string         `json:"railId"`
	From      model.Position `json:"from"`
	To        model.Position `json:"to"`
	Status    RailStatus     `json:"status"`
	Platforms []string       `json:"platforms"`
	Routes    []string       `json:"routes"`
	Issues    []string       `json:"issues"`
}

// Failing reports whether the entry is unresolved or carries any issue.
func (e RailEntry) Failing() bool {
	return e.Status == RailUnresolved || len(e.Issues) > 0
}

func (e RailEntry) matches(keyword string) bool {
	fields := append([]string{e.RailID, e.From.Key(), e.To.Key(), string(e.Status)}, e.Platforms...)
	fields = append(fields, e.Routes...)
	fields = append(fields, e.Issues...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), keyword) {
			return true
		}
	}
	return false
}

// JobSummary describes a computed rail report.
type JobSummary struct {
	JobID        string             `json:"jobId"`
	Scope        model.ScopeKey     `json:"scope"`
	RouteID      string             `json:"routeId"`
	Fingerprint  string             `json:"fingerprint"`
	Total        int                `json:"total"`
	Failing      int                `json:"failing"`
	PathFailure  string             `json:"pathFailure,omitempty"`
	Graph        compute.GraphStats `json:"graph"`
	Connectivity Connectivity       `json:"connectivity"`
	Coverage     CoverageStats      `json:"coverage"`
	CreatedAt    time.Time          `json:"createdAt"`
	ExpiresAt    time.Time          `json:"expiresAt"`
}

// Query selects one page of a job's entries. Pages are numbered from 1.
type Query struct {
	Page       int
	PageSize   int
	Keyword    string
	ErrorsOnly bool
}

// Page is one page of filtered entries.
type Page struct {
	Job        JobSummary  `json:"job"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	Matched    int         `json:"matched"`
	TotalPages int         `json:"totalPages"`
	Entries    []RailEntry `json:"entries"`
}

type job struct {
	summary JobSummary
	entries []RailEntry
}

// Config wires a Service. Pipeline, TTL, Clock and NewID are optional.
type Config struct {
	Source      store.SourceStore
	Pipeline    *compute.Pipeline
	MaxSnapRing int
	TTL         time.Duration
	Clock       gcache.Clock
	NewID       func() string
}

// Service runs rail diagnostics jobs and serves their pages.
type Service struct {
	source   store.SourceStore
	pipeline *compute.Pipeline
	maxRing  int
	ttl      time.Duration
	clock    gcache.Clock
	newID    func() string
	cache    gcache.Cache
}

// NewService creates a Service with a single-entry job cache.
func NewService(cfg Config) *Service {
	s := &Service{
		source:   cfg.Source,
		pipeline: cfg.Pipeline,
		maxRing:  cfg.MaxSnapRing,
		ttl:      cfg.TTL,
		clock:    cfg.Clock,
		newID:    cfg.NewID,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.clock == nil {
		s.clock = gcache.NewRealClock()
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	if s.pipeline == nil {
		s.pipeline = compute.New(compute.Options{}, s.clock.Now)
	}
	s.cache = gcache.New(1).LRU().Expiration(s.ttl).Clock(s.clock).Build()
	return s
}

// StartRailJob computes the rail report of one route and makes it the cached
// job, replacing any previous one.
func (s *Service) StartRailJob(ctx context.Context, key model.ScopeKey, routeID string) (JobSummary, error) {
	ctx, logger := ctxlog.With(ctx, "scope", key.String(), "route", routeID)

	ds, err := dataset.Load(ctx, s.source, key)
	if err != nil {
		return JobSummary{}, err
	}
	route, ok := ds.Route(routeID)
	if !ok {
		return JobSummary{}, fmt.Errorf("%w: %s", scope.ErrRouteNotFound, routeID)
	}
	fp, err := scope.Fingerprint(ctx, s.source, key)
	if err != nil {
		return JobSummary{}, err
	}

	prep := s.pipeline.Prepare(ctx, ds, fp)
	snap := prep.Geometry.Compute(ctx, route)

	now := s.clock.Now()
	j := &job{summary: JobSummary{
		JobID:       s.newID(),
		Scope:       key,
		RouteID:     routeID,
		Fingerprint: fp,
		PathFailure: snap.FailureReason,
		Graph:       prep.Stats,
		Coverage:    CurveCoverage(snap.Edges),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}}
	r := newReport(prep, route)
	if prep.Graph != nil {
		j.summary.Connectivity = RouteConnectivity(prep.Graph, Components(prep.Graph), route, railgraph.Index(prep.Snapped))
		r.addEdges(snap.Edges)
	} else {
		j.summary.Connectivity = Connectivity{RouteID: routeID, Components: []int{}, Unsnapped: route.PlatformIDs}
	}
	r.addPlatforms(s.snapper(prep))
	r.addGaps(j.summary.Connectivity.Disconnected)
	j.entries = r.entries

	j.summary.Total = len(j.entries)
	for _, e := range j.entries {
		if e.Failing() {
			j.summary.Failing++
		}
	}
	if err := s.cache.Set(j.summary.JobID, j); err != nil {
		return JobSummary{}, fmt.Errorf("cache diagnostics job: %w", err)
	}
	logger.Info("Rail diagnostics computed.",
		"job", j.summary.JobID,
		"entries", j.summary.Total,
		"failing", j.summary.Failing,
		"reason", j.summary.Connectivity.Reason,
	)
	return j.summary, nil
}

func (s *Service) snapper(prep *compute.Prepared) *railgraph.Snapper {
	if prep.Graph == nil {
		return nil
	}
	return railgraph.NewSnapper(prep.Graph, s.maxRing)
}

// Page filters and paginates a job's entries. A page past the end is empty.
func (s *Service) Page(jobID string, q Query) (Page, error) {
	v, err := s.cache.Get(jobID)
	if errors.Is(err, gcache.KeyNotFoundError) {
		return Page{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return Page{}, fmt.Errorf("read diagnostics job: %w", err)
	}
	j := v.(*job)

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	q.PageSize = min(q.PageSize, MaxPageSize)
	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))

	var matched []RailEntry
	for _, e := range j.entries {
		if q.ErrorsOnly && !e.Failing() {
			continue
		}
		if keyword != "" && !e.matches(keyword) {
			continue
		}
		matched = append(matched, e)
	}

	out := Page{
		Job:        j.summary,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Matched:    len(matched),
		TotalPages: (len(matched) + q.PageSize - 1) / q.PageSize,
		Entries:    []RailEntry{},
	}
	if start := (q.Page - 1) * q.PageSize; start < len(matched) {
		out.Entries = matched[start:min(start+q.PageSize, len(matched))]
	}
	return out, nil
}

// report accumulates the entries of one job.
type report struct {
	prep           *compute.Prepared
	route          model.RouteRecord
	nodePlatforms  map[railgraph.NodeID][]string
	platformRoutes map[string][]string
	entries        []RailEntry
}

func newReport(prep *compute.Prepared, route model.RouteRecord) *report {
	r := &report{
		prep:           prep,
		route:          route,
		nodePlatforms:  make(map[railgraph.NodeID][]string),
		platformRoutes: make(map[string][]string),
	}
	for _, sp := range prep.Snapped {
		for _, n := range sp.Nodes {
			r.nodePlatforms[n] = append(r.nodePlatforms[n], sp.PlatformID)
		}
	}
	for _, rt := range prep.Dataset.Routes {
		for _, pid := range rt.PlatformIDs {
			if !slices.Contains(r.platformRoutes[pid], rt.ID) {
				r.platformRoutes[pid] = append(r.platformRoutes[pid], rt.ID)
			}
		}
	}
	return r
}

// routesOf returns the report's route plus every route serving one of the
// platforms, sorted.
func (r *report) routesOf(platforms []string) []string {
	out := []string{r.route.ID}
	for _, pid := range platforms {
		for _, rid := range r.platformRoutes[pid] {
			if !slices.Contains(out, rid) {
				out = append(out, rid)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (r *report) addEdges(edges []model.EdgeRecord) {
	for _, e := range edges {
		var platforms []string
		for _, p := range []model.Position{e.From, e.To} {
			if id, ok := r.prep.Graph.Lookup(p); ok {
				for _, pid := range r.nodePlatforms[id] {
					if !slices.Contains(platforms, pid) {
						platforms = append(platforms, pid)
					}
				}
			}
		}
		sort.Strings(platforms)
		r.entries = append(r.entries, RailEntry{
			RailID:    e.From.Key() + "->" + e.To.Key(),
			From:      e.From,
			To:        e.To,
			Status:    RailResolved,
			Platforms: nonNil(platforms),
			Routes:    r.routesOf(platforms),
			Issues:    edgeIssues(e),
		})
	}
}

func edgeIssues(e model.EdgeRecord) []string {
	issues := []string{}
	if e.Primary == nil && e.Secondary == nil {
		issues = append(issues, IssueNoCurve)
	}
	if (e.Preferred == railgraph.VariantPrimary.String() && e.Primary != nil && e.Primary.Reverse) ||
		(e.Preferred == railgraph.VariantSecondary.String() && e.Secondary != nil && e.Secondary.Reverse) {
		issues = append(issues, IssueReverseCurve)
	}
	if e.SecondaryDirection {
		issues = append(issues, IssueSecondaryDirection)
	}
	return issues
}

// addPlatforms adds one entry per endpoint of each of the route's platforms,
// resolved through snapper. A nil snapper marks every endpoint unresolved.
func (r *report) addPlatforms(snapper *railgraph.Snapper) {
	for _, pid := range r.route.PlatformIDs {
		p, ok := r.prep.Dataset.Platform(pid)
		if !ok {
			continue
		}
		for i, ep := range p.Endpoints() {
			e := RailEntry{
				RailID:    "platform:" + pid + ":" + strconv.Itoa(i+1),
				From:      ep,
				To:        ep,
				Status:    RailUnresolved,
				Platforms: []string{pid},
				Routes:    r.routesOf([]string{pid}),
				Issues:    []string{},
			}
			if snapper == nil {
				e.Issues = append(e.Issues, IssueGraphUnavailable)
			} else if id, _, ok := snapper.Snap(ep); ok {
				e.Status = RailResolved
				e.To = r.prep.Graph.Position(id)
			} else {
				e.Issues = append(e.Issues, IssuePlatformUnsnapped)
			}
			r.entries = append(r.entries, e)
		}
	}
}

func (r *report) addGaps(gaps []DisconnectedSegment) {
	for _, g := range gaps {
		platforms := []string{g.FromPlatformID, g.ToPlatformID}
		r.entries = append(r.entries, RailEntry{
			RailID:    "gap:" + strconv.Itoa(g.Segment),
			From:      g.Nearest.From,
			To:        g.Nearest.To,
			Status:    RailUnresolved,
			Platforms: platforms,
			Routes:    r.routesOf(platforms),
			Issues:    []string{IssueDisconnected},
		})
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
