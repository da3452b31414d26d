// Package analytics assembles the dashboard from six independent backend feeds.
package analytics

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/schoolconsole/internal/app/models/dto"
)

const (
	DefaultRecentActivityLimit = 10
	DefaultTimeout             = 15 * time.Second
)

// Section names, also used as metric labels
const (
	SectionOverview            = "overview"
	SectionEnrollmentTrends    = "enrollmentTrends"
	SectionClassesByDepartment = "classesByDepartment"
	SectionCapacityStatus      = "capacityStatus"
	SectionUserDistribution    = "userDistribution"
	SectionRecentActivity      = "recentActivity"
)

var endpoints = map[string]string{
	SectionOverview:            "/api/analytics/overview",
	SectionEnrollmentTrends:    "/api/analytics/enrollment-trends",
	SectionClassesByDepartment: "/api/analytics/classes-by-department",
	SectionCapacityStatus:      "/api/analytics/capacity-status",
	SectionUserDistribution:    "/api/analytics/user-distribution",
	SectionRecentActivity:      "/api/analytics/recent-activity",
}

var sectionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "console_dashboard_section_failures_total",
	Help: "Dashboard sections that fell back to their empty default after a failed fetch",
}, []string{"section"})

// ErrNoClient is returned when the aggregator has nothing to fetch with
var ErrNoClient = errors.New("analytics: client is required")

// JSONGetter fetches and decodes one backend document
type JSONGetter interface {
	GetJSON(ctx context.Context, path string, out interface{}) error
}

// Status describes how a section was filled
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Section is the fill state of one dashboard section
type Section struct {
	Status Status `json:"status"`
	Err    error  `json:"-"`
}

// NoData reports whether the section should render its empty state
func (s Section) NoData() bool {
	return s.Status != StatusOK
}

// Dashboard is the dashboard view model. Every field is usable even when its fetch failed.
type Dashboard struct {
	Overview            dto.Overview              `json:"overview"`
	EnrollmentTrends    []dto.EnrollmentTrend     `json:"enrollmentTrends"`
	ClassesByDepartment []dto.ClassesByDepartment `json:"classesByDepartment"`
	CapacityStatus      dto.CapacityCategories    `json:"capacityStatus"`
	UserDistribution    []dto.UserDistribution    `json:"userDistribution"`
	RecentActivity      []dto.RecentActivity      `json:"recentActivity"`

	Sections map[string]Section `json:"sections"`
}

// Options configures an Aggregator
type Options struct {
	RecentActivityLimit int
	Timeout             time.Duration
	Logger              zerolog.Logger
}

// Aggregator fans the dashboard feeds out concurrently
type Aggregator struct {
	client  JSONGetter
	limit   int
	timeout time.Duration
	logger  zerolog.Logger
}

// NewAggregator creates an aggregator over client
func NewAggregator(client JSONGetter, opts Options) (*Aggregator, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if opts.RecentActivityLimit <= 0 {
		opts.RecentActivityLimit = DefaultRecentActivityLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Aggregator{
		client:  client,
		limit:   opts.RecentActivityLimit,
		timeout: opts.Timeout,
		logger:  opts.Logger.With().Str("component", "analytics").Logger(),
	}, nil
}

// Aggregate fetches every section concurrently. A failed section falls back
// to its empty default; only a missing client is an error.
func (a *Aggregator) Aggregate(ctx context.Context) (*Dashboard, error) {
	if a == nil || a.client == nil {
		return nil, ErrNoClient
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		overview dto.Overview
		trends   []dto.EnrollmentTrend
		byDept   []dto.ClassesByDepartment
		capacity dto.CapacityStatus
		roles    []dto.UserDistribution
		activity []dto.RecentActivity
	)
	targets := map[string]interface{}{
		SectionOverview:            &overview,
		SectionEnrollmentTrends:    &trends,
		SectionClassesByDepartment: &byDept,
		SectionCapacityStatus:      &capacity,
		SectionUserDistribution:    &roles,
		SectionRecentActivity:      &activity,
	}

	done := make(chan sectionResult, len(endpoints))
	g, gCtx := errgroup.WithContext(ctx)
	for name, path := range endpoints {
		name, path := name, path
		g.Go(func() error {
			done <- sectionResult{name: name, err: a.fetch(gCtx, path, targets[name])}
			// a failed section must not cancel its siblings
			return nil
		})
	}
	_ = g.Wait()
	close(done)

	results := make(map[string]error, len(endpoints))
	for r := range done {
		results[r.name] = r.err
	}

	d := &Dashboard{
		EnrollmentTrends:    []dto.EnrollmentTrend{},
		ClassesByDepartment: []dto.ClassesByDepartment{},
		UserDistribution:    []dto.UserDistribution{},
		RecentActivity:      []dto.RecentActivity{},
		Sections:            make(map[string]Section, len(endpoints)),
	}

	if a.settle(d, SectionOverview, results, overview == dto.Overview{}) {
		d.Overview = overview
	}
	if a.settle(d, SectionEnrollmentTrends, results, len(trends) == 0) {
		d.EnrollmentTrends = trends
	}
	if a.settle(d, SectionClassesByDepartment, results, len(byDept) == 0) {
		d.ClassesByDepartment = byDept
	}
	categories := capacity.Categories
	if len(capacity.Classes) > 0 {
		categories = Categorize(capacity.Classes)
	}
	if a.settle(d, SectionCapacityStatus, results, categories.Total() == 0) {
		d.CapacityStatus = categories
	}
	if a.settle(d, SectionUserDistribution, results, len(roles) == 0) {
		d.UserDistribution = roles
	}
	if a.settle(d, SectionRecentActivity, results, len(activity) == 0) {
		d.RecentActivity = LatestActivity(activity, a.limit)
	}

	return d, nil
}

type sectionResult struct {
	name string
	err  error
}

func (a *Aggregator) fetch(ctx context.Context, path string, out interface{}) error {
	env := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	return a.client.GetJSON(ctx, path, &env)
}

// settle records the status of one section and reports whether its data is usable
func (a *Aggregator) settle(d *Dashboard, name string, results map[string]error, empty bool) bool {
	if err := results[name]; err != nil {
		sectionFailures.WithLabelValues(name).Inc()
		a.logger.Warn().Err(err).Str("section", name).Msg("Dashboard section unavailable")
		d.Sections[name] = Section{Status: StatusFailed, Err: err}
		return false
	}
	if empty {
		d.Sections[name] = Section{Status: StatusEmpty}
		return false
	}
	d.Sections[name] = Section{Status: StatusOK}
	return true
}

// LatestActivity returns the newest events first, at most limit of them.
// Events are not deduplicated.
func LatestActivity(events []dto.RecentActivity, limit int) []dto.RecentActivity {
	out := append([]dto.RecentActivity(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
