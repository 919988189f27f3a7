package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	errwrap "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
	"github.com/rahmatrdn/go-sql-dashboard/internal/filter"
	"github.com/rahmatrdn/go-sql-dashboard/internal/metric"
	"github.com/rahmatrdn/go-sql-dashboard/internal/repository/lakehouse"
)

var ErrInvalidRequest = errwrap.New("invalid request")

type DashboardUsecase interface {
	Analyze(ctx context.Context, workspace string, req entity.DashboardRequest) (*entity.Dashboard, error)
	// AnalyzeSection runs only the named section's query.
	AnalyzeSection(ctx context.Context, workspace string, req entity.DashboardRequest, section string) (*entity.Dashboard, error)
	Facets(ctx context.Context, workspace string) (*entity.Facets, error)
	Workspaces() []string
	DefaultRequest() entity.DashboardRequest
}

// DashboardOptions carries the configured defaults of the pipeline.
type DashboardOptions struct {
	Location          *time.Location
	CacheTTL          time.Duration
	SlowThresholdMs   int64
	DaysOfStat        int
	RowLimit          int
	Bins              int
	ExclusionsEnabled bool
	ErrorPatterns     []string
	IgnoreSeparator   string
	Percentiles       string
	Now               func() time.Time
}

type dashboardUsecase struct {
	chClient lakehouse.LakehouseClient
	queries  *metric.Queries
	opts     DashboardOptions
	log      *zap.Logger
}

func NewDashboardUsecase(
	chClient lakehouse.LakehouseClient,
	queries *metric.Queries,
	opts DashboardOptions,
	log *zap.Logger,
) DashboardUsecase {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IgnoreSeparator == "" {
		opts.IgnoreSeparator = ";"
	}
	if opts.Percentiles == "" {
		opts.Percentiles = metric.DefaultPercentileBand
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &dashboardUsecase{
		chClient: chClient,
		queries:  queries,
		opts:     opts,
		log:      log,
	}
}

func (u *dashboardUsecase) Workspaces() []string {
	return u.chClient.Workspaces()
}

func (u *dashboardUsecase) DefaultRequest() entity.DashboardRequest {
	return entity.DashboardRequest{
		SlowThresholdMs: u.opts.SlowThresholdMs,
		DaysOfStat:      u.opts.DaysOfStat,
		RowLimit:        u.opts.RowLimit,
		Bins:            u.opts.Bins,
		Percentiles:     u.opts.Percentiles,
		ExcludeErrors:   u.opts.ExclusionsEnabled,
	}
}

func (u *dashboardUsecase) Facets(ctx context.Context, workspace string) (*entity.Facets, error) {
	clusters, err := u.chClient.ListVirtualClusters(ctx, workspace)
	if err != nil {
		return nil, err
	}
	users, err := u.chClient.ListUsers(ctx, workspace)
	if err != nil {
		return nil, err
	}
	return &entity.Facets{Workspace: workspace, Clusters: clusters, Users: users}, nil
}

// plan is a validated request turned into filter specs.
type plan struct {
	day   filter.Spec
	trend filter.Spec
	band  entity.PercentileBand
	req   entity.DashboardRequest
}

func (u *dashboardUsecase) buildPlan(req entity.DashboardRequest) (*plan, error) {
	if req.DaysOfStat == 0 {
		req.DaysOfStat = u.opts.DaysOfStat
	}
	if req.RowLimit == 0 {
		req.RowLimit = u.opts.RowLimit
	}
	if req.Bins == 0 {
		req.Bins = u.opts.Bins
	}
	if req.RowLimit < 1 {
		return nil, invalidRequest(errwrap.Errorf("row limit must be positive, got %d", req.RowLimit))
	}
	if req.Bins != 100 && req.Bins != 1000 {
		return nil, invalidRequest(errwrap.Wrapf(metric.ErrInvalidBins, "got %d", req.Bins))
	}

	start, err := u.parseDay(req.Date)
	if err != nil {
		return nil, invalidRequest(err)
	}

	b := filter.NewBuilder().
		DateRange(entity.ColumnStartTime, start, start.AddDate(0, 0, 1)).
		Clusters(req.Clusters).
		Users(req.Users).
		IgnoreJobTexts(req.IgnoreSQLs, u.opts.IgnoreSeparator).
		SlowThreshold(req.SlowThresholdMs)
	if req.ExcludeErrors {
		b = b.ErrorExclusions(u.opts.ErrorPatterns)
	}
	day, err := b.Build()
	if err != nil {
		return nil, invalidRequest(err)
	}

	trend, err := day.WidenToDays(req.DaysOfStat)
	if err != nil {
		return nil, invalidRequest(err)
	}

	band, err := metric.ParsePercentileBand(req.Percentiles)
	if err != nil {
		return nil, invalidRequest(err)
	}

	return &plan{day: day, trend: trend, band: band, req: req}, nil
}

// parseDay returns midnight of date in the configured location, today when
// date is empty.
func (u *dashboardUsecase) parseDay(date string) (time.Time, error) {
	if date == "" {
		now := u.opts.Now().In(u.opts.Location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, u.opts.Location), nil
	}
	t, err := time.ParseInLocation(dayLayout, date, u.opts.Location)
	if err != nil {
		return time.Time{}, errwrap.Wrapf(err, "date %q must be YYYY-MM-DD", date)
	}
	return t, nil
}

type section struct {
	name  string
	query string
	apply func(res *entity.QueryResult) error
}

func (u *dashboardUsecase) Analyze(ctx context.Context, workspace string, req entity.DashboardRequest) (*entity.Dashboard, error) {
	return u.analyze(ctx, workspace, req, "")
}

func (u *dashboardUsecase) AnalyzeSection(ctx context.Context, workspace string, req entity.DashboardRequest, name string) (*entity.Dashboard, error) {
	if !entity.IsSection(name) {
		return nil, invalidRequest(errwrap.Errorf("unknown section %q", name))
	}
	return u.analyze(ctx, workspace, req, name)
}

// analyze runs every section, or only the one named by only.
func (u *dashboardUsecase) analyze(ctx context.Context, workspace string, req entity.DashboardRequest, only string) (*entity.Dashboard, error) {
	p, err := u.buildPlan(req)
	if err != nil {
		return nil, err
	}

	histogramSQL, err := u.queries.DurationHistogram(p.day, p.req.Bins)
	if err != nil {
		return nil, invalidRequest(err)
	}

	d := &entity.Dashboard{
		RunID:           uuid.NewString(),
		Workspace:       workspace,
		WindowStart:     p.day.Start(),
		WindowEnd:       p.day.End(),
		TrendStart:      p.trend.Start(),
		DaysOfStat:      p.req.DaysOfStat,
		SlowThresholdMs: p.day.SlowThresholdMs(),
		RowLimit:        p.req.RowLimit,
		Band:            p.band,
		Errors:          map[string]string{},
	}
	log := u.log.With(zap.String("run_id", d.RunID), zap.String("workspace", workspace))

	limit := p.req.RowLimit
	jobs := func(dst *[]entity.JobRow) func(res *entity.QueryResult) error {
		return func(res *entity.QueryResult) error {
			*dst = mapJobs(res)
			return nil
		}
	}
	sections := []section{
		{
			name:  entity.SectionStats,
			query: u.queries.StatsSummary(p.day),
			apply: func(res *entity.QueryResult) error {
				d.Stats = mapStatsSummary(res)
				return nil
			},
		},
		{
			name:  entity.SectionRunning,
			query: u.queries.RunningJobs(p.day, limit),
			apply: jobs(&d.Running),
		},
		{
			name:  entity.SectionHistogram,
			query: histogramSQL,
			apply: func(res *entity.QueryResult) error {
				d.Histogram = mapHistogram(res)
				return nil
			},
		},
		{
			name:  entity.SectionQps,
			query: u.queries.QpsSeries(p.day),
			apply: func(res *entity.QueryResult) error {
				d.Qps = mapQps(res)
				return nil
			},
		},
		{
			name:  entity.SectionFailed,
			query: u.queries.FailedJobs(p.day, limit, p.req.ExcludeErrors),
			apply: jobs(&d.Failed),
		},
		{
			name:  entity.SectionCancelled,
			query: u.queries.CancelledJobs(p.day, limit),
			apply: jobs(&d.Cancelled),
		},
		{
			name:  entity.SectionSlow,
			query: u.queries.SlowJobs(p.day, limit),
			apply: jobs(&d.Slow),
		},
		{
			name:  entity.SectionDaily,
			query: u.queries.DailyStats(p.trend),
			apply: func(res *entity.QueryResult) error {
				daily, err := mapDaily(res, u.opts.Location)
				if err != nil {
					return err
				}
				d.Daily = daily
				d.ErrorBars = metric.BuildErrorBars(daily, p.band)
				return nil
			},
		},
	}

	for _, s := range sections {
		if only != "" && s.name != only {
			continue
		}
		if err := u.runSection(ctx, log, d, workspace, s); err != nil {
			return nil, err
		}
	}

	if len(d.Errors) == 0 {
		d.Errors = nil
	}

	log.Info("dashboard analyzed",
		zap.Time("window_start", d.WindowStart),
		zap.String("section", only),
		zap.Int("failed_sections", len(d.Errors)))
	return d, nil
}

// runSection records a failed query on the dashboard and carries on. An
// unreachable workspace or a done context aborts the whole analysis.
func (u *dashboardUsecase) runSection(ctx context.Context, log *zap.Logger, d *entity.Dashboard, workspace string, s section) error {
	started := time.Now()
	res, err := u.chClient.Query(ctx, workspace, s.query, u.opts.CacheTTL)
	if err != nil {
		if errors.Is(err, lakehouse.ErrConnectionUnavailable) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errwrap.Wrap(ctxErr, "DashboardUsecase.Analyze")
		}
		d.Errors[s.name] = err.Error()
		log.Warn("section query failed", zap.String("section", s.name), zap.Error(err))
		return nil
	}

	if err := s.apply(res); err != nil {
		d.Errors[s.name] = err.Error()
		log.Warn("section result rejected", zap.String("section", s.name), zap.Error(err))
		return nil
	}
	log.Debug("section query done",
		zap.String("section", s.name),
		zap.Int("rows", len(res.Rows)),
		zap.Duration("took", time.Since(started)))
	return nil
}

// RequestError matches ErrInvalidRequest and keeps the rejected cause.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return ErrInvalidRequest.Error() + ": " + e.Err.Error() }

func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

func (e *RequestError) Unwrap() error { return e.Err }

func invalidRequest(err error) error {
	return &RequestError{Err: err}
}
