package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
	"github.com/rahmatrdn/go-sql-dashboard/internal/metric"
	"github.com/rahmatrdn/go-sql-dashboard/internal/repository/lakehouse"
)

type SummaryUsecase interface {
	// Summarize computes today's headline stats for every workspace. A
	// workspace that fails is reported with its error, not dropped.
	Summarize(ctx context.Context) []entity.WorkspaceSummary
}

type summaryUsecase struct {
	*dashboardUsecase
}

func NewSummaryUsecase(
	chClient lakehouse.LakehouseClient,
	queries *metric.Queries,
	opts DashboardOptions,
	log *zap.Logger,
) SummaryUsecase {
	d := NewDashboardUsecase(chClient, queries, opts, log).(*dashboardUsecase)
	return &summaryUsecase{dashboardUsecase: d}
}

func (u *summaryUsecase) Summarize(ctx context.Context) []entity.WorkspaceSummary {
	workspaces := u.chClient.Workspaces()
	summaries := make([]entity.WorkspaceSummary, 0, len(workspaces))
	for _, ws := range workspaces {
		summaries = append(summaries, u.summarize(ctx, ws))
	}
	return summaries
}

func (u *summaryUsecase) summarize(ctx context.Context, workspace string) entity.WorkspaceSummary {
	summary := entity.WorkspaceSummary{Workspace: workspace, GeneratedAt: u.opts.Now()}

	p, err := u.buildPlan(u.DefaultRequest())
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	summary.WindowStart = p.day.Start()
	summary.WindowEnd = p.day.End()

	// Summaries always read fresh numbers.
	res, err := u.chClient.Query(ctx, workspace, u.queries.StatsSummary(p.day), 0)
	if err != nil {
		summary.Error = err.Error()
		if errors.Is(err, lakehouse.ErrConnectionUnavailable) {
			summary.Error += "; " + lakehouse.Remediation
		}
		u.log.Warn("workspace summary failed", zap.String("workspace", workspace), zap.Error(err))
		return summary
	}

	summary.Stats = mapStatsSummary(res)
	u.log.Debug("workspace summarized",
		zap.String("workspace", workspace),
		zap.Int64("total", summary.Stats.Total))
	return summary
}
