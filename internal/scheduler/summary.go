package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	errwrap "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rahmatrdn/go-sql-dashboard/internal/publisher"
	"github.com/rahmatrdn/go-sql-dashboard/internal/usecase"
)

// SummaryJob periodically summarizes every workspace and publishes the result.
type SummaryJob struct {
	summaryUsecase usecase.SummaryUsecase
	publisher      publisher.Publisher
	timeout        time.Duration
	log            *zap.Logger

	scheduler gocron.Scheduler
}

func NewSummaryJob(
	summaryUsecase usecase.SummaryUsecase,
	pub publisher.Publisher,
	timeout time.Duration,
	log *zap.Logger,
) *SummaryJob {
	return &SummaryJob{
		summaryUsecase: summaryUsecase,
		publisher:      pub,
		timeout:        timeout,
		log:            log,
	}
}

// RunOnce summarizes and publishes synchronously.
func (j *SummaryJob) RunOnce(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	summaries := j.summaryUsecase.Summarize(ctx)
	if err := j.publisher.Publish(ctx, summaries); err != nil {
		return errwrap.Wrap(err, "SummaryJob.RunOnce")
	}
	j.log.Info("summaries published", zap.Int("workspaces", len(summaries)))
	return nil
}

// Start schedules RunOnce on the cron expression in loc.
func (j *SummaryJob) Start(cronExpr string, loc *time.Location) error {
	funcName := "SummaryJob.Start"

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return errwrap.Wrap(err, funcName)
	}

	_, err = s.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			if err := j.RunOnce(context.Background()); err != nil {
				j.log.Error("summary job failed", zap.Error(err))
			}
		}),
		gocron.WithName("workspace-summary"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return errwrap.Wrapf(err, "%s: cron %q", funcName, cronExpr)
	}

	s.Start()
	j.scheduler = s
	j.log.Info("summary job scheduled", zap.String("cron", cronExpr))
	return nil
}

func (j *SummaryJob) Shutdown() error {
	if j.scheduler == nil {
		return nil
	}
	return j.scheduler.Shutdown()
}
