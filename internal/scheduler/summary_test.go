package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
)

type mockSummaryUsecase struct {
	mock.Mock
}

func (m *mockSummaryUsecase) Summarize(ctx context.Context) []entity.WorkspaceSummary {
	return m.Called(ctx).Get(0).([]entity.WorkspaceSummary)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, summaries []entity.WorkspaceSummary) error {
	return m.Called(ctx, summaries).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

var summaries = []entity.WorkspaceSummary{{Workspace: "prod", Stats: &entity.StatsSummary{Total: 1}}}

func TestSummaryJob_RunOnce(t *testing.T) {
	uc := &mockSummaryUsecase{}
	pub := &mockPublisher{}
	uc.On("Summarize", mock.Anything).Return(summaries)
	pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), summaries).Return(nil)

	job := NewSummaryJob(uc, pub, time.Minute, zap.NewNop())
	require.NoError(t, job.RunOnce(context.Background()))

	uc.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestSummaryJob_RunOncePublishError(t *testing.T) {
	uc := &mockSummaryUsecase{}
	pub := &mockPublisher{}
	uc.On("Summarize", mock.Anything).Return(summaries)
	pub.On("Publish", mock.Anything, summaries).Return(errors.New("broker down"))

	job := NewSummaryJob(uc, pub, 0, zap.NewNop())
	err := job.RunOnce(context.Background())
	assert.ErrorContains(t, err, "broker down")
}

func TestSummaryJob_StartRejectsBadCron(t *testing.T) {
	job := NewSummaryJob(&mockSummaryUsecase{}, &mockPublisher{}, 0, zap.NewNop())

	err := job.Start("not a cron", time.UTC)
	assert.Error(t, err)
	assert.NoError(t, job.Shutdown())
}

func TestSummaryJob_StartAndShutdown(t *testing.T) {
	job := NewSummaryJob(&mockSummaryUsecase{}, &mockPublisher{}, 0, zap.NewNop())

	require.NoError(t, job.Start("0 6 * * *", time.UTC))
	assert.NoError(t, job.Shutdown())
}
