package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	errwrap "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
	"github.com/rahmatrdn/go-sql-dashboard/internal/helper"
	"github.com/rahmatrdn/go-sql-dashboard/internal/repository/lakehouse"
	"github.com/rahmatrdn/go-sql-dashboard/internal/usecase"
)

type mockDashboardUsecase struct {
	mock.Mock
}

func (m *mockDashboardUsecase) Analyze(ctx context.Context, workspace string, req entity.DashboardRequest) (*entity.Dashboard, error) {
	args := m.Called(ctx, workspace, req)
	d, _ := args.Get(0).(*entity.Dashboard)
	return d, args.Error(1)
}

func (m *mockDashboardUsecase) AnalyzeSection(ctx context.Context, workspace string, req entity.DashboardRequest, section string) (*entity.Dashboard, error) {
	args := m.Called(ctx, workspace, req, section)
	d, _ := args.Get(0).(*entity.Dashboard)
	return d, args.Error(1)
}

func (m *mockDashboardUsecase) Facets(ctx context.Context, workspace string) (*entity.Facets, error) {
	args := m.Called(ctx, workspace)
	f, _ := args.Get(0).(*entity.Facets)
	return f, args.Error(1)
}

func (m *mockDashboardUsecase) Workspaces() []string {
	return m.Called().Get(0).([]string)
}

func (m *mockDashboardUsecase) DefaultRequest() entity.DashboardRequest {
	return entity.DashboardRequest{
		SlowThresholdMs: 10000,
		DaysOfStat:      7,
		RowLimit:        500,
		Bins:            100,
		Percentiles:     "p50,p90,p99",
		ExcludeErrors:   true,
	}
}

func newTestHandler(t *testing.T) (*fiber.App, *mockDashboardUsecase) {
	t.Helper()
	validator, err := helper.NewValidator()
	require.NoError(t, err)

	uc := &mockDashboardUsecase{}
	app := fiber.New()
	NewDashboardHandler(uc, validator, nil).Register(app)
	return app, uc
}

func doJSON(t *testing.T, app *fiber.App, target string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func rate(v float64) *float64 { return &v }

func TestGetDashboard_ParsesSelections(t *testing.T) {
	app, uc := newTestHandler(t)

	want := uc.DefaultRequest()
	want.Date = "2026-10-14"
	want.Clusters = []string{"etl", "adhoc"}
	want.Users = []string{"alice"}
	want.SlowThresholdMs = 2500
	want.ExcludeErrors = false

	uc.On("Analyze", mock.Anything, "prod", want).Return(&entity.Dashboard{
		Workspace: "prod",
		Stats:     &entity.StatsSummary{Total: 4, Succeed: 4, SucceedRate: rate(100)},
	}, nil).Once()

	status, body := doJSON(t, app,
		"/workspaces/prod/dashboard?date=2026-10-14&cluster=etl&cluster=adhoc&user=alice&slow_threshold=2500&exclude_errors=false")
	assert.Equal(t, fiber.StatusOK, status)

	data := body["data"].(map[string]interface{})
	stats := data["stats"].(map[string]interface{})
	assert.Equal(t, float64(4), stats["total"])
	assert.Equal(t, float64(100), stats["succeed_rate"])
	assert.Nil(t, stats["failed_rate"])
	assert.NotContains(t, data, "histogram")
	uc.AssertExpectations(t)
}

func TestGetDashboard_ValidationErrors(t *testing.T) {
	app, uc := newTestHandler(t)

	cases := []struct {
		name  string
		query string
		field string
	}{
		{name: "bad date", query: "date=yesterday", field: "date"},
		{name: "negative threshold", query: "slow_threshold=-5", field: "slow_threshold"},
		{name: "bins", query: "bins=50", field: "bins"},
		{name: "days", query: "days=0", field: "days"},
		{name: "limit", query: "limit=20000", field: "limit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doJSON(t, app, "/workspaces/prod/dashboard?"+tc.query)
			assert.Equal(t, fiber.StatusBadRequest, status)
			fields := body["fields"].(map[string]interface{})
			assert.Contains(t, fields, tc.field)
		})
	}
	uc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetDashboard_UnparsableQuery(t *testing.T) {
	app, _ := newTestHandler(t)

	status, body := doJSON(t, app, "/workspaces/prod/dashboard?limit=many")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "Invalid query parameters")
}

func TestGetDashboard_ErrorMapping(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		remediation bool
	}{
		{
			name:   "invalid request",
			err:    errwrap.Wrap(usecase.ErrInvalidRequest, "invalid percentile band"),
			status: fiber.StatusBadRequest,
		},
		{
			name: "connection unavailable",
			err: &lakehouse.Error{
				Kind: lakehouse.ErrConnectionUnavailable, Op: "op", Workspace: "prod", Err: errors.New("refused"),
			},
			status:      fiber.StatusServiceUnavailable,
			remediation: true,
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: fiber.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, uc := newTestHandler(t)
			uc.On("Analyze", mock.Anything, "prod", mock.Anything).Return(nil, tc.err).Once()

			status, body := doJSON(t, app, "/workspaces/prod/dashboard")
			assert.Equal(t, tc.status, status)
			if tc.remediation {
				assert.Equal(t, lakehouse.Remediation, body["remediation"])
			} else {
				assert.NotContains(t, body, "remediation")
			}
		})
	}
}

func TestListWorkspacesAndFacets(t *testing.T) {
	app, uc := newTestHandler(t)
	uc.On("Workspaces").Return([]string{"dev", "prod"})
	uc.On("Facets", mock.Anything, "prod").Return(&entity.Facets{
		Workspace: "prod", Clusters: []string{"etl"}, Users: []string{"alice"},
	}, nil)

	status, body := doJSON(t, app, "/workspaces")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []interface{}{"dev", "prod"}, body["data"])

	status, body = doJSON(t, app, "/workspaces/prod/facets")
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"etl"}, data["clusters"])
}

func TestExportSection(t *testing.T) {
	app, uc := newTestHandler(t)
	msg := "syntax error"
	started := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	duration := 1500.0
	uc.On("AnalyzeSection", mock.Anything, "prod", mock.Anything, entity.SectionFailed).Return(&entity.Dashboard{
		Workspace:   "prod",
		WindowStart: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
		Failed: []entity.JobRow{{
			JobID: "j1", StartTime: started, DurationMs: &duration, Status: entity.JobStatusFailed,
			VirtualCluster: "etl", JobCreator: "alice", JobText: "select 1, 2", ErrorMessage: &msg,
		}},
	}, nil).Once()
	uc.On("AnalyzeSection", mock.Anything, "prod", mock.Anything, entity.SectionQps).Return(&entity.Dashboard{
		Workspace: "prod",
		Errors:    map[string]string{entity.SectionQps: "query execution failed"},
	}, nil).Once()

	resp, err := app.Test(httptest.NewRequest("GET", "/workspaces/prod/dashboard/export/failed", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "prod-failed-2026-10-14.csv")

	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, jobHeader, records[0])
	assert.Equal(t, []string{
		"j1", "2026-10-14T08:00:00Z", "1500", "FAILED", "etl", "alice", "select 1, 2",
		"syntax error", "", "", "", "",
	}, records[1])

	resp, err = app.Test(httptest.NewRequest("GET", "/workspaces/prod/dashboard/export/qps", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/workspaces/prod/dashboard/export/bogus", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Unknown section")

	uc.AssertExpectations(t)
	uc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportSection_KeepsSelections(t *testing.T) {
	app, uc := newTestHandler(t)

	want := uc.DefaultRequest()
	want.Date = "2026-10-01"
	want.Clusters = []string{"etl"}
	uc.On("AnalyzeSection", mock.Anything, "prod", want, entity.SectionSlow).Return(&entity.Dashboard{
		Workspace:   "prod",
		WindowStart: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}, nil).Once()

	resp, err := app.Test(httptest.NewRequest("GET", "/workspaces/prod/dashboard/export/slow?date=2026-10-01&cluster=etl", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "prod-slow-2026-10-01.csv")
	uc.AssertExpectations(t)
}

func TestGetDashboard_RendersExportLinksWithSelections(t *testing.T) {
	validator, err := helper.NewValidator()
	require.NoError(t, err)

	engine := html.New("../../../views", ".html")
	engine.AddFuncMap(TemplateFuncs())
	app := fiber.New(fiber.Config{Views: engine})

	uc := &mockDashboardUsecase{}
	NewDashboardHandler(uc, validator, nil).Register(app)

	duration := 120.0
	uc.On("Workspaces").Return([]string{"prod"})
	uc.On("Analyze", mock.Anything, "prod", mock.Anything).Return(&entity.Dashboard{
		Workspace:   "prod",
		WindowStart: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		Stats:       &entity.StatsSummary{Total: 1, Failed: 1, FailedRate: rate(100)},
		Failed: []entity.JobRow{{
			JobID: "j1", StartTime: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
			DurationMs: &duration, Status: entity.JobStatusFailed, JobText: "select 1",
		}},
	}, nil).Once()

	resp, err := app.Test(httptest.NewRequest("GET", "/workspaces/prod/dashboard?date=2026-10-01&cluster=etl", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(body)
	assert.Contains(t, page, "/workspaces/prod/dashboard/export/failed?date=2026-10-01&amp;cluster=etl")
	assert.Contains(t, page, "/workspaces/prod/dashboard/export/stats?date=2026-10-01&amp;cluster=etl")
	uc.AssertExpectations(t)
}

func TestExportLinks(t *testing.T) {
	links := exportLinks("prod", "")
	assert.Len(t, links, len(entity.Sections))
	assert.Equal(t, "/workspaces/prod/dashboard/export/daily", string(links[entity.SectionDaily]))

	links = exportLinks("a b", "days=3")
	assert.Equal(t, "/workspaces/a%20b/dashboard/export/qps?days=3", string(links[entity.SectionQps]))
}

func TestSectionTable_Stats(t *testing.T) {
	header, records := sectionTable(&entity.Dashboard{
		Stats: &entity.StatsSummary{Total: 3, Failed: 1, FailedRate: rate(33.334)},
	}, entity.SectionStats)

	require.Len(t, records, 1)
	assert.Equal(t, "total", header[0])
	assert.Equal(t, "3", records[0][0])
	assert.Equal(t, "33.334", records[0][4])
	assert.Equal(t, "", records[0][2])
}
