package handler

import (
	"encoding/csv"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
)

// ExportSection streams one dashboard section as CSV.
func (h *DashboardHandler) ExportSection(c *fiber.Ctx) error {
	workspace := c.Params("workspace")
	section := c.Params("section")
	if !entity.IsSection(section) {
		return h.sendError(c, fiber.NewError(fiber.StatusNotFound, "Unknown section "+section))
	}

	req, err := h.parseRequest(c)
	if err != nil {
		return h.sendError(c, err)
	}

	dashboard, err := h.dashboardUsecase.AnalyzeSection(c.UserContext(), workspace, req, section)
	if err != nil {
		return h.sendError(c, err)
	}
	if msg, failed := dashboard.Errors[section]; failed {
		return h.sendError(c, fiber.NewError(fiber.StatusBadGateway, msg))
	}

	header, records := sectionTable(dashboard, section)

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition,
		`attachment; filename="`+workspace+"-"+section+"-"+dashboard.WindowStart.Format("2006-01-02")+`.csv"`)

	w := csv.NewWriter(c.Response().BodyWriter())
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return w.Error()
}

var jobHeader = []string{
	"job_id", "start_time", "duration_ms", "status", "virtual_cluster", "job_creator",
	"job_text", "error_message", "input_bytes", "output_bytes", "cache_hit", "cru",
}

func sectionTable(d *entity.Dashboard, section string) ([]string, [][]string) {
	switch section {
	case entity.SectionStats:
		header := []string{
			"total", "succeed", "succeed_rate", "failed", "failed_rate", "cancelled",
			"cancelled_rate", "running", "slow", "slow_rate", "first_sql", "last_sql",
		}
		if d.Stats == nil {
			return header, nil
		}
		s := d.Stats
		return header, [][]string{{
			formatInt(s.Total), formatInt(s.Succeed), formatRate(s.SucceedRate),
			formatInt(s.Failed), formatRate(s.FailedRate), formatInt(s.Cancelled),
			formatRate(s.CancelledRate), formatInt(s.Running), formatInt(s.Slow),
			formatRate(s.SlowRate), formatTimePtr(s.FirstSQL), formatTimePtr(s.LastSQL),
		}}

	case entity.SectionHistogram:
		records := make([][]string, 0, len(d.Histogram))
		for _, b := range d.Histogram {
			records = append(records, []string{
				formatInt(b.Percent), strconv.FormatFloat(b.AvgDurationMs, 'f', -1, 64), formatInt(b.MaxDurationMs),
			})
		}
		return []string{"percent", "avg_duration_ms", "max_duration_ms"}, records

	case entity.SectionQps:
		records := make([][]string, 0, len(d.Qps))
		for _, p := range d.Qps {
			records = append(records, []string{
				formatTime(p.Minute), formatInt(p.MaxQPS), formatInt(p.QPM), formatInt(p.Delta),
			})
		}
		return []string{"minute", "max_qps", "qpm", "delta"}, records

	case entity.SectionDaily:
		records := make([][]string, 0, len(d.Daily))
		for _, s := range d.Daily {
			records = append(records, []string{
				s.Date.Format("2006-01-02"), s.Weekday, formatInt(s.Total),
				formatInt(s.Succeed), formatRate(s.SucceedRate),
				formatInt(s.Failed), formatRate(s.FailedRate),
				formatInt(s.Cancelled), formatRate(s.CancelledRate),
				formatInt(s.Running), formatInt(s.Slow), formatRate(s.SlowRate),
				formatInt(s.AvgMs), formatInt(s.P50Ms), formatInt(s.P75Ms), formatInt(s.P90Ms),
				formatInt(s.P95Ms), formatInt(s.P99Ms), formatInt(s.MaxMs),
			})
		}
		return []string{
			"date", "weekday", "total", "succeed", "succeed_rate", "failed", "failed_rate",
			"cancelled", "cancelled_rate", "running", "slow", "slow_rate",
			"avg_ms", "p50_ms", "p75_ms", "p90_ms", "p95_ms", "p99_ms", "max_ms",
		}, records
	}

	var jobs []entity.JobRow
	switch section {
	case entity.SectionRunning:
		jobs = d.Running
	case entity.SectionFailed:
		jobs = d.Failed
	case entity.SectionCancelled:
		jobs = d.Cancelled
	case entity.SectionSlow:
		jobs = d.Slow
	}
	records := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		records = append(records, []string{
			j.JobID, formatTime(j.StartTime), formatFloatPtr(j.DurationMs), string(j.Status),
			j.VirtualCluster, j.JobCreator, j.JobText, formatStringPtr(j.ErrorMessage),
			formatIntPtr(j.InputBytes), formatIntPtr(j.OutputBytes), formatBoolPtr(j.CacheHit),
			formatFloatPtr(j.CRU),
		})
	}
	return jobHeader, records
}

func formatInt(n int64) string { return strconv.FormatInt(n, 10) }

// formatRate renders a missing rate as an empty cell.
func formatRate(r *float64) string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(*r, 'f', 3, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatIntPtr(n *int64) string {
	if n == nil {
		return ""
	}
	return formatInt(*n)
}

func formatBoolPtr(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func formatStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TemplateFuncs exposes the cell formatters to the html views.
func TemplateFuncs() map[string]interface{} {
	return map[string]interface{}{
		"rate":     formatRate,
		"time":     formatTime,
		"timeptr":  formatTimePtr,
		"floatptr": formatFloatPtr,
		"intptr":   formatIntPtr,
		"boolptr":  formatBoolPtr,
		"strptr":   formatStringPtr,
	}
}
