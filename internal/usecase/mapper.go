package usecase

import (
	"strconv"
	"strings"
	"time"

	errwrap "github.com/pkg/errors"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
	"github.com/rahmatrdn/go-sql-dashboard/internal/filter"
	"github.com/rahmatrdn/go-sql-dashboard/internal/metric"
)

const dayLayout = "2006-01-02"

func mapStatsSummary(res *entity.QueryResult) *entity.StatsSummary {
	stats := &entity.StatsSummary{}
	if res.Empty() {
		return stats
	}

	row := res.Rows[0]
	stats.Total = getInt64(row["total"])
	stats.Succeed = getInt64(row["succeed"])
	stats.Failed = getInt64(row["failed"])
	stats.Cancelled = getInt64(row["cancelled"])
	stats.Running = getInt64(row["running"])
	stats.Slow = getInt64(row["slow"])
	stats.FirstSQL = getTimePtr(row["first_sql"])
	stats.LastSQL = getTimePtr(row["last_sql"])

	stats.SucceedRate = metric.FloorRate(stats.Succeed, stats.Total)
	stats.SlowRate = metric.FloorRate(stats.Slow, stats.Total)
	stats.FailedRate = metric.CeilRate(stats.Failed, stats.Total)
	stats.CancelledRate = metric.CeilRate(stats.Cancelled, stats.Total)
	return stats
}

func mapHistogram(res *entity.QueryResult) []entity.DurationBucket {
	if res.Empty() {
		return nil
	}
	buckets := make([]entity.DurationBucket, 0, len(res.Rows))
	for _, row := range res.Rows {
		buckets = append(buckets, entity.DurationBucket{
			Percent:       getInt64(row["percent"]),
			AvgDurationMs: getFloat64(row["avg_duration"]),
			MaxDurationMs: getInt64(row["max_duration"]),
		})
	}
	return buckets
}

func mapQps(res *entity.QueryResult) []entity.QpsPoint {
	if res.Empty() {
		return nil
	}
	points := make([]entity.QpsPoint, 0, len(res.Rows))
	for _, row := range res.Rows {
		p := entity.QpsPoint{
			Minute: getTime(row["time_minute"]),
			MaxQPS: getInt64(row["max_qps"]),
			QPM:    getInt64(row["qpm"]),
		}
		p.Delta = p.QPM - p.MaxQPS
		points = append(points, p)
	}
	return points
}

// mapJobs fills only the fields whose columns the listing selected.
func mapJobs(res *entity.QueryResult) []entity.JobRow {
	if res.Empty() {
		return nil
	}
	jobs := make([]entity.JobRow, 0, len(res.Rows))
	for _, row := range res.Rows {
		job := entity.JobRow{
			JobID:          getString(row[entity.ColumnJobID]),
			StartTime:      getTime(row[entity.ColumnStartTime]),
			Status:         entity.JobStatus(getString(row[entity.ColumnStatus])),
			VirtualCluster: getString(row[entity.ColumnVirtualCluster]),
			JobCreator:     getString(row[entity.ColumnJobCreator]),
			JobText:        getString(row[entity.ColumnJobText]),
		}
		if v, ok := row["duration"]; ok {
			d := getFloat64(v)
			job.DurationMs = &d
		}
		if v, ok := row[entity.ColumnErrorMessage]; ok && v != nil {
			msg := getString(v)
			job.ErrorMessage = &msg
		}
		if v, ok := row[entity.ColumnInputBytes]; ok {
			n := getInt64(v)
			job.InputBytes = &n
		}
		if v, ok := row[entity.ColumnOutputBytes]; ok {
			n := getInt64(v)
			job.OutputBytes = &n
		}
		if v, ok := row[entity.ColumnCacheHit]; ok {
			b := getBool(v)
			job.CacheHit = &b
		}
		if v, ok := row[entity.ColumnCRU]; ok {
			f := getFloat64(v)
			job.CRU = &f
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func mapDaily(res *entity.QueryResult, loc *time.Location) ([]entity.DailyStat, error) {
	if res.Empty() {
		return nil, nil
	}
	days := make([]entity.DailyStat, 0, len(res.Rows))
	for _, row := range res.Rows {
		d := entity.DailyStat{
			Total:     getInt64(row["total"]),
			Succeed:   getInt64(row["succeed"]),
			Failed:    getInt64(row["failed"]),
			Cancelled: getInt64(row["cancelled"]),
			Running:   getInt64(row["running"]),
			Slow:      getInt64(row["slow"]),
			AvgMs:     metric.TruncMs(getFloat64(row["avg_duration"])),
			P50Ms:     metric.TruncMs(getFloat64(row["p50"])),
			P75Ms:     metric.TruncMs(getFloat64(row["p75"])),
			P90Ms:     metric.TruncMs(getFloat64(row["p90"])),
			P95Ms:     metric.TruncMs(getFloat64(row["p95"])),
			P99Ms:     metric.TruncMs(getFloat64(row["p99"])),
			MaxMs:     metric.TruncMs(getFloat64(row["max_duration"])),
		}

		// ds may carry a weekday suffix, e.g. "2026-10-14 Wed".
		ds := getString(row["ds"])
		if len(ds) < len(dayLayout) {
			return nil, errwrap.Errorf("daily row has unparseable ds %q", ds)
		}
		t, err := time.ParseInLocation(dayLayout, ds[:len(dayLayout)], loc)
		if err != nil {
			return nil, errwrap.Wrapf(err, "daily row has unparseable ds %q", ds)
		}
		d.Date = t
		d.Weekday = t.Weekday().String()[:3]

		d.SucceedRate = metric.FloorRate(d.Succeed, d.Total)
		d.SlowRate = metric.FloorRate(d.Slow, d.Total)
		d.FailedRate = metric.CeilRate(d.Failed, d.Total)
		d.CancelledRate = metric.CeilRate(d.Cancelled, d.Total)
		days = append(days, d)
	}
	return days, nil
}

// Helpers for type assertion (drivers return various types)
func getString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func getInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return metric.TruncMs(n)
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return metric.TruncMs(f)
		}
	}
	return 0
}

func getFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return 0
}

func getBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case string:
		return strings.EqualFold(b, "true") || b == "1"
	}
	return false
}

func getTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.RFC3339Nano, filter.TimestampLayout, dayLayout} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

func getTimePtr(v interface{}) *time.Time {
	t := getTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}
