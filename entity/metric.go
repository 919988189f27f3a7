package entity

import (
	"time"
)

// StatsSummary is the single row status breakdown of one analysis window.
// Rates are percentages with three decimals and nil when Total is zero.
type StatsSummary struct {
	Total         int64      `json:"total"`
	Succeed       int64      `json:"succeed"`
	SucceedRate   *float64   `json:"succeed_rate"`
	Failed        int64      `json:"failed"`
	FailedRate    *float64   `json:"failed_rate"`
	Cancelled     int64      `json:"cancelled"`
	CancelledRate *float64   `json:"cancelled_rate"`
	Running       int64      `json:"running"`
	Slow          int64      `json:"slow"`
	SlowRate      *float64   `json:"slow_rate"`
	FirstSQL      *time.Time `json:"first_sql"`
	LastSQL       *time.Time `json:"last_sql"`
}

// DurationBucket is one percentile bin of successful job durations.
type DurationBucket struct {
	Percent       int64   `json:"percent"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	MaxDurationMs int64   `json:"max_duration_ms"`
}

// QpsPoint is one minute of the query rate series. Delta is the part of the
// minute that is not the peak second, for stacked charts.
type QpsPoint struct {
	Minute time.Time `json:"minute"`
	MaxQPS int64     `json:"max_qps"`
	QPM    int64     `json:"qpm"`
	Delta  int64     `json:"delta"`
}

// JobRow is a row of the failed, cancelled, slow and running listings. Each
// listing fills a different subset of the fields.
type JobRow struct {
	JobID          string    `json:"job_id"`
	StartTime      time.Time `json:"start_time"`
	DurationMs     *float64  `json:"duration_ms,omitempty"`
	Status         JobStatus `json:"status,omitempty"`
	VirtualCluster string    `json:"virtual_cluster,omitempty"`
	JobCreator     string    `json:"job_creator"`
	JobText        string    `json:"job_text"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	InputBytes     *int64    `json:"input_bytes,omitempty"`
	OutputBytes    *int64    `json:"output_bytes,omitempty"`
	CacheHit       *bool     `json:"cache_hit,omitempty"`
	CRU            *float64  `json:"cru,omitempty"`
}

// DailyStat is one calendar day of the trend view. Latencies are integer
// milliseconds, truncated.
type DailyStat struct {
	Date          time.Time `json:"date"`
	Weekday       string    `json:"weekday"`
	Total         int64     `json:"total"`
	Succeed       int64     `json:"succeed"`
	SucceedRate   *float64  `json:"succeed_rate"`
	Failed        int64     `json:"failed"`
	FailedRate    *float64  `json:"failed_rate"`
	Cancelled     int64     `json:"cancelled"`
	CancelledRate *float64  `json:"cancelled_rate"`
	Running       int64     `json:"running"`
	Slow          int64     `json:"slow"`
	SlowRate      *float64  `json:"slow_rate"`
	AvgMs         int64     `json:"avg_ms"`
	P50Ms         int64     `json:"p50_ms"`
	P75Ms         int64     `json:"p75_ms"`
	P90Ms         int64     `json:"p90_ms"`
	P95Ms         int64     `json:"p95_ms"`
	P99Ms         int64     `json:"p99_ms"`
	MaxMs         int64     `json:"max_ms"`
}

// Percentile returns the latency for one of p50, p75, p90, p95 or p99.
func (d DailyStat) Percentile(name string) (int64, bool) {
	switch name {
	case "p50":
		return d.P50Ms, true
	case "p75":
		return d.P75Ms, true
	case "p90":
		return d.P90Ms, true
	case "p95":
		return d.P95Ms, true
	case "p99":
		return d.P99Ms, true
	}
	return 0, false
}

// PercentileBand names the three percentiles drawn as an error bar series.
type PercentileBand struct {
	Low  string `json:"low"`
	Mid  string `json:"mid"`
	High string `json:"high"`
}

type ErrorBarPoint struct {
	Date time.Time `json:"date"`
	Low  int64     `json:"low"`
	Mid  int64     `json:"mid"`
	High int64     `json:"high"`
}
