package entity

import "time"

// Section names, used as keys in Dashboard.Errors and by the export endpoint.
const (
	SectionStats     = "stats"
	SectionRunning   = "running"
	SectionHistogram = "histogram"
	SectionQps       = "qps"
	SectionFailed    = "failed"
	SectionCancelled = "cancelled"
	SectionSlow      = "slow"
	SectionDaily     = "daily"
)

// Sections lists every section in display order.
var Sections = []string{
	SectionStats,
	SectionRunning,
	SectionHistogram,
	SectionQps,
	SectionFailed,
	SectionCancelled,
	SectionSlow,
	SectionDaily,
}

func IsSection(name string) bool {
	for _, s := range Sections {
		if s == name {
			return true
		}
	}
	return false
}

// DashboardRequest carries the user selections of one analysis.
type DashboardRequest struct {
	Date            string   `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Clusters        []string `query:"cluster" validate:"dive,required,max=256"`
	Users           []string `query:"user" validate:"dive,required,max=256"`
	SlowThresholdMs int64    `query:"slow_threshold" validate:"gte=0"`
	DaysOfStat      int      `query:"days" validate:"gte=1,lte=366"`
	RowLimit        int      `query:"limit" validate:"gte=1,lte=10000"`
	IgnoreSQLs      string   `query:"ignore_sqls" validate:"max=65536"`
	Percentiles     string   `query:"percentiles"`
	Bins            int      `query:"bins" validate:"oneof=100 1000"`
	ExcludeErrors   bool     `query:"exclude_errors"`
}

// Dashboard is the result of one analysis. A section that returned no rows is
// left empty and omitted from the output; a section whose query failed has
// its error recorded in Errors.
type Dashboard struct {
	RunID           string            `json:"run_id"`
	Workspace       string            `json:"workspace"`
	WindowStart     time.Time         `json:"window_start"`
	WindowEnd       time.Time         `json:"window_end"`
	TrendStart      time.Time         `json:"trend_start"`
	DaysOfStat      int               `json:"days_of_stat"`
	SlowThresholdMs int64             `json:"slow_threshold_ms"`
	RowLimit        int               `json:"row_limit"`
	Band            PercentileBand    `json:"band"`
	Stats           *StatsSummary     `json:"stats,omitempty"`
	Running         []JobRow          `json:"running,omitempty"`
	Histogram       []DurationBucket  `json:"histogram,omitempty"`
	Qps             []QpsPoint        `json:"qps,omitempty"`
	Failed          []JobRow          `json:"failed,omitempty"`
	Cancelled       []JobRow          `json:"cancelled,omitempty"`
	Slow            []JobRow          `json:"slow,omitempty"`
	Daily           []DailyStat       `json:"daily,omitempty"`
	ErrorBars       []ErrorBarPoint   `json:"error_bars,omitempty"`
	Errors          map[string]string `json:"errors,omitempty"`
}

// WorkspaceSummary is the periodic digest of one workspace.
type WorkspaceSummary struct {
	Workspace   string        `json:"workspace"`
	WindowStart time.Time     `json:"window_start"`
	WindowEnd   time.Time     `json:"window_end"`
	Stats       *StatsSummary `json:"stats,omitempty"`
	Error       string        `json:"error,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}
