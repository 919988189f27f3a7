package metric

import (
	"fmt"

	errwrap "github.com/pkg/errors"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
	"github.com/rahmatrdn/go-sql-dashboard/internal/filter"
)

const DefaultJobHistoryTable = "information_schema.job_history"

// durationMs is the job duration in milliseconds.
const durationMs = entity.ColumnExecutionTime + " * 1000"

var ErrInvalidBins = errwrap.New("histogram bins must be 100 or 1000")

var (
	statusSucceed   = filter.MustPredicate(filter.Eq(entity.ColumnStatus, string(entity.JobStatusSucceed)))
	statusFailed    = filter.MustPredicate(filter.Eq(entity.ColumnStatus, string(entity.JobStatusFailed)))
	statusCancelled = filter.MustPredicate(filter.Eq(entity.ColumnStatus, string(entity.JobStatusCancelled)))
	statusRunning   = filter.MustPredicate(filter.Eq(entity.ColumnStatus, string(entity.JobStatusRunning)))
)

// Queries renders the dashboard query battery against one job history table.
type Queries struct {
	table string
}

func NewQueries(table string) (*Queries, error) {
	if table == "" {
		table = DefaultJobHistoryTable
	}
	if err := filter.CheckIdentifier(table); err != nil {
		return nil, errwrap.Wrap(err, "metric.NewQueries")
	}
	return &Queries{table: table}, nil
}

func (q *Queries) Table() string { return q.table }

func (q *Queries) StatsSummary(spec filter.Spec) string {
	return fmt.Sprintf(`
SELECT
    count(1)                                                          AS total,
    sum(if(status = 'SUCCEED', 1, 0))                                 AS succeed,
    sum(if(status = 'FAILED', 1, 0))                                  AS failed,
    sum(if(status = 'CANCELLED', 1, 0))                               AS cancelled,
    sum(if(status = 'RUNNING', 1, 0))                                 AS running,
    sum(if(status = 'SUCCEED' AND %s >= %d, 1, 0))   AS slow,
    min(start_time)                                                   AS first_sql,
    max(start_time)                                                   AS last_sql
FROM %s
WHERE %s
`, durationMs, spec.SlowThresholdMs(), q.table, spec.Where())
}

// DurationHistogram bins successful jobs into equal-count percentile buckets.
// Durations under 1 ms count as 1 ms.
func (q *Queries) DurationHistogram(spec filter.Spec, bins int) (string, error) {
	if bins != 100 && bins != 1000 {
		return "", errwrap.Wrapf(ErrInvalidBins, "got %d", bins)
	}
	return fmt.Sprintf(`
WITH t1 AS (
    SELECT cast(%s AS bigint) AS duration
    FROM %s
    WHERE %s
), t2 AS (
    SELECT if(duration < 1, 1, duration) AS duration
    FROM t1
), t3 AS (
    SELECT duration, NTILE(%d) OVER (ORDER BY duration ASC) AS percent
    FROM t2
)
SELECT
    percent,
    avg(duration) AS avg_duration,
    max(duration) AS max_duration
FROM t3
GROUP BY percent
ORDER BY percent ASC
`, durationMs, q.table, spec.Where(statusSucceed), bins), nil
}

// QpsSeries counts jobs per second and rolls the counts up per minute.
func (q *Queries) QpsSeries(spec filter.Spec) string {
	return fmt.Sprintf(`
WITH t1 AS (
    SELECT date_trunc('SECOND', start_time) AS time_second
    FROM %s
    WHERE %s
), t2 AS (
    SELECT time_second, count(1) AS qps
    FROM t1
    GROUP BY time_second
), t3 AS (
    SELECT date_trunc('MINUTE', time_second) AS time_minute, qps
    FROM t2
)
SELECT time_minute, max(qps) AS max_qps, sum(qps) AS qpm
FROM t3
GROUP BY time_minute
ORDER BY time_minute ASC
`, q.table, spec.Where())
}

// FailedJobs lists failures, most recent first. With excludeErrors the
// error exclusions of spec are applied.
func (q *Queries) FailedJobs(spec filter.Spec, limit int, excludeErrors bool) string {
	preds := []filter.Predicate{statusFailed}
	if excludeErrors {
		preds = append(preds, spec.Exclusions()...)
	}
	return q.terminatedJobs(spec.Where(preds...), limit)
}

func (q *Queries) CancelledJobs(spec filter.Spec, limit int) string {
	return q.terminatedJobs(spec.Where(statusCancelled), limit)
}

func (q *Queries) terminatedJobs(where string, limit int) string {
	return fmt.Sprintf(`
SELECT job_id, start_time, %s AS duration, status, virtual_cluster, job_creator, job_text, error_message
FROM %s
WHERE %s
ORDER BY start_time DESC
LIMIT %d
`, durationMs, q.table, where, limit)
}

// SlowJobs lists successful jobs at or above the slow threshold.
func (q *Queries) SlowJobs(spec filter.Spec, limit int) string {
	return fmt.Sprintf(`
SELECT job_id, start_time, %s AS duration, input_bytes, cache_hit, virtual_cluster, job_creator, job_text
FROM %s
WHERE %s
ORDER BY start_time DESC
LIMIT %d
`, durationMs, q.table, spec.Where(statusSucceed, filter.AtLeast(durationMs, spec.SlowThresholdMs())), limit)
}

func (q *Queries) RunningJobs(spec filter.Spec, limit int) string {
	return fmt.Sprintf(`
SELECT job_id, start_time, job_creator, job_text, cru, input_bytes, output_bytes
FROM %s
WHERE %s
ORDER BY start_time DESC
LIMIT %d
`, q.table, spec.Where(statusRunning), limit)
}

// DailyStats groups the trend window by calendar day, latest day first.
func (q *Queries) DailyStats(trend filter.Spec) string {
	return fmt.Sprintf(`
WITH t1 AS (
    SELECT
        date_format(start_time, 'yyyy-MM-dd')             AS ds,
        if(status = 'SUCCEED', 1, 0)                      AS succeed,
        if(status = 'FAILED', 1, 0)                       AS failed,
        if(status = 'CANCELLED', 1, 0)                    AS cancelled,
        if(status = 'RUNNING', 1, 0)                      AS running,
        if(status = 'SUCCEED' AND %s >= %d, 1, 0) AS slow,
        %s                                                AS duration
    FROM %s
    WHERE %s
)
SELECT
    ds,
    count(1)                  AS total,
    sum(succeed)              AS succeed,
    sum(failed)               AS failed,
    sum(cancelled)            AS cancelled,
    sum(running)              AS running,
    sum(slow)                 AS slow,
    avg(duration)             AS avg_duration,
    percentile(duration, 0.50) AS p50,
    percentile(duration, 0.75) AS p75,
    percentile(duration, 0.90) AS p90,
    percentile(duration, 0.95) AS p95,
    percentile(duration, 0.99) AS p99,
    max(duration)             AS max_duration
FROM t1
GROUP BY ds
ORDER BY ds DESC
`, durationMs, trend.SlowThresholdMs(), durationMs, q.table, trend.Where())
}

