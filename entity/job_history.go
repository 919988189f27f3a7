package entity

import "time"

type JobStatus string

const (
	JobStatusSucceed   JobStatus = "SUCCEED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

// Column names of the job history table.
const (
	ColumnJobID          = "job_id"
	ColumnStartTime      = "start_time"
	ColumnStatus         = "status"
	ColumnExecutionTime  = "execution_time"
	ColumnVirtualCluster = "virtual_cluster"
	ColumnJobCreator     = "job_creator"
	ColumnJobText        = "job_text"
	ColumnErrorMessage   = "error_message"
	ColumnInputBytes     = "input_bytes"
	ColumnOutputBytes    = "output_bytes"
	ColumnCacheHit       = "cache_hit"
	ColumnCRU            = "cru"
)

// JobHistoryRecord is one row of the lakehouse job history table. The table
// is owned by the engine and only ever read.
type JobHistoryRecord struct {
	JobID          string    `json:"job_id"`
	StartTime      time.Time `json:"start_time"`
	Status         JobStatus `json:"status"`
	ExecutionTime  float64   `json:"execution_time"`
	VirtualCluster string    `json:"virtual_cluster"`
	JobCreator     string    `json:"job_creator"`
	JobText        string    `json:"job_text"`
	ErrorMessage   *string   `json:"error_message"`
	InputBytes     int64     `json:"input_bytes"`
	OutputBytes    int64     `json:"output_bytes"`
	CacheHit       bool      `json:"cache_hit"`
	CRU            float64   `json:"cru"`
}
