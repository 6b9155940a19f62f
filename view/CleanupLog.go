package view

import (
	"time"

	"github.com/iancoleman/orderedmap"
)

type FailedDeletion struct {
	PostId       string   `json:"post_id"`
	FailedImages []string `json:"failed_images"`
	Reason       string   `json:"reason"`
}

const (
	DetailsJobId      = "job_id"
	DetailsInstanceId = "instance_id"
	DetailsStatus     = "status"
	DetailsDurationMs = "duration_ms"
	DetailsError      = "error"
)

type CleanupLog struct {
	Id           int64                  `json:"id"`
	Operation    string                 `json:"operation"`
	RowsAffected int                    `json:"rowsAffected"`
	Details      *orderedmap.OrderedMap `json:"details,omitempty"`
	ExecutedAt   time.Time              `json:"executedAt"`
}

type CleanupLogs struct {
	Logs []CleanupLog `json:"logs"`
}

type CleanupJobs struct {
	Jobs []string `json:"jobs"`
}
