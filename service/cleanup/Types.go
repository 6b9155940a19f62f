package cleanup

import (
	"context"
	"time"
)

type jobType string
type jobStatus string

const (
	listingExpiration jobType = "expire_listings"
	listingPurge      jobType = "cleanup_expired_posts"
	conversationPurge jobType = "cleanup_conversations"
	reportPurge       jobType = "cleanup_reports"

	statusComplete            jobStatus = "complete"
	statusCompleteWithWarning jobStatus = "complete_with_warnings"
	statusError               jobStatus = "error"
	statusTimeout             jobStatus = "timeout"
)

// JobProcessor performs one cleanup pass. Counters and details are accumulated on run
// as the pass progresses so they survive a mid-run failure.
type JobProcessor interface {
	Process(ctx context.Context, run *jobRun) error
}

type jobConfig struct {
	jobType    jobType
	instanceId string
	timeout    time.Duration
}

type jobRun struct {
	id           string
	startedAt    time.Time
	details      *Details
	rowsAffected int
	warnings     []string
	items        map[string]int
}

func newJobRun(id string, instanceId string, startedAt time.Time) *jobRun {
	details := NewDetails()
	details.Set(detailsJobId, id)
	details.Set(detailsInstanceId, instanceId)
	return &jobRun{
		id:        id,
		startedAt: startedAt,
		details:   details,
		items:     map[string]int{},
	}
}

func (r *jobRun) count(outcome string, n int) {
	if n > 0 {
		r.items[outcome] += n
	}
}

func (r *jobRun) warn(message string) {
	r.warnings = append(r.warnings, message)
}
