// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cleanup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/metrics"
	"github.com/Netcracker/qubership-marketplace-cleanup/service/cleanup/logger"
	"github.com/Netcracker/qubership-marketplace-cleanup/utils"
	"github.com/google/uuid"
)

const (
	maxErrorMessageLength = 1000
	updateContextTimeout  = 10 * time.Second
)

type JobRunner struct {
	config      jobConfig
	processor   JobProcessor
	auditLogger AuditLogger
	now         func() time.Time
}

func newJobRunner(config jobConfig, processor JobProcessor, auditLogger AuditLogger) *JobRunner {
	return &JobRunner{
		config:      config,
		processor:   processor,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Name is the operation recorded in cleanup_logs for this job.
func (r *JobRunner) Name() string {
	return string(r.config.jobType)
}

// Run implements cron.Job.
func (r *JobRunner) Run() {
	_ = r.Execute(context.Background())
}

// Execute performs one run and returns the error that should fail the invoking process.
// Completion with warnings is not an error.
func (r *JobRunner) Execute(ctx context.Context) error {
	jobId := uuid.New().String()
	run := newJobRun(jobId, r.config.instanceId, r.now())

	jobCtx, jobCancel := ctx, context.CancelFunc(func() {})
	if r.config.timeout > 0 {
		jobCtx, jobCancel = context.WithTimeout(ctx, r.config.timeout)
	}
	defer jobCancel()
	jobCtx = logger.WithJob(jobCtx, string(r.config.jobType), jobId)

	if r.config.timeout > 0 {
		logger.Infof(jobCtx, "Starting cleanup job, timeout %v", r.config.timeout)
	} else {
		logger.Info(jobCtx, "Starting cleanup job")
	}

	err := utils.SafeSync(func() error {
		return r.processor.Process(jobCtx, run)
	})
	if err != nil {
		logger.Errorf(jobCtx, "Cleanup job failed: %v", err)
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || (err != nil && jobCtx.Err() == context.DeadlineExceeded)
	status := determineJobStatus(err != nil, isTimeout, len(run.warnings) > 0)
	r.finishCleanupRun(jobCtx, run, status, err)
	return err
}

func (r *JobRunner) finishCleanupRun(ctx context.Context, run *jobRun, status jobStatus, runErr error) {
	duration := r.now().Sub(run.startedAt)
	run.details.Set(detailsStatus, string(status))
	run.details.Set(detailsDurationMs, duration.Milliseconds())
	if runErr != nil {
		run.details.Set(detailsError, formatErrorMessage(runErr.Error()))
	}

	r.auditLogger.Record(ctx, r.Name(), run.rowsAffected, run.details)
	r.recordMetrics(run, status, duration)

	if len(run.warnings) > 0 {
		logger.Warn(ctx, formatErrorMessage(formatJobWarnings(r.config.jobType, run.warnings)))
	}
	logger.Infof(ctx, "job finished with status '%s' in %v. Rows affected: %d.", status, duration.Round(time.Millisecond), run.rowsAffected)
}

func (r *JobRunner) recordMetrics(run *jobRun, status jobStatus, duration time.Duration) {
	job := r.Name()
	metrics.CleanupJobRuns.WithLabelValues(job, string(status)).Inc()
	metrics.CleanupJobDuration.WithLabelValues(job).Observe(duration.Seconds())
	for outcome, n := range run.items {
		metrics.CleanupJobItems.WithLabelValues(job, outcome).Add(float64(n))
	}
	if status == statusComplete || status == statusCompleteWithWarning {
		metrics.CleanupJobLastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
}

func createContextForUpdate(parentCtx context.Context) (context.Context, context.CancelFunc) {
	if parentCtx.Err() != nil {
		return context.WithTimeout(context.WithoutCancel(parentCtx), updateContextTimeout)
	}
	return parentCtx, func() {}
}

func formatErrorMessage(errorMessage string) string {
	runes := []rune(errorMessage)
	if len(runes) > maxErrorMessageLength {
		return string(runes[:maxErrorMessageLength-3]) + "..."
	}
	return errorMessage
}

func determineJobStatus(hasErrors bool, isTimeout bool, hasWarnings bool) jobStatus {
	if isTimeout {
		return statusTimeout
	}
	if hasErrors {
		return statusError
	}
	if hasWarnings {
		return statusCompleteWithWarning
	}
	return statusComplete
}

func checkInterrupted(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	return fmt.Errorf("job interrupted - %s: %w", getContextCancellationMessage(ctx), ctx.Err())
}

func getContextCancellationMessage(ctx context.Context) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "timeout"
	}
	return "cancelled"
}

// sleepContext waits for d unless ctx ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return checkInterrupted(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return checkInterrupted(ctx)
	case <-timer.C:
		return nil
	}
}

func formatJobWarnings(jobType jobType, warnings []string) string {
	return fmt.Sprintf("%s finished with warnings: %s", jobType, strings.Join(warnings, "; "))
}

// withAttempts calls fn until it succeeds or maxAttempts calls were made. Values below 1 mean one call.
func withAttempts(ctx context.Context, maxAttempts int, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= maxAttempts || ctx.Err() != nil {
			return err
		}
		logger.Debugf(ctx, "Attempt %d of %d failed: %v", attempt, maxAttempts, err)
	}
}
