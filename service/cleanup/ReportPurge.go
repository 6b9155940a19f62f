package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	"github.com/Netcracker/qubership-marketplace-cleanup/exception"
	"github.com/Netcracker/qubership-marketplace-cleanup/repository"
	"github.com/Netcracker/qubership-marketplace-cleanup/service/cleanup/logger"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
)

const (
	reportsTotal         = "total"
	reportsDismissed     = "dismissed"
	reportsResolved      = "resolved"
	reportsRetentionDays = "retention_days"
	reportsCutoff        = "cutoff"
)

type reportPurgeJobProcessor struct {
	reportRepository repository.ReportRepository
	retentionDays    int
	maxRows          int
}

func NewReportPurgeJob(reportRepository repository.ReportRepository, auditLogger AuditLogger, cfg config.ReportPurgeConfig, instanceId string) *JobRunner {
	processor := &reportPurgeJobProcessor{
		reportRepository: reportRepository,
		retentionDays:    cfg.RetentionDays,
		maxRows:          cfg.MaxRows,
	}
	return newJobRunner(jobConfig{
		jobType:    reportPurge,
		instanceId: instanceId,
		timeout:    time.Duration(cfg.TimeoutMinutes) * time.Minute,
	}, processor, auditLogger)
}

func (p *reportPurgeJobProcessor) Process(ctx context.Context, run *jobRun) error {
	cutoff := config.ReportPurgeConfig{RetentionDays: p.retentionDays}.Cutoff(run.startedAt)
	run.details.Set(reportsCutoff, cutoff.Format(time.RFC3339))
	run.details.Set(reportsRetentionDays, p.retentionDays)

	reports, err := p.reportRepository.GetPurgeCandidates(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to fetch reports to purge: %w", err)
	}

	ids := make([]string, 0, len(reports))
	dismissed, resolved := 0, 0
	for _, report := range reports {
		status, err := view.ParseReportStatus(report.Status)
		if err != nil || status == view.ReportPending || report.ReviewedAt == nil {
			logger.Warnf(ctx, "Report %s returned by purge query does not match the retention rule, skipping", report.Id)
			continue
		}
		ids = append(ids, report.Id)
		switch status {
		case view.ReportDismissed:
			dismissed++
		case view.ReportResolved:
			resolved++
		}
	}
	run.details.Set(reportsTotal, len(ids))
	run.details.Set(reportsDismissed, dismissed)
	run.details.Set(reportsResolved, resolved)

	if len(ids) == 0 {
		logger.Info(ctx, "No reports to purge")
		return nil
	}
	if len(ids) > p.maxRows {
		return exception.NewSafetyLimitError("report", len(ids), p.maxRows)
	}

	deleted, err := p.reportRepository.DeleteReports(ctx, ids)
	run.rowsAffected = deleted
	run.count("reports_deleted", deleted)
	if err != nil {
		return fmt.Errorf("failed to delete reports: %w", err)
	}
	if deleted != len(ids) {
		return exception.NewCountMismatchError("report", len(ids), deleted)
	}

	logger.Infof(ctx, "Deleted %d reports (%d dismissed, %d resolved)", deleted, dismissed, resolved)
	return nil
}
