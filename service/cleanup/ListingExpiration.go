package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	"github.com/Netcracker/qubership-marketplace-cleanup/entity"
	"github.com/Netcracker/qubership-marketplace-cleanup/repository"
	"github.com/Netcracker/qubership-marketplace-cleanup/service/cleanup/logger"
)

const (
	expirationProcessed   = "processed"
	expirationUpdated     = "updated"
	expirationFailed      = "failed"
	expirationBatchSize   = "batch_size"
	expirationBatchErrors = "batch_errors"
)

type listingExpirationJobProcessor struct {
	listingRepository repository.ListingRepository
	batchSize         int
	pageDelay         time.Duration
	maxAttempts       int
}

func NewListingExpirationJob(listingRepository repository.ListingRepository, auditLogger AuditLogger, cfg config.ListingExpirationConfig, instanceId string) *JobRunner {
	processor := &listingExpirationJobProcessor{
		listingRepository: listingRepository,
		batchSize:         cfg.BatchSize,
		pageDelay:         cfg.PageDelay,
		maxAttempts:       cfg.MaxAttempts,
	}
	return newJobRunner(jobConfig{
		jobType:    listingExpiration,
		instanceId: instanceId,
		timeout:    time.Duration(cfg.TimeoutMinutes) * time.Minute,
	}, processor, auditLogger)
}

// Process flips active listings past expires_at to expired, one bulk update per page.
// Updated rows leave the scanned set, so the offset only grows by the rows of failed
// batches; a failed batch is skipped for the rest of the run and picked up by the next one.
func (p *listingExpirationJobProcessor) Process(ctx context.Context, run *jobRun) error {
	now := run.startedAt
	processed, updated, failed := 0, 0, 0
	batchErrors := make([]string, 0)
	defer func() {
		run.details.Set(expirationProcessed, processed)
		run.details.Set(expirationUpdated, updated)
		run.details.Set(expirationFailed, failed)
		run.details.Set(expirationBatchSize, p.batchSize)
		run.details.Set(expirationBatchErrors, batchErrors)
		run.rowsAffected = updated
		run.count(expirationUpdated, updated)
		run.count(expirationFailed, failed)
	}()

	if total, err := p.listingRepository.CountExpiredActiveListings(ctx, now); err != nil {
		logger.Warnf(ctx, "Failed to count expired listings: %v", err)
	} else {
		logger.Infof(ctx, "%d active listings expired before %s", total, now.Format(time.RFC3339))
	}

	offset, page := 0, 0
	for {
		if err := checkInterrupted(ctx); err != nil {
			return err
		}

		listings, err := p.listingRepository.GetExpiredActiveListings(ctx, now, p.batchSize, offset)
		if err != nil {
			return fmt.Errorf("failed to fetch expired listings at offset %d: %w", offset, err)
		}
		if len(listings) == 0 {
			break
		}
		page++
		processed += len(listings)

		ids := listingIds(listings)
		var affected int
		err = withAttempts(ctx, p.maxAttempts, func() error {
			var updateErr error
			affected, updateErr = p.listingRepository.MarkListingsExpired(ctx, ids, now)
			return updateErr
		})
		if err != nil {
			logger.Warnf(ctx, "Failed to expire batch %d (%d listings): %v", page, len(ids), err)
			failed += len(ids)
			offset += len(ids)
			batchErrors = append(batchErrors, fmt.Sprintf("batch %d: %v", page, err))
			run.warn(fmt.Sprintf("batch %d failed", page))
		} else {
			updated += affected
			if affected < len(ids) {
				logger.Debugf(ctx, "Batch %d: %d of %d listings were no longer active", page, len(ids)-affected, len(ids))
			}
			logger.Debugf(ctx, "Batch %d: expired %d listings", page, affected)
		}

		if len(listings) < p.batchSize {
			break
		}
		if err := sleepContext(ctx, p.pageDelay); err != nil {
			return err
		}
	}

	logger.Infof(ctx, "Processed %d listings: %d expired, %d failed", processed, updated, failed)
	return nil
}

func listingIds(listings []entity.ListingEntity) []string {
	ids := make([]string, 0, len(listings))
	for _, listing := range listings {
		ids = append(ids, listing.Id)
	}
	return ids
}
