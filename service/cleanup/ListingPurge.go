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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	"github.com/Netcracker/qubership-marketplace-cleanup/entity"
	"github.com/Netcracker/qubership-marketplace-cleanup/exception"
	"github.com/Netcracker/qubership-marketplace-cleanup/repository"
	"github.com/Netcracker/qubership-marketplace-cleanup/service"
	"github.com/Netcracker/qubership-marketplace-cleanup/service/cleanup/logger"
	"github.com/Netcracker/qubership-marketplace-cleanup/utils"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
)

const (
	purgePostsDeleted    = "posts_deleted"
	purgePostsSkipped    = "posts_skipped"
	purgeImagesDeleted   = "images_deleted"
	purgeImagesFailed    = "images_failed"
	purgeFailedDeletions = "failed_deletions"
	purgeRowErrors       = "row_errors"
	purgeGraceDays       = "grace_days"
	purgeBatchSize       = "batch_size"
	purgeCutoff          = "cutoff"
)

type listingPurgeJobProcessor struct {
	listingRepository repository.ListingRepository
	imageStorage      service.ImageStorageService
	batchSize         int
	graceDays         int
	maxAttempts       int
}

type listingPurgeStats struct {
	postsDeleted    int
	postsSkipped    int
	imagesDeleted   int
	imagesFailed    int
	failedDeletions []view.FailedDeletion
	rowErrors       []string
}

type listingPurgeResult struct {
	rowDeleted    bool
	imagesDeleted int
	failedImages  []string
	reason        string
	rowError      error
}

func NewListingPurgeJob(listingRepository repository.ListingRepository, imageStorage service.ImageStorageService, auditLogger AuditLogger, cfg config.ListingPurgeConfig, instanceId string) *JobRunner {
	processor := &listingPurgeJobProcessor{
		listingRepository: listingRepository,
		imageStorage:      imageStorage,
		batchSize:         cfg.BatchSize,
		graceDays:         cfg.GraceDays,
		maxAttempts:       cfg.MaxAttempts,
	}
	return newJobRunner(jobConfig{
		jobType:    listingPurge,
		instanceId: instanceId,
		timeout:    time.Duration(cfg.TimeoutMinutes) * time.Minute,
	}, processor, auditLogger)
}

// Process deletes listings whose expiry is older than the grace window. A row is deleted only
// after every one of its images was confirmed deleted; otherwise it stays for the next run.
// Rows left in place keep their position in the scan, so the offset counts them.
func (p *listingPurgeJobProcessor) Process(ctx context.Context, run *jobRun) error {
	cutoff := config.ListingPurgeConfig{GraceDays: p.graceDays}.Cutoff(run.startedAt)
	stats := &listingPurgeStats{
		failedDeletions: make([]view.FailedDeletion, 0),
		rowErrors:       make([]string, 0),
	}
	defer func() {
		run.details.Set(purgePostsDeleted, stats.postsDeleted)
		run.details.Set(purgePostsSkipped, stats.postsSkipped)
		run.details.Set(purgeImagesDeleted, stats.imagesDeleted)
		run.details.Set(purgeImagesFailed, stats.imagesFailed)
		run.details.Set(purgeFailedDeletions, stats.failedDeletions)
		if len(stats.rowErrors) > 0 {
			run.details.Set(purgeRowErrors, stats.rowErrors)
		}
		run.details.Set(purgeGraceDays, p.graceDays)
		run.details.Set(purgeBatchSize, p.batchSize)
		run.details.Set(purgeCutoff, cutoff.Format(time.RFC3339))
		run.rowsAffected = stats.postsDeleted
		run.count("posts_deleted", stats.postsDeleted)
		run.count("posts_skipped", stats.postsSkipped)
		run.count("images_deleted", stats.imagesDeleted)
		run.count("images_failed", stats.imagesFailed)
		if len(stats.failedDeletions) > 0 {
			run.warn(fmt.Sprintf("%d images could not be deleted, %d listings kept", stats.imagesFailed, len(stats.failedDeletions)))
		}
		if len(stats.rowErrors) > 0 {
			run.warn(fmt.Sprintf("%d listing rows could not be deleted", len(stats.rowErrors)))
		}
	}()

	logger.Debugf(ctx, "Will purge listings that expired before %s", cutoff.Format(time.RFC3339))

	offset, page := 0, 0
	for {
		if err := checkInterrupted(ctx); err != nil {
			return err
		}

		listings, err := p.listingRepository.GetListingsExpiredBefore(ctx, cutoff, p.batchSize, offset)
		if err != nil {
			return fmt.Errorf("failed to fetch listings to purge at offset %d: %w", offset, err)
		}
		if len(listings) == 0 {
			break
		}
		page++
		logger.Debugf(ctx, "Processing page %d (%d listings, offset %d)", page, len(listings), offset)

		for _, listing := range listings {
			if err := checkInterrupted(ctx); err != nil {
				return err
			}
			result := p.purgeListingSafe(ctx, listing)
			if stats.add(listing, result) {
				offset++
			}
		}

		logger.Debugf(ctx, "Completed page %d, deleted %d listings so far", page, stats.postsDeleted)
	}

	logger.Infof(ctx, "Deleted %d listings and %d images, skipped %d listings (%d images failed)",
		stats.postsDeleted, stats.imagesDeleted, stats.postsSkipped, stats.imagesFailed)
	return nil
}

// add accounts for one listing and reports whether its row is still in the table.
func (s *listingPurgeStats) add(listing entity.ListingEntity, result listingPurgeResult) bool {
	if len(result.failedImages) > 0 || result.reason != "" {
		s.postsSkipped++
		s.imagesFailed += len(result.failedImages)
		s.failedDeletions = append(s.failedDeletions, view.FailedDeletion{
			PostId:       listing.Id,
			FailedImages: result.failedImages,
			Reason:       result.reason,
		})
		return true
	}
	s.imagesDeleted += result.imagesDeleted
	if result.rowError != nil {
		s.postsSkipped++
		s.rowErrors = append(s.rowErrors, fmt.Sprintf("%s: %v", listing.Id, result.rowError))
		return true
	}
	if result.rowDeleted {
		s.postsDeleted++
	}
	return false
}

func (p *listingPurgeJobProcessor) purgeListingSafe(ctx context.Context, listing entity.ListingEntity) listingPurgeResult {
	var result listingPurgeResult
	err := utils.SafeSync(func() error {
		result = p.purgeListing(ctx, listing)
		return nil
	})
	if err != nil {
		logger.Errorf(ctx, "Unexpected failure while purging listing %s: %v", listing.Id, err)
		return listingPurgeResult{
			failedImages: p.imageIds(listing),
			reason:       fmt.Sprintf("unexpected error: %v", err),
		}
	}
	return result
}

func (p *listingPurgeJobProcessor) purgeListing(ctx context.Context, listing entity.ListingEntity) listingPurgeResult {
	if err := utils.ValidateRow(listing); err != nil {
		invalidRowErr := exception.NewInvalidRowError("listing", listing.Id, err)
		logger.Warnf(ctx, "Skipping listing: %v", invalidRowErr)
		return listingPurgeResult{failedImages: []string{}, reason: invalidRowErr.Error()}
	}

	ids := p.imageIds(listing)
	if len(ids) == 0 {
		logger.Tracef(ctx, "Listing %s has no images, deleting row", listing.Id)
		return p.deleteRow(ctx, listing.Id, 0)
	}

	statuses, storeErr := p.deleteImages(ctx, ids)
	failed := make([]string, 0)
	for _, id := range ids {
		if !statuses[id].IsDeleted() {
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		reason := describeImageFailures(ids, failed, statuses, storeErr)
		logger.Warnf(ctx, "Keeping listing %s: %s", listing.Id, reason)
		return listingPurgeResult{failedImages: failed, reason: reason}
	}

	logger.Tracef(ctx, "All %d images of listing %s deleted, deleting row", len(ids), listing.Id)
	return p.deleteRow(ctx, listing.Id, len(ids))
}

func (p *listingPurgeJobProcessor) deleteRow(ctx context.Context, id string, imagesDeleted int) listingPurgeResult {
	deleted, err := p.listingRepository.DeleteListing(ctx, id)
	if err != nil {
		logger.Warnf(ctx, "Failed to delete listing %s: %v", id, err)
		return listingPurgeResult{imagesDeleted: imagesDeleted, rowError: err}
	}
	if !deleted {
		logger.Debugf(ctx, "Listing %s was already deleted", id)
	}
	return listingPurgeResult{rowDeleted: deleted, imagesDeleted: imagesDeleted}
}

func (p *listingPurgeJobProcessor) imageIds(listing entity.ListingEntity) []string {
	ids := make([]string, 0, len(listing.Images))
	for _, image := range listing.Images {
		ids = append(ids, p.imageStorage.ObjectId(image))
	}
	return utils.UniqueSet(ids)
}

// deleteImages returns an outcome for every id. Ids of a chunk whose call failed are view.ImageError
// and the last call error is returned alongside.
func (p *listingPurgeJobProcessor) deleteImages(ctx context.Context, ids []string) (map[string]view.ImageDeleteStatus, error) {
	statuses := make(map[string]view.ImageDeleteStatus, len(ids))
	if len(ids) == 1 {
		var status view.ImageDeleteStatus
		err := withAttempts(ctx, p.maxAttempts, func() error {
			var deleteErr error
			status, deleteErr = p.imageStorage.DeleteImage(ctx, ids[0])
			return deleteErr
		})
		if err != nil {
			status = view.ImageError
		}
		statuses[ids[0]] = status
		return statuses, err
	}

	var lastErr error
	for _, chunk := range utils.ChunkSlice(ids, p.imageStorage.MaxBatchSize()) {
		var chunkStatuses map[string]view.ImageDeleteStatus
		err := withAttempts(ctx, p.maxAttempts, func() error {
			var deleteErr error
			chunkStatuses, deleteErr = p.imageStorage.DeleteImages(ctx, chunk)
			return deleteErr
		})
		if err != nil {
			lastErr = err
			for _, id := range chunk {
				statuses[id] = view.ImageError
			}
			continue
		}
		for _, id := range chunk {
			status, ok := chunkStatuses[id]
			if !ok {
				status = view.ImageError
			}
			statuses[id] = status
		}
	}
	return statuses, lastErr
}

func describeImageFailures(ids []string, failed []string, statuses map[string]view.ImageDeleteStatus, storeErr error) string {
	byStatus := map[string]int{}
	for _, id := range failed {
		status := statuses[id]
		if status == "" {
			status = view.ImageError
		}
		byStatus[string(status)]++
	}
	parts := make([]string, 0, len(byStatus))
	for status, n := range byStatus {
		parts = append(parts, fmt.Sprintf("%s: %d", status, n))
	}
	sort.Strings(parts)
	reason := fmt.Sprintf("%d of %d images not deleted (%s)", len(failed), len(ids), strings.Join(parts, ", "))
	if storeErr != nil {
		reason += ": " + storeErr.Error()
	}
	return reason
}
