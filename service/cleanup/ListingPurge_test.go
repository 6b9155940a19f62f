package cleanup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	"github.com/Netcracker/qubership-marketplace-cleanup/entity"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purgeConfig() config.ListingPurgeConfig {
	return config.ListingPurgeConfig{BatchSize: 10, GraceDays: 7, MaxAttempts: 1}
}

func expiredListing(id string, daysAgo int, images ...string) entity.ListingEntity {
	return entity.ListingEntity{
		Id:        id,
		Status:    string(view.ListingExpired),
		ExpiresAt: testNow.AddDate(0, 0, -daysAgo),
		Images:    images,
		CreatedAt: testNow.AddDate(0, -2, 0).Add(time.Duration(len(id)) * time.Minute),
	}
}

func newPurgeFixture(listings ...entity.ListingEntity) (*fakeListingRepository, *fakeImageStorage, *fakeCleanupLogRepository) {
	return newFakeListingRepository(listings...), newFakeImageStorage(), &fakeCleanupLogRepository{}
}

func TestListingPurgeThreeListingExample(t *testing.T) {
	listings, storage, logs := newPurgeFixture(
		expiredListing("post-a", 10),
		expiredListing("post-bb", 10, "b1", "b2"),
		expiredListing("post-ccc", 10, "c1", "c2"),
	)
	storage.images = map[string]bool{"posts/b1": true, "posts/b2": true, "posts/c1": true, "posts/c2": true}
	storage.failing["posts/c2"] = true

	runner := fixedClock(NewListingPurgeJob(listings, storage, NewAuditLogger(logs), purgeConfig(), "instance-1"))
	require.NoError(t, runner.Execute(context.Background()))

	assert.Equal(t, 2, logs.detail(t, purgePostsDeleted))
	assert.Equal(t, 1, logs.detail(t, purgePostsSkipped))
	assert.Equal(t, 2, logs.detail(t, purgeImagesDeleted))
	assert.Equal(t, 1, logs.detail(t, purgeImagesFailed))
	failedDeletions := logs.detail(t, purgeFailedDeletions).([]view.FailedDeletion)
	require.Len(t, failedDeletions, 1)
	assert.Equal(t, "post-ccc", failedDeletions[0].PostId)
	assert.Equal(t, []string{"posts/c2"}, failedDeletions[0].FailedImages)
	assert.NotEmpty(t, failedDeletions[0].Reason)

	assert.Equal(t, string(statusCompleteWithWarning), logs.detail(t, detailsStatus))
	assert.Equal(t, "cleanup_expired_posts", logs.last(t).Operation)
	assert.Equal(t, 2, logs.last(t).RowsAffected)
	assert.Equal(t, 7, logs.detail(t, purgeGraceDays))

	assert.NotContains(t, listings.listings, "post-a")
	assert.NotContains(t, listings.listings, "post-bb")
	assert.Contains(t, listings.listings, "post-ccc")
	assert.False(t, storage.images["posts/b1"])
	assert.True(t, storage.images["posts/c2"])
}

func TestListingPurgeSecondRunOnlySeesFailedListings(t *testing.T) {
	listings, storage, logs := newPurgeFixture(
		expiredListing("post-a", 10, "a1"),
		expiredListing("post-bb", 10, "b1", "b2"),
	)
	storage.images = map[string]bool{"posts/a1": true, "posts/b1": true, "posts/b2": true}
	storage.failing["posts/b2"] = true

	runner := fixedClock(NewListingPurgeJob(listings, storage, NewAuditLogger(logs), purgeConfig(), "instance-1"))
	require.NoError(t, runner.Execute(context.Background()))
	assert.Equal(t, 1, logs.detail(t, purgePostsDeleted))
	assert.Equal(t, []string{"posts/a1"}, storage.singleCalls)

	require.NoError(t, runner.Execute(context.Background()))
	assert.Equal(t, 0, logs.detail(t, purgePostsDeleted))
	assert.Equal(t, 1, logs.detail(t, purgePostsSkipped))
	failedDeletions := logs.detail(t, purgeFailedDeletions).([]view.FailedDeletion)
	require.Len(t, failedDeletions, 1)
	assert.Equal(t, "post-bb", failedDeletions[0].PostId)
	// b1 went away in the first run, so the store now reports it missing
	assert.ElementsMatch(t, []string{"posts/b1", "posts/b2"}, failedDeletions[0].FailedImages)
	assert.Len(t, logs.logs, 2)
}

func TestListingPurgeRespectsGraceWindow(t *testing.T) {
	listings, storage, logs := newPurgeFixture(
		expiredListing("post-old", 8),
		expiredListing("post-recent", 3),
	)

	runner := fixedClock(NewListingPurgeJob(listings, storage, NewAuditLogger(logs), purgeConfig(), "instance-1"))
	require.NoError(t, runner.Execute(context.Background()))

	assert.NotContains(t, listings.listings, "post-old")
	assert.Contains(t, listings.listings, "post-recent")
	assert.Equal(t, string(statusComplete), logs.detail(t, detailsStatus))
}

func TestListingPurgePagesPastSkippedListings(t *testing.T) {
	var rows []entity.ListingEntity
	for i := 0; i < 7; i++ {
		listing := expiredListing(fmt.Sprintf("post-%d", i), 30, fmt.Sprintf("img%d", i))
		listing.CreatedAt = testNow.AddDate(0, -1, 0).Add(time.Duration(i) * time.Hour)
		rows = append(rows, listing)
	}
	listings, storage, logs := newPurgeFixture(rows...)
	for i := 0; i < 7; i++ {
		storage.images[fmt.Sprintf("posts/img%d", i)] = true
	}
	storage.failing["posts/img0"] = true
	storage.failing["posts/img3"] = true

	cfg := purgeConfig()
	cfg.BatchSize = 2
	runner := fixedClock(NewListingPurgeJob(listings, storage, NewAuditLogger(logs), cfg, "instance-1"))
	require.NoError(t, runner.Execute(context.Background()))

	assert.Equal(t, 5, logs.detail(t, purgePostsDeleted))
	assert.Equal(t, 2, logs.detail(t, purgePostsSkipped))
	assert.Len(t, listings.listings, 2)
	assert.Contains(t, listings.listings, "post-0")
	assert.Contains(t, listings.listings, "post-3")
}

func TestListingPurgeContinuesAfterPanic(t *testing.T) {
	listings, storage, logs := newPurgeFixture(
		expiredListing("post-a", 10, "a1"),
		expiredListing("post-bb", 10, "b1"),
	)
	storage.images = map[string]bool{"posts/a1": true, "posts/b1": true}
	storage.panicking["posts/a1"] = true

	runner := fixedClock(NewListingPurgeJob(listings, storage, NewAuditLogger(logs), purgeConfig(), "instance-1"))
	require.NoError(t, runner.Execute(context.Background()))

	assert.Contains(t, listings.listings, "post-a")
	assert.NotContains(t, listings.listings, "post-bb")
	failedDeletions := logs.detail(t, purgeFailedDeletions).([]view.FailedDeletion)
	require.Len(t, failedDeletions, 1)
	assert.Equal(t, []string{"posts/a1"}, failedDeletions[0].FailedImages)
	assert.Contains(t, failedDeletions[0].Reason, "cdn client crashed")
	assert.Equal(t, 1, logs.detail(t, purgeImagesFailed))
}

func TestListingPurgeStoreErrorKeepsRow(t *testing.T) {
	listings, storage, logs := newPurgeFixture(expiredListing("post-a", 10, "a1", "a2"))
	storage.images = map[string]bool{"posts/a1": true, "posts/a2": true}
	storage.bulkErr = errGateway

	cfg := purgeConfig()
	cfg.MaxAttempts = 3
	runner := fixedClock(NewListingPurgeJob(listings, storage, NewAuditLogger(logs), cfg, "instance-1"))
	require.NoError(t, runner.Execute(context.Background()))

	assert.Len(t, storage.bulkCalls, 3)
	assert.Contains(t, listings.listings, "post-a")
	assert.Equal(t, 2, logs.detail(t, purgeImagesFailed))
	failedDeletions := logs.detail(t, purgeFailedDeletions).([]view.FailedDeletion)
	require.Len(t, failedDeletions, 1)
	assert.Contains(t, failedDeletions[0].Reason, errGateway.Error())
}

func TestListingPurgeChunksLargeImageLists(t *testing.T) {
	images := make([]string, 150)
	listing := expiredListing("post-a", 10)
	_, storage, _ := newPurgeFixture()
	for i := range images {
		images[i] = fmt.Sprintf("img%03d", i)
		storage.images["posts/"+images[i]] = true
	}
	listing.Images = images
	listings := newFakeListingRepository(listing)
	logs := &fakeCleanupLogRepository{}

	runner := fixedClock(NewListingPurgeJob(listings, storage, NewAuditLogger(logs), purgeConfig(), "instance-1"))
	require.NoError(t, runner.Execute(context.Background()))

	require.Len(t, storage.bulkCalls, 2)
	assert.Len(t, storage.bulkCalls[0], 100)
	assert.Len(t, storage.bulkCalls[1], 50)
	assert.Equal(t, 150, logs.detail(t, purgeImagesDeleted))
	assert.Empty(t, listings.listings)
}

func TestListingPurgeRowDeleteFailure(t *testing.T) {
	listings, storage, logs := newPurgeFixture(
		expiredListing("post-a", 10),
		expiredListing("post-bb", 10, "b1"),
	)
	storage.images["posts/b1"] = true
	listings.deleteFailing["post-a"] = true
	listings.deleteFailing["post-bb"] = true

	runner := fixedClock(NewListingPurgeJob(listings, storage, NewAuditLogger(logs), purgeConfig(), "instance-1"))
	require.NoError(t, runner.Execute(context.Background()))

	assert.Equal(t, 0, logs.detail(t, purgePostsDeleted))
	assert.Equal(t, 2, logs.detail(t, purgePostsSkipped))
	assert.Equal(t, 1, logs.detail(t, purgeImagesDeleted))
	assert.Equal(t, 0, logs.detail(t, purgeImagesFailed))
	assert.Len(t, logs.detail(t, purgeRowErrors), 2)
	assert.Equal(t, string(statusCompleteWithWarning), logs.detail(t, detailsStatus))
}

func TestListingPurgeSkipsInvalidRows(t *testing.T) {
	invalid := expiredListing("post-a", 10, "a1", "")
	listings, storage, logs := newPurgeFixture(invalid)
	storage.images["posts/a1"] = true

	runner := fixedClock(NewListingPurgeJob(listings, storage, NewAuditLogger(logs), purgeConfig(), "instance-1"))
	require.NoError(t, runner.Execute(context.Background()))

	assert.Contains(t, listings.listings, "post-a")
	assert.True(t, storage.images["posts/a1"])
	failedDeletions := logs.detail(t, purgeFailedDeletions).([]view.FailedDeletion)
	require.Len(t, failedDeletions, 1)
	assert.Contains(t, failedDeletions[0].Reason, "unexpected shape")
}

func TestListingPurgeFetchFailure(t *testing.T) {
	listings, storage, logs := newPurgeFixture(expiredListing("post-a", 10))
	listings.fetchErr = errGateway

	runner := fixedClock(NewListingPurgeJob(listings, storage, NewAuditLogger(logs), purgeConfig(), "instance-1"))
	err := runner.Execute(context.Background())
	require.Error(t, err)

	assert.Equal(t, string(statusError), logs.detail(t, detailsStatus))
	assert.Contains(t, logs.detail(t, detailsError), errGateway.Error())
	assert.Equal(t, 0, logs.detail(t, purgePostsDeleted))
}
