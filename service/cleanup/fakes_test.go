package cleanup

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/entity"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

var errGateway = errors.New("gateway timeout")

func timePtr(t time.Time) *time.Time {
	return &t
}

type processorFunc func(ctx context.Context, run *jobRun) error

func (f processorFunc) Process(ctx context.Context, run *jobRun) error {
	return f(ctx, run)
}

func fixedClock(runner *JobRunner) *JobRunner {
	runner.now = func() time.Time { return testNow }
	return runner
}

func pageOf[T any](rows []T, limit int, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	end := min(offset+limit, len(rows))
	return rows[offset:end]
}

type fakeListingRepository struct {
	listings      map[string]*entity.ListingEntity
	fetchErr      error
	updateFailing map[string]int
	deleteFailing map[string]bool
	updateCalls   int
	afterUpdate   func()
}

func newFakeListingRepository(listings ...entity.ListingEntity) *fakeListingRepository {
	repo := &fakeListingRepository{
		listings:      map[string]*entity.ListingEntity{},
		updateFailing: map[string]int{},
		deleteFailing: map[string]bool{},
	}
	for i := range listings {
		listing := listings[i]
		repo.listings[listing.Id] = &listing
	}
	return repo
}

func (f *fakeListingRepository) expiredActive(now time.Time) []entity.ListingEntity {
	result := make([]entity.ListingEntity, 0)
	for _, listing := range f.listings {
		if listing.Status == string(view.ListingActive) && listing.ExpiresAt.Before(now) {
			result = append(result, *listing)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ExpiresAt.Equal(result[j].ExpiresAt) {
			return result[i].Id < result[j].Id
		}
		return result[i].ExpiresAt.Before(result[j].ExpiresAt)
	})
	return result
}

func (f *fakeListingRepository) GetExpiredActiveListings(ctx context.Context, now time.Time, limit int, offset int) ([]entity.ListingEntity, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return pageOf(f.expiredActive(now), limit, offset), nil
}

func (f *fakeListingRepository) CountExpiredActiveListings(ctx context.Context, now time.Time) (int, error) {
	return len(f.expiredActive(now)), nil
}

// Ids in updateFailing make every update containing them fail; a positive value limits the number of failures.
func (f *fakeListingRepository) MarkListingsExpired(ctx context.Context, ids []string, updatedAt time.Time) (int, error) {
	f.updateCalls++
	for _, id := range ids {
		if remaining, ok := f.updateFailing[id]; ok && remaining != 0 {
			if remaining > 0 {
				f.updateFailing[id] = remaining - 1
			}
			return 0, errGateway
		}
	}
	updated := 0
	for _, id := range ids {
		listing, ok := f.listings[id]
		if ok && listing.Status == string(view.ListingActive) {
			listing.Status = string(view.ListingExpired)
			listing.UpdatedAt = updatedAt
			updated++
		}
	}
	if f.afterUpdate != nil {
		f.afterUpdate()
	}
	return updated, nil
}

func (f *fakeListingRepository) GetListingsExpiredBefore(ctx context.Context, cutoff time.Time, limit int, offset int) ([]entity.ListingEntity, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	result := make([]entity.ListingEntity, 0)
	for _, listing := range f.listings {
		if listing.ExpiresAt.Before(cutoff) {
			result = append(result, *listing)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Id < result[j].Id
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return pageOf(result, limit, offset), nil
}

func (f *fakeListingRepository) CountListingsExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	listings, err := f.GetListingsExpiredBefore(ctx, cutoff, len(f.listings)+1, 0)
	return len(listings), err
}

func (f *fakeListingRepository) DeleteListing(ctx context.Context, id string) (bool, error) {
	if f.deleteFailing[id] {
		return false, errGateway
	}
	if _, ok := f.listings[id]; !ok {
		return false, nil
	}
	delete(f.listings, id)
	return true, nil
}

type fakeImageStorage struct {
	images      map[string]bool
	failing     map[string]bool
	panicking   map[string]bool
	bulkErr     error
	singleCalls []string
	bulkCalls   [][]string
}

func newFakeImageStorage(images ...string) *fakeImageStorage {
	storage := &fakeImageStorage{
		images:    map[string]bool{},
		failing:   map[string]bool{},
		panicking: map[string]bool{},
	}
	for _, image := range images {
		storage.images[image] = true
	}
	return storage
}

func (f *fakeImageStorage) ObjectId(image string) string {
	if strings.Contains(image, "/") {
		return image
	}
	return "posts/" + image
}

func (f *fakeImageStorage) status(id string) view.ImageDeleteStatus {
	if f.panicking[id] {
		panic("cdn client crashed")
	}
	if f.failing[id] {
		return view.ImageError
	}
	if !f.images[id] {
		return view.ImageNotFound
	}
	delete(f.images, id)
	return view.ImageDeleted
}

func (f *fakeImageStorage) DeleteImage(ctx context.Context, id string) (view.ImageDeleteStatus, error) {
	f.singleCalls = append(f.singleCalls, id)
	return f.status(id), nil
}

func (f *fakeImageStorage) DeleteImages(ctx context.Context, ids []string) (map[string]view.ImageDeleteStatus, error) {
	f.bulkCalls = append(f.bulkCalls, ids)
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	statuses := map[string]view.ImageDeleteStatus{}
	for _, id := range ids {
		statuses[id] = f.status(id)
	}
	return statuses, nil
}

func (f *fakeImageStorage) MaxBatchSize() int {
	return 100
}

type fakeConversationRepository struct {
	conversations  map[string]entity.ConversationEntity
	messages       map[string]entity.MessageEntity
	fetchErr       error
	undeletableIds map[string]bool
}

func newFakeConversationRepository(conversations []entity.ConversationEntity, messages []entity.MessageEntity) *fakeConversationRepository {
	repo := &fakeConversationRepository{
		conversations:  map[string]entity.ConversationEntity{},
		messages:       map[string]entity.MessageEntity{},
		undeletableIds: map[string]bool{},
	}
	for _, conversation := range conversations {
		repo.conversations[conversation.Id] = conversation
	}
	for _, message := range messages {
		repo.messages[message.Id] = message
	}
	return repo
}

func (f *fakeConversationRepository) GetPurgeCandidates(ctx context.Context, inactiveBefore time.Time) ([]entity.ConversationEntity, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	result := make([]entity.ConversationEntity, 0)
	for _, conversation := range f.conversations {
		if (conversation.DeletedByCreator && conversation.DeletedByParticipant) || (conversation.LastActivityDate != nil && conversation.LastActivityDate.Before(inactiveBefore)) {
			result = append(result, conversation)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (f *fakeConversationRepository) CountPurgeCandidates(ctx context.Context, inactiveBefore time.Time) (int, error) {
	conversations, err := f.GetPurgeCandidates(ctx, inactiveBefore)
	return len(conversations), err
}

func (f *fakeConversationRepository) DeleteMessagesByConversationIds(ctx context.Context, conversationIds []string) (int, error) {
	deleted := 0
	for id, message := range f.messages {
		for _, conversationId := range conversationIds {
			if message.ConversationId == conversationId {
				delete(f.messages, id)
				deleted++
				break
			}
		}
	}
	return deleted, nil
}

func (f *fakeConversationRepository) DeleteConversations(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		if _, ok := f.conversations[id]; ok && !f.undeletableIds[id] {
			delete(f.conversations, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeReportRepository struct {
	reports        map[string]entity.ReportEntity
	fetchErr       error
	undeletableIds map[string]bool
}

func newFakeReportRepository(reports ...entity.ReportEntity) *fakeReportRepository {
	repo := &fakeReportRepository{reports: map[string]entity.ReportEntity{}, undeletableIds: map[string]bool{}}
	for _, report := range reports {
		repo.reports[report.Id] = report
	}
	return repo
}

func (f *fakeReportRepository) GetPurgeCandidates(ctx context.Context, reviewedBefore time.Time) ([]entity.ReportEntity, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	result := make([]entity.ReportEntity, 0)
	for _, report := range f.reports {
		if report.Status != string(view.ReportPending) && report.ReviewedAt != nil && report.ReviewedAt.Before(reviewedBefore) {
			result = append(result, report)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (f *fakeReportRepository) CountPurgeCandidates(ctx context.Context, reviewedBefore time.Time) (int, error) {
	reports, err := f.GetPurgeCandidates(ctx, reviewedBefore)
	return len(reports), err
}

func (f *fakeReportRepository) DeleteReports(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		if _, ok := f.reports[id]; ok && !f.undeletableIds[id] {
			delete(f.reports, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeCleanupLogRepository struct {
	logs     []*entity.CleanupLogEntity
	storeErr error
	storeCtx context.Context
}

func (f *fakeCleanupLogRepository) StoreCleanupLog(ctx context.Context, log *entity.CleanupLogEntity) error {
	f.storeCtx = ctx
	if f.storeErr != nil {
		return f.storeErr
	}
	log.Id = int64(len(f.logs) + 1)
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeCleanupLogRepository) GetRecentCleanupLogs(ctx context.Context, operation string, limit int) ([]entity.CleanupLogEntity, error) {
	result := make([]entity.CleanupLogEntity, 0)
	for i := len(f.logs) - 1; i >= 0 && len(result) < limit; i-- {
		if operation == "" || f.logs[i].Operation == operation {
			result = append(result, *f.logs[i])
		}
	}
	return result, nil
}

func (f *fakeCleanupLogRepository) last(t *testing.T) *entity.CleanupLogEntity {
	t.Helper()
	require.NotEmpty(t, f.logs, "no cleanup log written")
	return f.logs[len(f.logs)-1]
}

func (f *fakeCleanupLogRepository) detail(t *testing.T, key string) interface{} {
	t.Helper()
	value, ok := f.last(t).Details.Get(key)
	require.True(t, ok, "details key %s is missing", key)
	return value
}
