package service

import (
	"context"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	"github.com/Netcracker/qubership-marketplace-cleanup/repository"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// CleanupBacklogService counts the rows each cleanup job would pick up if it ran now.
type CleanupBacklogService interface {
	GetCleanupBacklog(ctx context.Context) (*view.CleanupBacklog, error)
}

func NewCleanupBacklogService(listingRepository repository.ListingRepository,
	conversationRepository repository.ConversationRepository,
	reportRepository repository.ReportRepository,
	cfg config.CleanupConfig) CleanupBacklogService {
	return &cleanupBacklogServiceImpl{
		listingRepository:      listingRepository,
		conversationRepository: conversationRepository,
		reportRepository:       reportRepository,
		cfg:                    cfg,
		now:                    time.Now,
	}
}

type cleanupBacklogServiceImpl struct {
	listingRepository      repository.ListingRepository
	conversationRepository repository.ConversationRepository
	reportRepository       repository.ReportRepository
	cfg                    config.CleanupConfig
	now                    func() time.Time
}

func (s *cleanupBacklogServiceImpl) GetCleanupBacklog(ctx context.Context) (*view.CleanupBacklog, error) {
	now := s.now()
	backlog := &view.CleanupBacklog{ComputedAt: now}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		backlog.ExpiredActiveListings, err = s.listingRepository.CountExpiredActiveListings(ctx, now)
		if err != nil {
			log.Errorf("Failed to count expired active listings: %v", err)
		}
		return err
	})

	g.Go(func() error {
		var err error
		backlog.PurgeableListings, err = s.listingRepository.CountListingsExpiredBefore(ctx, s.cfg.ListingPurge.Cutoff(now))
		if err != nil {
			log.Errorf("Failed to count purgeable listings: %v", err)
		}
		return err
	})

	g.Go(func() error {
		var err error
		backlog.PurgeableConversations, err = s.conversationRepository.CountPurgeCandidates(ctx, s.cfg.ConversationPurge.Cutoff(now))
		if err != nil {
			log.Errorf("Failed to count purgeable conversations: %v", err)
		}
		return err
	})

	g.Go(func() error {
		var err error
		backlog.PurgeableReports, err = s.reportRepository.CountPurgeCandidates(ctx, s.cfg.ReportPurge.Cutoff(now))
		if err != nil {
			log.Errorf("Failed to count purgeable reports: %v", err)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return backlog, nil
}
