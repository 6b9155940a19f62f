package repository

import (
	"context"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/db"
	"github.com/Netcracker/qubership-marketplace-cleanup/entity"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type ListingRepository interface {
	GetExpiredActiveListings(ctx context.Context, now time.Time, limit int, offset int) ([]entity.ListingEntity, error)
	CountExpiredActiveListings(ctx context.Context, now time.Time) (int, error)
	MarkListingsExpired(ctx context.Context, ids []string, updatedAt time.Time) (int, error)
	GetListingsExpiredBefore(ctx context.Context, cutoff time.Time, limit int, offset int) ([]entity.ListingEntity, error)
	CountListingsExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)
	DeleteListing(ctx context.Context, id string) (bool, error)
}

func NewListingRepository(cp db.ConnectionProvider) ListingRepository {
	return &listingRepositoryImpl{cp: cp}
}

type listingRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (l listingRepositoryImpl) GetExpiredActiveListings(ctx context.Context, now time.Time, limit int, offset int) ([]entity.ListingEntity, error) {
	var result []entity.ListingEntity
	err := l.cp.GetConnection().ModelContext(ctx, &result).
		Column("id", "status", "expires_at").
		Where("status = ?", view.ListingActive).
		Where("expires_at < ?", now).
		Order("expires_at ASC", "id ASC").
		Limit(limit).
		Offset(offset).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get expired active listings")
	}
	return result, nil
}

func (l listingRepositoryImpl) CountExpiredActiveListings(ctx context.Context, now time.Time) (int, error) {
	count, err := l.cp.GetConnection().ModelContext(ctx, (*entity.ListingEntity)(nil)).
		Where("status = ?", view.ListingActive).
		Where("expires_at < ?", now).
		Count()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count expired active listings")
	}
	return count, nil
}

// MarkListingsExpired only touches rows that are still active, so a listing
// renewed between the fetch and the update keeps its status.
func (l listingRepositoryImpl) MarkListingsExpired(ctx context.Context, ids []string, updatedAt time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := l.cp.GetConnection().ModelContext(ctx, (*entity.ListingEntity)(nil)).
		Set("status = ?", view.ListingExpired).
		Set("updated_at = ?", updatedAt).
		Where("id IN (?)", pg.In(ids)).
		Where("status = ?", view.ListingActive).
		Update()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to mark %d listings as expired", len(ids))
	}
	return result.RowsAffected(), nil
}

func (l listingRepositoryImpl) GetListingsExpiredBefore(ctx context.Context, cutoff time.Time, limit int, offset int) ([]entity.ListingEntity, error) {
	var result []entity.ListingEntity
	err := l.cp.GetConnection().ModelContext(ctx, &result).
		Column("id", "user_id", "status", "expires_at", "images", "created_at").
		Where("expires_at < ?", cutoff).
		Order("created_at ASC", "id ASC").
		Limit(limit).
		Offset(offset).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get listings past the grace period")
	}
	return result, nil
}

func (l listingRepositoryImpl) CountListingsExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	count, err := l.cp.GetConnection().ModelContext(ctx, (*entity.ListingEntity)(nil)).
		Where("expires_at < ?", cutoff).
		Count()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count listings past the grace period")
	}
	return count, nil
}

func (l listingRepositoryImpl) DeleteListing(ctx context.Context, id string) (bool, error) {
	result, err := l.cp.GetConnection().ModelContext(ctx, (*entity.ListingEntity)(nil)).
		Where("id = ?", id).
		Delete()
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete listing %s", id)
	}
	return result.RowsAffected() > 0, nil
}
