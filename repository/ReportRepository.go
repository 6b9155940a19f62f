package repository

import (
	"context"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/db"
	"github.com/Netcracker/qubership-marketplace-cleanup/entity"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	"github.com/pkg/errors"
)

type ReportRepository interface {
	GetPurgeCandidates(ctx context.Context, reviewedBefore time.Time) ([]entity.ReportEntity, error)
	CountPurgeCandidates(ctx context.Context, reviewedBefore time.Time) (int, error)
	DeleteReports(ctx context.Context, ids []string) (int, error)
}

func NewReportRepository(cp db.ConnectionProvider) ReportRepository {
	return &reportRepositoryImpl{cp: cp}
}

type reportRepositoryImpl struct {
	cp db.ConnectionProvider
}

func closedReviewedBefore(reviewedBefore time.Time) func(q *orm.Query) (*orm.Query, error) {
	return func(q *orm.Query) (*orm.Query, error) {
		return q.Where("status <> ?", view.ReportPending).
			Where("reviewed_at IS NOT NULL").
			Where("reviewed_at < ?", reviewedBefore), nil
	}
}

func (r reportRepositoryImpl) GetPurgeCandidates(ctx context.Context, reviewedBefore time.Time) ([]entity.ReportEntity, error) {
	var result []entity.ReportEntity
	err := r.cp.GetConnection().ModelContext(ctx, &result).
		Column("id", "status", "reviewed_at").
		Apply(closedReviewedBefore(reviewedBefore)).
		Order("reviewed_at ASC").
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get report purge candidates")
	}
	return result, nil
}

func (r reportRepositoryImpl) CountPurgeCandidates(ctx context.Context, reviewedBefore time.Time) (int, error) {
	count, err := r.cp.GetConnection().ModelContext(ctx, (*entity.ReportEntity)(nil)).
		Apply(closedReviewedBefore(reviewedBefore)).
		Count()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count report purge candidates")
	}
	return count, nil
}

func (r reportRepositoryImpl) DeleteReports(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted []entity.ReportEntity
	result, err := r.cp.GetConnection().ModelContext(ctx, &deleted).
		Where("id IN (?)", pg.In(ids)).
		Where("status <> ?", view.ReportPending).
		Returning("id").
		Delete()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete %d reports", len(ids))
	}
	return result.RowsAffected(), nil
}
