package repository

import (
	"context"

	"github.com/Netcracker/qubership-marketplace-cleanup/db"
	"github.com/Netcracker/qubership-marketplace-cleanup/entity"
	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type CleanupLogRepository interface {
	StoreCleanupLog(ctx context.Context, log *entity.CleanupLogEntity) error
	GetRecentCleanupLogs(ctx context.Context, operation string, limit int) ([]entity.CleanupLogEntity, error)
}

func NewCleanupLogRepository(cp db.ConnectionProvider) CleanupLogRepository {
	return &cleanupLogRepositoryImpl{cp: cp}
}

type cleanupLogRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (c cleanupLogRepositoryImpl) StoreCleanupLog(ctx context.Context, log *entity.CleanupLogEntity) error {
	_, err := c.cp.GetConnection().ModelContext(ctx, log).
		ExcludeColumn("id").
		Returning("id").
		Insert()
	if err != nil {
		return errors.Wrapf(err, "failed to store cleanup log for %s", log.Operation)
	}
	return nil
}

// GetRecentCleanupLogs returns the newest entries first; an empty operation matches all jobs.
func (c cleanupLogRepositoryImpl) GetRecentCleanupLogs(ctx context.Context, operation string, limit int) ([]entity.CleanupLogEntity, error) {
	var result []entity.CleanupLogEntity
	query := c.cp.GetConnection().ModelContext(ctx, &result)
	if operation != "" {
		query = query.Where("operation = ?", operation)
	}
	err := query.Order("executed_at DESC", "id DESC").
		Limit(limit).
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get cleanup logs")
	}
	return result, nil
}
