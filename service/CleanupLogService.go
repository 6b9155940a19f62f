package service

import (
	"context"

	"github.com/Netcracker/qubership-marketplace-cleanup/entity"
	"github.com/Netcracker/qubership-marketplace-cleanup/repository"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
)

type CleanupLogService interface {
	GetRecentCleanupLogs(ctx context.Context, operation string, limit int) (*view.CleanupLogs, error)
}

func NewCleanupLogService(cleanupLogRepository repository.CleanupLogRepository) CleanupLogService {
	return &cleanupLogServiceImpl{cleanupLogRepository: cleanupLogRepository}
}

type cleanupLogServiceImpl struct {
	cleanupLogRepository repository.CleanupLogRepository
}

func (c cleanupLogServiceImpl) GetRecentCleanupLogs(ctx context.Context, operation string, limit int) (*view.CleanupLogs, error) {
	ents, err := c.cleanupLogRepository.GetRecentCleanupLogs(ctx, operation, limit)
	if err != nil {
		return nil, err
	}
	result := &view.CleanupLogs{Logs: make([]view.CleanupLog, 0, len(ents))}
	for _, ent := range ents {
		result.Logs = append(result.Logs, makeCleanupLogView(ent))
	}
	return result, nil
}

func makeCleanupLogView(ent entity.CleanupLogEntity) view.CleanupLog {
	return view.CleanupLog{
		Id:           ent.Id,
		Operation:    ent.Operation,
		RowsAffected: ent.RowsAffected,
		Details:      ent.Details,
		ExecutedAt:   ent.ExecutedAt,
	}
}
