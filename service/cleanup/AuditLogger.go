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
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/entity"
	"github.com/Netcracker/qubership-marketplace-cleanup/repository"
	"github.com/Netcracker/qubership-marketplace-cleanup/service/cleanup/logger"
)

// AuditLogger appends one cleanup_logs row per job run. Write failures are logged and never
// change the outcome of the run that produced the entry.
type AuditLogger interface {
	Record(ctx context.Context, operation string, rowsAffected int, details *Details)
}

func NewAuditLogger(cleanupLogRepository repository.CleanupLogRepository) AuditLogger {
	return &auditLoggerImpl{cleanupLogRepository: cleanupLogRepository, now: time.Now}
}

type auditLoggerImpl struct {
	cleanupLogRepository repository.CleanupLogRepository
	now                  func() time.Time
}

func (a *auditLoggerImpl) Record(ctx context.Context, operation string, rowsAffected int, details *Details) {
	updateCtx, cancel := createContextForUpdate(ctx)
	defer cancel()

	if details == nil {
		details = NewDetails()
	}
	log := &entity.CleanupLogEntity{
		Operation:    operation,
		RowsAffected: rowsAffected,
		Details:      details.OrderedMap(),
		ExecutedAt:   a.now(),
	}
	if err := a.cleanupLogRepository.StoreCleanupLog(updateCtx, log); err != nil {
		logger.Errorf(ctx, "Failed to write cleanup log entry for %s (rows affected %d): %v", operation, rowsAffected, err)
		return
	}
	logger.Debugf(ctx, "Cleanup log entry %d written", log.Id)
}
