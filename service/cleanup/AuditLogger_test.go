package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLoggerRecord(t *testing.T) {
	logs := &fakeCleanupLogRepository{}
	audit := &auditLoggerImpl{cleanupLogRepository: logs, now: func() time.Time { return testNow }}

	details := NewDetails()
	details.Set("total", 2)
	audit.Record(context.Background(), "cleanup_reports", 2, details)

	require.Len(t, logs.logs, 1)
	assert.Equal(t, int64(1), logs.logs[0].Id)
	assert.Equal(t, "cleanup_reports", logs.logs[0].Operation)
	assert.Equal(t, 2, logs.logs[0].RowsAffected)
	assert.Equal(t, testNow, logs.logs[0].ExecutedAt)
	assert.Equal(t, []string{"total"}, logs.logs[0].Details.Keys())
}

func TestAuditLoggerWithoutDetails(t *testing.T) {
	logs := &fakeCleanupLogRepository{}
	NewAuditLogger(logs).Record(context.Background(), "expire_listings", 0, nil)

	require.Len(t, logs.logs, 1)
	assert.NotNil(t, logs.logs[0].Details)
	assert.Empty(t, logs.logs[0].Details.Keys())
}

func TestAuditLoggerUsesFreshContextAfterCancellation(t *testing.T) {
	logs := &fakeCleanupLogRepository{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewAuditLogger(logs).Record(ctx, "expire_listings", 1, NewDetails())

	require.Len(t, logs.logs, 1)
	assert.NoError(t, logs.storeCtx.Err())
	_, hasDeadline := logs.storeCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestAuditLoggerSwallowsFailures(t *testing.T) {
	logs := &fakeCleanupLogRepository{storeErr: errors.New("permission denied for table cleanup_logs")}
	assert.NotPanics(t, func() {
		NewAuditLogger(logs).Record(context.Background(), "expire_listings", 1, NewDetails())
	})
	assert.Empty(t, logs.logs)
}
