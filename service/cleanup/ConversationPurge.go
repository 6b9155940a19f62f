package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	"github.com/Netcracker/qubership-marketplace-cleanup/exception"
	"github.com/Netcracker/qubership-marketplace-cleanup/repository"
	"github.com/Netcracker/qubership-marketplace-cleanup/service/cleanup/logger"
)

const (
	conversationsTotal             = "total"
	conversationsDeletedByBoth     = "deleted_by_both"
	conversationsDeletedByInactive = "deleted_by_inactivity"
	conversationsMessagesDeleted   = "messages_deleted"
	conversationsRetentionMonths   = "retention_months"
	conversationsCutoff            = "cutoff"
)

type conversationPurgeJobProcessor struct {
	conversationRepository repository.ConversationRepository
	retentionMonths        int
	maxRows                int
}

func NewConversationPurgeJob(conversationRepository repository.ConversationRepository, auditLogger AuditLogger, cfg config.ConversationPurgeConfig, instanceId string) *JobRunner {
	processor := &conversationPurgeJobProcessor{
		conversationRepository: conversationRepository,
		retentionMonths:        cfg.RetentionMonths,
		maxRows:                cfg.MaxRows,
	}
	return newJobRunner(jobConfig{
		jobType:    conversationPurge,
		instanceId: instanceId,
		timeout:    time.Duration(cfg.TimeoutMinutes) * time.Minute,
	}, processor, auditLogger)
}

// Process removes conversations both parties deleted or with no activity within the retention
// window. Messages go first so none is left without its conversation.
func (p *conversationPurgeJobProcessor) Process(ctx context.Context, run *jobRun) error {
	cutoff := config.ConversationPurgeConfig{RetentionMonths: p.retentionMonths}.Cutoff(run.startedAt)
	run.details.Set(conversationsCutoff, cutoff.Format(time.RFC3339))
	run.details.Set(conversationsRetentionMonths, p.retentionMonths)

	conversations, err := p.conversationRepository.GetPurgeCandidates(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to fetch conversations to purge: %w", err)
	}

	ids := make([]string, 0, len(conversations))
	deletedByBoth, deletedByInactivity := 0, 0
	for _, conversation := range conversations {
		ids = append(ids, conversation.Id)
		// both tallies are independent; one conversation may count in both
		if conversation.DeletedByCreator && conversation.DeletedByParticipant {
			deletedByBoth++
		}
		// a NULL last activity is never inactive, matching the SQL predicate
		if conversation.LastActivityDate != nil && conversation.LastActivityDate.Before(cutoff) {
			deletedByInactivity++
		}
	}
	run.details.Set(conversationsTotal, len(ids))
	run.details.Set(conversationsDeletedByBoth, deletedByBoth)
	run.details.Set(conversationsDeletedByInactive, deletedByInactivity)

	if len(ids) == 0 {
		run.details.Set(conversationsMessagesDeleted, 0)
		logger.Info(ctx, "No conversations to purge")
		return nil
	}
	if len(ids) > p.maxRows {
		return exception.NewSafetyLimitError("conversation", len(ids), p.maxRows)
	}

	messagesDeleted, err := p.conversationRepository.DeleteMessagesByConversationIds(ctx, ids)
	run.details.Set(conversationsMessagesDeleted, messagesDeleted)
	run.count("messages_deleted", messagesDeleted)
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	logger.Debugf(ctx, "Deleted %d messages of %d conversations", messagesDeleted, len(ids))

	deleted, err := p.conversationRepository.DeleteConversations(ctx, ids)
	run.rowsAffected = deleted
	run.count("conversations_deleted", deleted)
	if err != nil {
		return fmt.Errorf("failed to delete conversations: %w", err)
	}
	if deleted != len(ids) {
		return exception.NewCountMismatchError("conversation", len(ids), deleted)
	}

	logger.Infof(ctx, "Deleted %d conversations (%d deleted by both parties, %d inactive) and %d messages",
		deleted, deletedByBoth, deletedByInactivity, messagesDeleted)
	return nil
}
