package repository

import (
	"context"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/db"
	"github.com/Netcracker/qubership-marketplace-cleanup/entity"
	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	"github.com/pkg/errors"
)

type ConversationRepository interface {
	GetPurgeCandidates(ctx context.Context, inactiveBefore time.Time) ([]entity.ConversationEntity, error)
	CountPurgeCandidates(ctx context.Context, inactiveBefore time.Time) (int, error)
	DeleteMessagesByConversationIds(ctx context.Context, conversationIds []string) (int, error)
	DeleteConversations(ctx context.Context, ids []string) (int, error)
}

func NewConversationRepository(cp db.ConnectionProvider) ConversationRepository {
	return &conversationRepositoryImpl{cp: cp}
}

type conversationRepositoryImpl struct {
	cp db.ConnectionProvider
}

func purgeCandidatesFilter(inactiveBefore time.Time) func(q *orm.Query) (*orm.Query, error) {
	return func(q *orm.Query) (*orm.Query, error) {
		return q.WhereGroup(func(q *orm.Query) (*orm.Query, error) {
			return q.Where("deleted_by_creator = true").Where("deleted_by_participant = true"), nil
		}).WhereOr("last_activity_date < ?", inactiveBefore), nil
	}
}

func (c conversationRepositoryImpl) GetPurgeCandidates(ctx context.Context, inactiveBefore time.Time) ([]entity.ConversationEntity, error) {
	var result []entity.ConversationEntity
	err := c.cp.GetConnection().ModelContext(ctx, &result).
		Column("id", "deleted_by_creator", "deleted_by_participant", "last_activity_date").
		Apply(purgeCandidatesFilter(inactiveBefore)).
		Order("last_activity_date ASC").
		Select()
	if err != nil {
		if err == pg.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get conversation purge candidates")
	}
	return result, nil
}

func (c conversationRepositoryImpl) CountPurgeCandidates(ctx context.Context, inactiveBefore time.Time) (int, error) {
	count, err := c.cp.GetConnection().ModelContext(ctx, (*entity.ConversationEntity)(nil)).
		Apply(purgeCandidatesFilter(inactiveBefore)).
		Count()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count conversation purge candidates")
	}
	return count, nil
}

func (c conversationRepositoryImpl) DeleteMessagesByConversationIds(ctx context.Context, conversationIds []string) (int, error) {
	if len(conversationIds) == 0 {
		return 0, nil
	}
	result, err := c.cp.GetConnection().ModelContext(ctx, (*entity.MessageEntity)(nil)).
		Where("conversation_id IN (?)", pg.In(conversationIds)).
		Delete()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete messages of %d conversations", len(conversationIds))
	}
	return result.RowsAffected(), nil
}

func (c conversationRepositoryImpl) DeleteConversations(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted []entity.ConversationEntity
	result, err := c.cp.GetConnection().ModelContext(ctx, &deleted).
		Where("id IN (?)", pg.In(ids)).
		Returning("id").
		Delete()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete %d conversations", len(ids))
	}
	return result.RowsAffected(), nil
}
