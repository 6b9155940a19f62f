package entity

import (
	"time"
)

type ConversationEntity struct {
	tableName struct{} `pg:"conversations"`

	Id                   string     `pg:"id, pk, type:uuid" validate:"required"`
	PostId               *string    `pg:"post_id, type:uuid"`
	CreatorId            string     `pg:"creator_id, type:uuid"`
	ParticipantId        string     `pg:"participant_id, type:uuid"`
	DeletedByCreator     bool       `pg:"deleted_by_creator, use_zero"`
	DeletedByParticipant bool       `pg:"deleted_by_participant, use_zero"`
	LastActivityDate     *time.Time `pg:"last_activity_date, type:timestamp with time zone"`
	CreatedAt            time.Time  `pg:"created_at, type:timestamp with time zone"`
}

type MessageEntity struct {
	tableName struct{} `pg:"messages"`

	Id             string    `pg:"id, pk, type:uuid"`
	ConversationId string    `pg:"conversation_id, type:uuid"`
	SenderId       string    `pg:"sender_id, type:uuid"`
	CreatedAt      time.Time `pg:"created_at, type:timestamp with time zone"`
}
