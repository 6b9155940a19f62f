package entity

import (
	"time"
)

type ReportEntity struct {
	tableName struct{} `pg:"reports"`

	Id         string     `pg:"id, pk, type:uuid" validate:"required"`
	ReporterId string     `pg:"reporter_id, type:uuid"`
	PostId     *string    `pg:"post_id, type:uuid"`
	Reason     string     `pg:"reason, type:varchar"`
	Status     string     `pg:"status, type:varchar" validate:"required,oneof=pending dismissed resolved"`
	ReviewedAt *time.Time `pg:"reviewed_at, type:timestamp with time zone"`
	CreatedAt  time.Time  `pg:"created_at, type:timestamp with time zone"`
}
