package entity

import (
	"time"
)

type ListingEntity struct {
	tableName struct{} `pg:"posts"`

	Id        string    `pg:"id, pk, type:uuid" validate:"required"`
	UserId    string    `pg:"user_id, type:uuid"`
	Title     string    `pg:"title, type:varchar"`
	Status    string    `pg:"status, type:varchar" validate:"required,oneof=active expired removed pending inactive deleted"`
	ExpiresAt time.Time `pg:"expires_at, type:timestamp with time zone" validate:"required"`
	Images    []string  `pg:"images, array" validate:"dive,required"`
	CreatedAt time.Time `pg:"created_at, type:timestamp with time zone"`
	UpdatedAt time.Time `pg:"updated_at, type:timestamp with time zone"`
}
