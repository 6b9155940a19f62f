package entity

import (
	"time"

	"github.com/iancoleman/orderedmap"
)

type CleanupLogEntity struct {
	tableName struct{} `pg:"cleanup_logs"`

	Id           int64                  `pg:"id, pk"`
	Operation    string                 `pg:"operation, type:varchar"`
	RowsAffected int                    `pg:"rows_affected, type:integer, use_zero"`
	Details      *orderedmap.OrderedMap `pg:"details, type:jsonb"`
	ExecutedAt   time.Time              `pg:"executed_at, type:timestamp with time zone"`
}
