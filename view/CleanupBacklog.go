package view

import "time"

type CleanupBacklog struct {
	ComputedAt             time.Time `json:"computedAt"`
	ExpiredActiveListings  int       `json:"expiredActiveListings"`
	PurgeableListings      int       `json:"purgeableListings"`
	PurgeableConversations int       `json:"purgeableConversations"`
	PurgeableReports       int       `json:"purgeableReports"`
}
