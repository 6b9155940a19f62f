package view

type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingExpired  ListingStatus = "expired"
	ListingRemoved  ListingStatus = "removed"
	ListingPending  ListingStatus = "pending"
	ListingInactive ListingStatus = "inactive"
	ListingDeleted  ListingStatus = "deleted"
)
