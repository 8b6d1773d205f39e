package models

import "time"

// Counter is a named per-owner tally. It is created lazily at 1 on first
// increment and never deleted; (OwnerID, Tag) is its natural key.
type Counter struct {
	ID          string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	OwnerID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_counter_owner_tag" json:"owner_id"`
	Tag         string    `gorm:"not null;uniqueIndex:idx_counter_owner_tag" json:"tag"`
	Value       int64     `gorm:"not null" json:"value"`
	LastUpdated time.Time `json:"last_updated"`
}
