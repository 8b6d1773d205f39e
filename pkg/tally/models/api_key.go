package models

import "time"

// APIKey is the persisted, verifiable form of an issued credential. The raw
// key handed to the caller is never stored: LookupPrefix is the plaintext
// half used to find the row, Verifier is a one-way digest of the secret half.
type APIKey struct {
	ID           string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	OwnerEmail   string    `gorm:"uniqueIndex;not null" json:"owner_email"`
	LookupPrefix []byte    `gorm:"not null;index" json:"-"`
	Verifier     []byte    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	// Relationships
	Counters []Counter `gorm:"foreignKey:OwnerID" json:"counters,omitempty"`
}
