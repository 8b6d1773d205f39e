package models

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func TestOwnerEmailIsUnique(t *testing.T) {
	db := setupTestDB(t)

	first := APIKey{ID: "k1", OwnerEmail: "alice@example.com", LookupPrefix: []byte("p1"), Verifier: []byte("v1")}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("Failed to create first key: %v", err)
	}

	second := APIKey{ID: "k2", OwnerEmail: "alice@example.com", LookupPrefix: []byte("p2"), Verifier: []byte("v2")}
	if err := db.Create(&second).Error; err == nil {
		t.Error("Expected unique constraint violation for duplicate owner_email")
	}
}

func TestOwnerTagPairIsUnique(t *testing.T) {
	db := setupTestDB(t)

	for _, owner := range []APIKey{
		{ID: "k1", OwnerEmail: "alice@example.com", LookupPrefix: []byte("p1"), Verifier: []byte("v1")},
		{ID: "k2", OwnerEmail: "bob@example.com", LookupPrefix: []byte("p2"), Verifier: []byte("v2")},
	} {
		if err := db.Create(&owner).Error; err != nil {
			t.Fatalf("Failed to create owner %s: %v", owner.ID, err)
		}
	}

	first := Counter{ID: "c1", OwnerID: "k1", Tag: "clicks", Value: 1}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("Failed to create first counter: %v", err)
	}

	second := Counter{ID: "c2", OwnerID: "k1", Tag: "clicks", Value: 1}
	if err := db.Create(&second).Error; err == nil {
		t.Error("Expected unique constraint violation for duplicate (owner_id, tag)")
	}

	// Same tag under a different owner is a different counter
	other := Counter{ID: "c3", OwnerID: "k2", Tag: "clicks", Value: 1}
	if err := db.Create(&other).Error; err != nil {
		t.Errorf("Same tag under another owner should be allowed: %v", err)
	}
}
