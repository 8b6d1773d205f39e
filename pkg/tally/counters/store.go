package counters

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mikepea/tally/pkg/tally/models"
)

// maxCreateRetries bounds the lost-creation-race loop in Increment. One retry
// always suffices (the loser of the insert race finds the winner's row on the
// next pass); the cap only guards against a store bug.
const maxCreateRetries = 3

var errCreateRetries = errors.New("counter creation retry limit exceeded")

// Read returns the current value for (ownerID, tag), locking the row for
// update when it exists so no concurrent increment can slip in between this
// read and whatever the caller does next in the same transaction. A missing
// row reads as 0; absence is not an error.
func Read(tx *gorm.DB, ownerID, tag string) (int64, error) {
	var counter models.Counter
	err := forUpdate(tx).Where("owner_id = ? AND tag = ?", ownerID, tag).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// Increment adds one to the counter for (ownerID, tag), creating it at 1 on
// first use, and returns the new value. Concurrent increments serialize on
// the row lock: each caller sees a distinct value and none are lost. Must run
// inside a transaction.
func Increment(tx *gorm.DB, ownerID, tag string) (int64, error) {
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		var counter models.Counter
		err := forUpdate(tx).Where("owner_id = ? AND tag = ?", ownerID, tag).First(&counter).Error
		if err == nil {
			newValue := counter.Value + 1
			err := tx.Model(&models.Counter{}).Where("id = ?", counter.ID).Updates(map[string]interface{}{
				"value":        newValue,
				"last_updated": time.Now().UTC(),
			}).Error
			if err != nil {
				return 0, err
			}
			return newValue, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}

		counter = models.Counter{
			ID:          uuid.NewString(),
			OwnerID:     ownerID,
			Tag:         tag,
			Value:       1,
			LastUpdated: time.Now().UTC(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected > 0 {
			return 1, nil
		}

		// Lost the creation race: another transaction inserted this
		// (owner, tag) first. Go around and lock its row.
	}
	return 0, errCreateRetries
}

// forUpdate adds an exclusive row lock to the query. sqlite has no FOR UPDATE
// syntax; its single-writer transaction lock gives the same exclusion, so the
// clause is skipped there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
