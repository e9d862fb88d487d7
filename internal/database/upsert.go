package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"homeradar/server/internal/models"
)

// UpsertListings inserts or refreshes a scraped batch keyed by external id.
// Coordinate and geocode columns are deliberately not part of the update
// set: once a coordinate is set it stays until an explicit re-geocode or
// manual override writes a new one.
func UpsertListings(tx *gorm.DB, batch []*models.Listing) error {
	if len(batch) == 0 {
		return nil
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"url", "title", "location", "city", "property_type", "offer_type",
			"price", "status", "thumbnail_url", "updated_at",
		}),
	}).Create(&batch).Error
	if err != nil {
		return fmt.Errorf("failed to upsert listings: %w", err)
	}
	return nil
}
