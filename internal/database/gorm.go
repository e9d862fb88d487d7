package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"homeradar/server/internal/models"
)

// NewGormDB opens the gorm handle used by the ingestion pipeline. It shares
// the database file with the raw sql handle; the two sides never touch the
// same columns concurrently (upserts leave geocode columns alone).
func NewGormDB(dbPath string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// NewTestDB opens an isolated in-memory database for tests.
func NewTestDB() (*gorm.DB, error) {
	return gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// MigrateSchema creates the listings schema on a gorm handle.
func MigrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(&models.Listing{})
}
