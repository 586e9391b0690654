package database

import (
	"fmt"
	"time"

	"github.com/sharthi/stall-marketplace/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB opens the pool. TranslateError turns unique violations into
// gorm.ErrDuplicatedKey so callers never look at driver codes for them.
func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	return db, nil
}

// Migrate creates the tables plus the constraints the booking ledger relies on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Event{}, &models.Stall{}, &models.Booking{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// At most one active booking per creator and stall
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_active_creator_stall
		ON bookings (creator_id, stall_id)
		WHERE status <> 'CANCELLED'
	`).Error; err != nil {
		return fmt.Errorf("create booking index: %w", err)
	}
	return nil
}
