package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sharthi/stall-marketplace/internal/clock"
	"github.com/sharthi/stall-marketplace/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error)
	FindActiveByCreatorAndStall(ctx context.Context, tx *gorm.DB, creatorID string, stallID uuid.UUID) (*models.Booking, error)
	ListActiveByCreator(ctx context.Context, creatorID string) ([]models.Booking, error)
	ListActiveByOrganizer(ctx context.Context, organizerID string) ([]models.Booking, error)
	CountByStall(ctx context.Context, tx *gorm.DB, stallID uuid.UUID) (int64, error)
	MarkReviewed(ctx context.Context, tx *gorm.DB, id uuid.UUID, rating int, text *string) (bool, error)
	Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type bookingRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewBookingRepository(db *gorm.DB, clk clock.Clock) BookingRepository {
	return &bookingRepository{db: db, clock: clk}
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return conn(r.db, tx).WithContext(ctx).Omit("Event", "Stall").Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := conn(r.db, tx).WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindActiveByCreatorAndStall(ctx context.Context, tx *gorm.DB, creatorID string, stallID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := conn(r.db, tx).WithContext(ctx).
		Where("creator_id = ? AND stall_id = ? AND status <> ?", creatorID, stallID, models.StatusCancelled).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListActiveByCreator returns the creator's bookings with event and stall preloaded.
// Event or Stall stays nil when the referenced row is gone.
func (r *bookingRepository) ListActiveByCreator(ctx context.Context, creatorID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Event").
		Preload("Stall").
		Where("creator_id = ? AND status <> ?", creatorID, models.StatusCancelled).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) ListActiveByOrganizer(ctx context.Context, organizerID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("organizer_id = ? AND status <> ?", organizerID, models.StatusCancelled).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// CountByStall counts every booking row on the stall, cancelled ones included.
func (r *bookingRepository) CountByStall(ctx context.Context, tx *gorm.DB, stallID uuid.UUID) (int64, error) {
	var count int64
	err := conn(r.db, tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("stall_id = ?", stallID).
		Count(&count).Error
	return count, err
}

func (r *bookingRepository) MarkReviewed(ctx context.Context, tx *gorm.DB, id uuid.UUID, rating int, text *string) (bool, error) {
	updates := map[string]any{
		"reviewed":   true,
		"rating":     rating,
		"updated_at": r.clock.Now(),
	}
	if text != nil {
		updates["review_text"] = *text
	}
	res := conn(r.db, tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND reviewed = ? AND status <> ?", id, false, models.StatusCancelled).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *bookingRepository) Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := conn(r.db, tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, models.StatusPaid).
		Updates(map[string]any{
			"status":     models.StatusCancelled,
			"updated_at": r.clock.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
