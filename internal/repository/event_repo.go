package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sharthi/stall-marketplace/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Event, error)
	Upsert(ctx context.Context, event *models.Event) error
	CountByOrganizer(ctx context.Context, organizerID string) (total int64, active int64, err error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := conn(r.db, tx).WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// Upsert inserts the event or overwrites the synced columns when the id already exists.
func (r *eventRepository) Upsert(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"organizer_id", "title", "city_id", "start_at", "end_at", "status", "updated_at"}),
	}).Create(event).Error
}

func (r *eventRepository) CountByOrganizer(ctx context.Context, organizerID string) (int64, int64, error) {
	var total, active int64
	db := r.db.WithContext(ctx).Model(&models.Event{})
	if err := db.Where("organizer_id = ?", organizerID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("organizer_id = ? AND status = ?", organizerID, "active").
		Count(&active).Error; err != nil {
		return 0, 0, err
	}
	return total, active, nil
}
