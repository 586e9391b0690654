package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is the local read model of events owned by the event service.
// Rows are only written by the event sync consumer.
type Event struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizerID string     `gorm:"not null;index" json:"organizerId"`
	Title       string     `gorm:"not null" json:"title"`
	CityID      string     `json:"cityId"`
	StartAt     *time.Time `json:"startAt"`
	EndAt       *time.Time `json:"endAt"`
	Status      string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
