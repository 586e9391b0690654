package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Stall struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     uuid.UUID `gorm:"type:uuid;not null;index" json:"eventId"`
	OrganizerID string    `gorm:"not null;index" json:"organizerId"`
	Name        string    `gorm:"not null" json:"name"`
	Tier        string    `gorm:"type:varchar(32);not null" json:"tier"`
	Price       int64     `gorm:"not null" json:"price"`
	QtyTotal    int       `gorm:"not null" json:"qtyTotal"`
	QtyLeft     int       `gorm:"not null;check:chk_stalls_qty_left,qty_left >= 0 AND qty_left <= qty_total" json:"qtyLeft"`
	Specs       string    `json:"specs"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Sold is the number of capacity units held by active bookings.
func (s *Stall) Sold() int {
	return s.QtyTotal - s.QtyLeft
}

func NormalizeTier(tier string) string {
	return strings.ToUpper(strings.TrimSpace(tier))
}
