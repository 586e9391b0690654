package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	StatusPaid      BookingStatus = "PAID"
	StatusCancelled BookingStatus = "CANCELLED"
)

type Booking struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID   string        `gorm:"not null;index" json:"creatorId"`
	OrganizerID string        `gorm:"not null;index" json:"organizerId"`
	EventID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"eventId"`
	StallID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"stallId"`
	Amount      int64         `gorm:"not null" json:"amount"`
	PaymentRef  string        `json:"paymentRef,omitempty"`
	Status      BookingStatus `gorm:"type:varchar(20);not null;default:'PAID'" json:"status"`
	Reviewed    bool          `gorm:"not null;default:false" json:"reviewed"`
	Rating      *int          `json:"rating,omitempty"`
	ReviewText  *string       `json:"reviewText,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Stall *Stall `gorm:"foreignKey:StallID" json:"stall,omitempty"`
}

func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}
