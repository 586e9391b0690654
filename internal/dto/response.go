package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/sharthi/stall-marketplace/internal/models"
	"github.com/sharthi/stall-marketplace/internal/service"
)

type BookingEventInfo struct {
	Title   string     `json:"title"`
	CityID  string     `json:"cityId"`
	StartAt *time.Time `json:"startAt"`
	EndAt   *time.Time `json:"endAt"`
}

type BookingStallInfo struct {
	Name  string `json:"name"`
	Tier  string `json:"tier"`
	Price int64  `json:"price"`
}

type BookingResponse struct {
	ID         uuid.UUID            `json:"id"`
	EventID    uuid.UUID            `json:"eventId"`
	StallID    uuid.UUID            `json:"stallId"`
	CreatorID  string               `json:"creatorId"`
	Amount     int64                `json:"amount"`
	PaymentRef string               `json:"paymentRef,omitempty"`
	Status     models.BookingStatus `json:"status"`
	Reviewed   bool                 `json:"reviewed"`
	Rating     *int                 `json:"rating,omitempty"`
	ReviewText *string              `json:"reviewText,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
	Event      BookingEventInfo     `json:"event"`
	Stall      BookingStallInfo     `json:"stall"`
}

type CreateBookingResponse struct {
	Message string          `json:"message"`
	Booking BookingResponse `json:"booking"`
}

type InvoiceResponse struct {
	BookingID  uuid.UUID `json:"bookingId"`
	InvoiceURL string    `json:"invoiceUrl"`
	Amount     int64     `json:"amount"`
	EventTitle string    `json:"eventTitle"`
	StallName  string    `json:"stallName"`
	Date       time.Time `json:"date"`
}

type StallResponse struct {
	ID       uuid.UUID `json:"id"`
	EventID  uuid.UUID `json:"eventId"`
	Name     string    `json:"name"`
	Tier     string    `json:"tier"`
	Price    int64     `json:"price"`
	QtyTotal int       `json:"qtyTotal"`
	QtyLeft  int       `json:"qtyLeft"`
	Specs    string    `json:"specs"`
}

type MonthAmountResponse struct {
	Month  string `json:"month"`
	Amount int64  `json:"amount"`
}

type DashboardResponse struct {
	Revenue           int64                 `json:"revenue"`
	StallsSold        int64                 `json:"stallsSold"`
	TotalStalls       int64                 `json:"totalStalls"`
	ActiveEvents      int64                 `json:"activeEvents"`
	RevenueTrend      []MonthAmountResponse `json:"revenueTrend"`
	BookingsThisMonth []int64               `json:"bookingsThisMonth"`
}

type OrganizerBookingResponse struct {
	ID      uuid.UUID `json:"id"`
	EventID uuid.UUID `json:"eventId"`
	StallID uuid.UUID `json:"stallId"`
	Amount  int64     `json:"amount"`
	Date    time.Time `json:"date"`
}

type OrganizerStatsResponse struct {
	TotalEvents   int64 `json:"totalEvents"`
	TotalBookings int64 `json:"totalBookings"`
	Revenue       int64 `json:"revenue"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ToBookingResponse flattens the booking with whatever event and stall data
// is loaded; missing relations leave their fields empty.
func ToBookingResponse(b *models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:         b.ID,
		EventID:    b.EventID,
		StallID:    b.StallID,
		CreatorID:  b.CreatorID,
		Amount:     b.Amount,
		PaymentRef: b.PaymentRef,
		Status:     b.Status,
		Reviewed:   b.Reviewed,
		Rating:     b.Rating,
		ReviewText: b.ReviewText,
		CreatedAt:  b.CreatedAt,
	}
	if b.Event != nil {
		resp.Event = BookingEventInfo{
			Title:   b.Event.Title,
			CityID:  b.Event.CityID,
			StartAt: b.Event.StartAt,
			EndAt:   b.Event.EndAt,
		}
	}
	if b.Stall != nil {
		resp.Stall = BookingStallInfo{
			Name:  b.Stall.Name,
			Tier:  b.Stall.Tier,
			Price: b.Stall.Price,
		}
	}
	return resp
}

func ToBookingResponses(bookings []models.Booking) []BookingResponse {
	resp := make([]BookingResponse, len(bookings))
	for i := range bookings {
		resp[i] = ToBookingResponse(&bookings[i])
	}
	return resp
}

func ToInvoiceResponse(inv *service.Invoice) InvoiceResponse {
	return InvoiceResponse{
		BookingID:  inv.BookingID,
		InvoiceURL: inv.InvoiceURL,
		Amount:     inv.Amount,
		EventTitle: inv.EventTitle,
		StallName:  inv.StallName,
		Date:       inv.Date,
	}
}

func ToStallResponse(s *models.Stall) StallResponse {
	return StallResponse{
		ID:       s.ID,
		EventID:  s.EventID,
		Name:     s.Name,
		Tier:     s.Tier,
		Price:    s.Price,
		QtyTotal: s.QtyTotal,
		QtyLeft:  s.QtyLeft,
		Specs:    s.Specs,
	}
}

func ToStallResponses(stalls []models.Stall) []StallResponse {
	resp := make([]StallResponse, len(stalls))
	for i := range stalls {
		resp[i] = ToStallResponse(&stalls[i])
	}
	return resp
}

func ToDashboardResponse(d *service.Dashboard) DashboardResponse {
	trend := make([]MonthAmountResponse, len(d.RevenueTrend))
	for i, m := range d.RevenueTrend {
		trend[i] = MonthAmountResponse{Month: m.Month, Amount: m.Amount}
	}
	return DashboardResponse{
		Revenue:           d.Revenue,
		StallsSold:        d.StallsSold,
		TotalStalls:       d.TotalStalls,
		ActiveEvents:      d.ActiveEvents,
		RevenueTrend:      trend,
		BookingsThisMonth: d.BookingsThisMonth,
	}
}

func ToOrganizerBookingResponses(bookings []models.Booking) []OrganizerBookingResponse {
	resp := make([]OrganizerBookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = OrganizerBookingResponse{
			ID:      b.ID,
			EventID: b.EventID,
			StallID: b.StallID,
			Amount:  b.Amount,
			Date:    b.CreatedAt,
		}
	}
	return resp
}
