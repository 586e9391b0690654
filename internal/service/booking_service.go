package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sharthi/stall-marketplace/internal/clock"
	"github.com/sharthi/stall-marketplace/internal/metrics"
	"github.com/sharthi/stall-marketplace/internal/models"
	"github.com/sharthi/stall-marketplace/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EventPublisher sends domain events to the message broker.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type TimeFilter int

const (
	FilterAll TimeFilter = iota
	FilterUpcoming
	FilterPast
)

type CreateBookingInput struct {
	CreatorID  string
	EventID    string
	StallID    string
	Amount     *int64
	PaymentRef string
}

type Invoice struct {
	BookingID  uuid.UUID
	InvoiceURL string
	Amount     int64
	EventTitle string
	StallName  string
	Date       time.Time
}

// BookingEvent is the broker payload for booking.* routing keys.
type BookingEvent struct {
	BookingID uuid.UUID `json:"bookingId"`
	CreatorID string    `json:"creatorId"`
	EventID   uuid.UUID `json:"eventId"`
	StallID   uuid.UUID `json:"stallId"`
	Amount    int64     `json:"amount"`
	Rating    *int      `json:"rating,omitempty"`
	At        time.Time `json:"at"`
}

type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error)
	ListBookings(ctx context.Context, creatorID string, filter TimeFilter) ([]models.Booking, error)
	SubmitReview(ctx context.Context, creatorID, bookingID string, rating int, text *string) error
	GenerateInvoice(ctx context.Context, creatorID, bookingID string) (*Invoice, error)
	CancelBooking(ctx context.Context, creatorID, bookingID string) (*models.Booking, error)
}

type bookingService struct {
	tx             repository.Transactor
	eventRepo      repository.EventRepository
	stallRepo      repository.StallRepository
	bookingRepo    repository.BookingRepository
	publisher      EventPublisher
	clock          clock.Clock
	log            logrus.FieldLogger
	invoiceBaseURL string
}

func NewBookingService(
	tx repository.Transactor,
	eventRepo repository.EventRepository,
	stallRepo repository.StallRepository,
	bookingRepo repository.BookingRepository,
	publisher EventPublisher,
	clk clock.Clock,
	log logrus.FieldLogger,
	invoiceBaseURL string,
) BookingService {
	return &bookingService{
		tx:             tx,
		eventRepo:      eventRepo,
		stallRepo:      stallRepo,
		bookingRepo:    bookingRepo,
		publisher:      publisher,
		clock:          clk,
		log:            log,
		invoiceBaseURL: strings.TrimRight(invoiceBaseURL, "/"),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	eventID, err := models.ParseID(in.EventID)
	if err != nil {
		return nil, ErrInvalidEventID
	}
	stallID, err := models.ParseID(in.StallID)
	if err != nil {
		return nil, ErrInvalidStallID
	}
	if in.Amount != nil && *in.Amount < 0 {
		return nil, ErrInvalidAmount
	}

	var result *models.Booking
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		// 1. Event and stall must exist and belong together
		event, err := s.eventRepo.FindByID(ctx, tx, eventID)
		if err != nil {
			return notFoundOr(err, ErrEventNotFound)
		}
		stall, err := s.stallRepo.FindByID(ctx, tx, stallID)
		if err != nil {
			return notFoundOr(err, ErrStallNotFound)
		}
		if stall.EventID != event.ID {
			return ErrStallEventMismatch
		}
		if stall.QtyLeft <= 0 {
			return ErrSoldOut
		}

		// 2. One active booking per creator and stall
		_, err = s.bookingRepo.FindActiveByCreatorAndStall(ctx, tx, in.CreatorID, stallID)
		if err == nil {
			return ErrAlreadyBooked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find active booking: %w", err)
		}

		// 3. Take one unit; a concurrent buyer may have taken the last one since the read
		ok, err := s.stallRepo.DecrementLeft(ctx, tx, stallID)
		if err != nil {
			return fmt.Errorf("decrement stall: %w", err)
		}
		if !ok {
			return ErrSoldOut
		}
		stall.QtyLeft--

		// 4. Record the booking
		amount := stall.Price
		if in.Amount != nil {
			amount = *in.Amount
		}
		booking := &models.Booking{
			ID:          models.NewID(),
			CreatorID:   in.CreatorID,
			OrganizerID: event.OrganizerID,
			EventID:     eventID,
			StallID:     stallID,
			Amount:      amount,
			PaymentRef:  strings.TrimSpace(in.PaymentRef),
			Status:      models.StatusPaid,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyBooked
			}
			return fmt.Errorf("create booking: %w", err)
		}
		booking.Event = event
		booking.Stall = stall
		result = booking
		return nil
	})
	if err != nil {
		metrics.RecordBooking(bookingOutcome(err))
		return nil, err
	}

	metrics.RecordBooking("created")
	s.log.WithFields(logrus.Fields{
		"booking_id": result.ID,
		"stall_id":   result.StallID,
		"creator_id": result.CreatorID,
		"qty_left":   result.Stall.QtyLeft,
	}).Info("booking created")
	s.publish("booking.created", bookingEvent(result, s.clock.Now()))
	return result, nil
}

func (s *bookingService) ListBookings(ctx context.Context, creatorID string, filter TimeFilter) ([]models.Booking, error) {
	bookings, err := s.bookingRepo.ListActiveByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if filter == FilterAll {
		return bookings, nil
	}

	now := s.clock.Now()
	filtered := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		// Bookings without a resolvable start time only show up in the unfiltered list.
		if b.Event == nil || b.Event.StartAt == nil {
			continue
		}
		start := *b.Event.StartAt
		if filter == FilterUpcoming && start.After(now) {
			filtered = append(filtered, b)
		}
		if filter == FilterPast && start.Before(now) {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

func (s *bookingService) SubmitReview(ctx context.Context, creatorID, bookingID string, rating int, text *string) error {
	id, err := models.ParseID(bookingID)
	if err != nil {
		return ErrInvalidBookingID
	}

	var reviewed *models.Booking
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		booking, err := s.ownedBooking(ctx, tx, creatorID, id)
		if err != nil {
			return err
		}
		if rating < 1 || rating > 5 {
			return ErrInvalidRating
		}
		if !booking.IsActive() {
			return ErrBookingCancelled
		}
		if booking.Reviewed {
			return ErrAlreadyReviewed
		}

		if text != nil {
			trimmed := strings.TrimSpace(*text)
			text = &trimmed
		}
		ok, err := s.bookingRepo.MarkReviewed(ctx, tx, id, rating, text)
		if err != nil {
			return fmt.Errorf("mark reviewed: %w", err)
		}
		if !ok {
			// lost a race with a concurrent review or cancel
			return ErrAlreadyReviewed
		}
		booking.Reviewed = true
		booking.Rating = &rating
		booking.ReviewText = text
		reviewed = booking
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": reviewed.ID,
		"creator_id": creatorID,
		"rating":     rating,
	}).Info("booking reviewed")
	s.publish("booking.reviewed", bookingEvent(reviewed, s.clock.Now()))
	return nil
}

func (s *bookingService) GenerateInvoice(ctx context.Context, creatorID, bookingID string) (*Invoice, error) {
	id, err := models.ParseID(bookingID)
	if err != nil {
		return nil, ErrInvalidBookingID
	}
	booking, err := s.ownedBooking(ctx, nil, creatorID, id)
	if err != nil {
		return nil, err
	}

	invoice := &Invoice{
		BookingID:  booking.ID,
		InvoiceURL: fmt.Sprintf("%s/invoices/%s.pdf", s.invoiceBaseURL, booking.ID),
		Amount:     booking.Amount,
		Date:       booking.CreatedAt,
	}
	if event, err := s.eventRepo.FindByID(ctx, nil, booking.EventID); err == nil {
		invoice.EventTitle = event.Title
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find event: %w", err)
	}
	if stall, err := s.stallRepo.FindByID(ctx, nil, booking.StallID); err == nil {
		invoice.StallName = stall.Name
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find stall: %w", err)
	}
	return invoice, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, creatorID, bookingID string) (*models.Booking, error) {
	id, err := models.ParseID(bookingID)
	if err != nil {
		return nil, ErrInvalidBookingID
	}

	var result *models.Booking
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		booking, err := s.ownedBooking(ctx, tx, creatorID, id)
		if err != nil {
			return err
		}
		if !booking.IsActive() {
			return ErrBookingCancelled
		}

		ok, err := s.bookingRepo.Cancel(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		if !ok {
			return ErrBookingCancelled
		}

		// Give the unit back to the stall
		restored, err := s.stallRepo.IncrementLeft(ctx, tx, booking.StallID)
		if err != nil {
			return fmt.Errorf("increment stall: %w", err)
		}
		if !restored {
			return errInventoryMismatch
		}

		booking.Status = models.StatusCancelled
		result = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, errInventoryMismatch) {
			s.log.WithFields(logrus.Fields{
				"booking_id": id,
				"creator_id": creatorID,
			}).Error("cancel rolled back: stall capacity out of sync with bookings")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": result.ID,
		"stall_id":   result.StallID,
		"creator_id": creatorID,
	}).Info("booking cancelled")
	s.publish("booking.cancelled", bookingEvent(result, s.clock.Now()))
	return result, nil
}

// ownedBooking loads the booking and checks it belongs to creatorID before
// any other state of the booking is looked at.
func (s *bookingService) ownedBooking(ctx context.Context, tx *gorm.DB, creatorID string, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrBookingNotFound)
	}
	if booking.CreatorID != creatorID {
		return nil, ErrNotBookingOwner
	}
	return booking, nil
}

func (s *bookingService) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		metrics.RecordPublishFailure()
		s.log.WithError(err).WithField("routing_key", routingKey).Warn("publish failed")
	}
}

func bookingEvent(b *models.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		BookingID: b.ID,
		CreatorID: b.CreatorID,
		EventID:   b.EventID,
		StallID:   b.StallID,
		Amount:    b.Amount,
		Rating:    b.Rating,
		At:        at,
	}
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSoldOut):
		return "sold_out"
	case errors.Is(err, ErrAlreadyBooked):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid"
	default:
		return "error"
	}
}

// notFoundOr maps gorm's missing-row error to notFound and wraps anything else.
func notFoundOr(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("%s lookup: %w", strings.TrimSuffix(notFound.Error(), " not found"), err)
}
