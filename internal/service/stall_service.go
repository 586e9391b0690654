package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sharthi/stall-marketplace/internal/clock"
	"github.com/sharthi/stall-marketplace/internal/metrics"
	"github.com/sharthi/stall-marketplace/internal/models"
	"github.com/sharthi/stall-marketplace/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type StallInput struct {
	Name     string
	Tier     string
	Price    int64
	QtyTotal int
	Specs    string
}

// StallPatch carries the fields of an edit; nil means unchanged.
type StallPatch struct {
	Name     *string
	Tier     *string
	Price    *int64
	QtyTotal *int
	Specs    *string
}

// StallEvent is the broker payload for stall.* routing keys.
type StallEvent struct {
	StallID  uuid.UUID `json:"stallId"`
	EventID  uuid.UUID `json:"eventId"`
	QtyTotal int       `json:"qtyTotal"`
	QtyLeft  int       `json:"qtyLeft"`
}

type StallService interface {
	ListStalls(ctx context.Context, eventID string) ([]models.Stall, error)
	CreateStall(ctx context.Context, callerID, eventID string, in StallInput) (*models.Stall, error)
	EditStall(ctx context.Context, callerID, stallID string, patch StallPatch) (*models.Stall, error)
	DeleteStall(ctx context.Context, callerID, stallID string) error
}

type stallService struct {
	tx          repository.Transactor
	eventRepo   repository.EventRepository
	stallRepo   repository.StallRepository
	bookingRepo repository.BookingRepository
	publisher   EventPublisher
	clock       clock.Clock
	log         logrus.FieldLogger
}

func NewStallService(
	tx repository.Transactor,
	eventRepo repository.EventRepository,
	stallRepo repository.StallRepository,
	bookingRepo repository.BookingRepository,
	publisher EventPublisher,
	clk clock.Clock,
	log logrus.FieldLogger,
) StallService {
	return &stallService{
		tx:          tx,
		eventRepo:   eventRepo,
		stallRepo:   stallRepo,
		bookingRepo: bookingRepo,
		publisher:   publisher,
		clock:       clk,
		log:         log,
	}
}

func (s *stallService) ListStalls(ctx context.Context, eventID string) ([]models.Stall, error) {
	id, err := models.ParseID(eventID)
	if err != nil {
		return nil, ErrInvalidEventID
	}
	if _, err := s.eventRepo.FindByID(ctx, nil, id); err != nil {
		return nil, notFoundOr(err, ErrEventNotFound)
	}
	stalls, err := s.stallRepo.FindByEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list stalls: %w", err)
	}
	return stalls, nil
}

func (s *stallService) CreateStall(ctx context.Context, callerID, eventID string, in StallInput) (*models.Stall, error) {
	id, err := models.ParseID(eventID)
	if err != nil {
		return nil, ErrInvalidEventID
	}

	event, err := s.eventRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, notFoundOr(err, ErrEventNotFound)
	}
	if event.OrganizerID != callerID {
		return nil, ErrNotEventOrganizer
	}

	name := strings.TrimSpace(in.Name)
	tier := models.NormalizeTier(in.Tier)
	if name == "" || tier == "" || in.Price < 0 || in.QtyTotal < 0 {
		return nil, ErrInvalidStallFields
	}

	now := s.clock.Now()
	stall := &models.Stall{
		ID:          models.NewID(),
		EventID:     event.ID,
		OrganizerID: event.OrganizerID,
		Name:        name,
		Tier:        tier,
		Price:       in.Price,
		QtyTotal:    in.QtyTotal,
		QtyLeft:     in.QtyTotal,
		Specs:       strings.TrimSpace(in.Specs),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.stallRepo.Create(ctx, nil, stall); err != nil {
		return nil, fmt.Errorf("create stall: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"stall_id": stall.ID,
		"event_id": stall.EventID,
		"qty":      stall.QtyTotal,
	}).Info("stall created")
	s.publish("stall.created", stall)
	return stall, nil
}

func (s *stallService) EditStall(ctx context.Context, callerID, stallID string, patch StallPatch) (*models.Stall, error) {
	id, err := models.ParseID(stallID)
	if err != nil {
		return nil, ErrInvalidStallID
	}

	var result *models.Stall
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		// Lock the row so bookings cannot move qty_left while capacity is recomputed
		stall, err := s.stallRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return notFoundOr(err, ErrStallNotFound)
		}
		if stall.OrganizerID != callerID {
			return ErrNotEventOrganizer
		}

		if patch.Name != nil {
			stall.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Tier != nil {
			stall.Tier = models.NormalizeTier(*patch.Tier)
		}
		if patch.Price != nil {
			stall.Price = *patch.Price
		}
		if patch.Specs != nil {
			stall.Specs = strings.TrimSpace(*patch.Specs)
		}
		if stall.Name == "" || stall.Tier == "" || stall.Price < 0 {
			return ErrInvalidStallFields
		}

		if patch.QtyTotal != nil {
			newTotal := *patch.QtyTotal
			if newTotal < 0 {
				return ErrInvalidStallFields
			}
			sold := stall.Sold()
			if newTotal < sold {
				return ErrCapacityBelowSold
			}
			stall.QtyTotal = newTotal
			stall.QtyLeft = newTotal - sold
		}

		if err := s.stallRepo.Update(ctx, tx, stall); err != nil {
			return fmt.Errorf("update stall: %w", err)
		}
		result = stall
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"stall_id":  result.ID,
		"qty_total": result.QtyTotal,
		"qty_left":  result.QtyLeft,
	}).Info("stall updated")
	s.publish("stall.updated", result)
	return result, nil
}

func (s *stallService) DeleteStall(ctx context.Context, callerID, stallID string) error {
	id, err := models.ParseID(stallID)
	if err != nil {
		return ErrInvalidStallID
	}

	var deleted *models.Stall
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		stall, err := s.stallRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return notFoundOr(err, ErrStallNotFound)
		}
		if stall.OrganizerID != callerID {
			return ErrNotEventOrganizer
		}
		if stall.Sold() > 0 {
			return ErrStallHasSales
		}

		count, err := s.bookingRepo.CountByStall(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		if count > 0 {
			return ErrStallHasBookings
		}

		ok, err := s.stallRepo.DeleteUnsold(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("delete stall: %w", err)
		}
		if !ok {
			return ErrStallHasSales
		}
		deleted = stall
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("stall_id", deleted.ID).Info("stall deleted")
	s.publish("stall.deleted", deleted)
	return nil
}

func (s *stallService) publish(routingKey string, stall *models.Stall) {
	if s.publisher == nil {
		return
	}
	payload := StallEvent{
		StallID:  stall.ID,
		EventID:  stall.EventID,
		QtyTotal: stall.QtyTotal,
		QtyLeft:  stall.QtyLeft,
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		metrics.RecordPublishFailure()
		s.log.WithError(err).WithField("routing_key", routingKey).Warn("publish failed")
	}
}
