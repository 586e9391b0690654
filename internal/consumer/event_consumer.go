package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sharthi/stall-marketplace/internal/models"
	"github.com/sirupsen/logrus"
)

const upsertTimeout = 5 * time.Second

// EventStore is the part of the event repository the consumer writes through.
type EventStore interface {
	Upsert(ctx context.Context, event *models.Event) error
}

// EventConsumer keeps the local events table in sync with event.* messages.
type EventConsumer struct {
	store EventStore
	log   logrus.FieldLogger
}

func NewEventConsumer(store EventStore, log logrus.FieldLogger) *EventConsumer {
	return &EventConsumer{store: store, log: log}
}

// Start listens for messages until msgs is closed. done is closed afterwards.
func (ec *EventConsumer) Start(msgs <-chan amqp.Delivery) (done <-chan struct{}) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for msg := range msgs {
			ec.handleMessage(msg)
		}
		ec.log.Info("event consumer channel closed")
	}()
	return finished
}

func (ec *EventConsumer) handleMessage(msg amqp.Delivery) {
	log := ec.log.WithField("routing_key", msg.RoutingKey)

	var event models.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.WithError(err).Warn("dropping malformed event message")
		_ = msg.Nack(false, false)
		return
	}
	if event.ID == uuid.Nil || event.OrganizerID == "" {
		log.WithError(errors.New("missing id or organizerId")).Warn("dropping malformed event message")
		_ = msg.Nack(false, false)
		return
	}
	if event.Status == "" {
		event.Status = "active"
	}
	event.UpdatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), upsertTimeout)
	defer cancel()
	if err := ec.store.Upsert(ctx, &event); err != nil {
		log.WithError(err).WithField("event_id", event.ID).Error("failed to upsert event")
		_ = msg.Nack(false, true)
		return
	}

	log.WithFields(logrus.Fields{
		"event_id": event.ID,
		"title":    event.Title,
	}).Info("synced event")
	_ = msg.Ack(false)
}
