package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/garagekit/parking-service/internal/events"
)

// Publisher forwards serialized events to a broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

// EventRelay logs parking events and forwards them to the message broker.
type EventRelay struct {
	dispatcher events.Dispatcher
	publisher  Publisher
	logger     *zap.Logger
}

// NewEventRelay creates the relay. A nil publisher only logs.
func NewEventRelay(dispatcher events.Dispatcher, publisher Publisher, logger *zap.Logger) *EventRelay {
	return &EventRelay{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (r *EventRelay) RegisterHandlers() {
	if r.dispatcher == nil {
		return
	}
	r.dispatcher.Subscribe(events.EventSessionStarted, r.relay)
	r.dispatcher.Subscribe(events.EventSessionEnded, r.relay)
}

func (r *EventRelay) relay(ctx context.Context, event events.Event) error {
	r.logger.Info("parking event",
		zap.String("event_type", string(event.Type)),
		zap.String("session_id", event.SessionID),
		zap.String("user_id", event.UserID))

	if r.publisher == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	if err := r.publisher.Publish(ctx, string(event.Type), event.ID, body); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}
