package chat

import (
	"context"
	"encoding/json"
	"time"

	"campusportal/internal/model"
	"campusportal/internal/pubsub"
	"campusportal/internal/realtime"

	"github.com/rs/zerolog"
)

const (
	EventMessageCreated = "chat.message.created"
	EventMessageDeleted = "chat.message.deleted"
)

// Event is the payload published for every chat write.
type Event struct {
	Type       string             `json:"type"`
	MessageID  string             `json:"message_id"`
	Message    *model.ChatMessage `json:"message,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// EventStore wraps a realtime.Store and publishes an Event after each
// successful Push or Remove. Publish failures are logged only.
type EventStore struct {
	realtime.Store
	publisher pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

func NewEventStore(store realtime.Store, publisher pubsub.Publisher, topic string, logger zerolog.Logger) *EventStore {
	return &EventStore{
		Store:     store,
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("service", "ChatEvents").Logger(),
	}
}

func (s *EventStore) Push(ctx context.Context, msg model.ChatMessage) (string, error) {
	id, err := s.Store.Push(ctx, msg)
	if err != nil {
		return "", err
	}
	msg.ID = id
	s.publish(ctx, Event{Type: EventMessageCreated, MessageID: id, Message: &msg})
	return id, nil
}

func (s *EventStore) Remove(ctx context.Context, id string) error {
	if err := s.Store.Remove(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, Event{Type: EventMessageDeleted, MessageID: id})
	return nil
}

func (s *EventStore) publish(ctx context.Context, ev Event) {
	ev.OccurredAt = time.Now().UTC()
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error().Err(err).Str("type", ev.Type).Msg("Failed to encode chat event")
		return
	}
	if _, err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		s.logger.Error().Err(err).Str("type", ev.Type).Str("message_id", ev.MessageID).Msg("Failed to publish chat event")
	}
}
