package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeCommandCompleted    EventType = "command.completed"
	EventTypeCommandChunk        EventType = "command.chunk"
	EventTypeSessionStateUpdated EventType = "session.state_updated"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel is the pub/sub channel carrying a session's events.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes session events to Redis Pub/Sub for SSE distribution.
// A nil *Broadcaster is valid and drops everything.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishCommandChunk publishes one chunk of a command's output.
func (b *Broadcaster) PublishCommandChunk(ctx context.Context, sessionID uuid.UUID, requestID string, index int, content string) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeCommandChunk,
		RequestID: requestID,
		Data: map[string]any{
			"index":   index,
			"content": content,
		},
	})
}

// PublishCommandCompleted publishes the end of a command.
func (b *Broadcaster) PublishCommandCompleted(ctx context.Context, sessionID uuid.UUID, requestID, command, response string, quit bool) error {
	return b.publish(ctx, sessionID, Event{
		Type:      EventTypeCommandCompleted,
		RequestID: requestID,
		Data: map[string]any{
			"command":  command,
			"response": response,
			"quit":     quit,
		},
	})
}

// PublishSessionStateUpdated publishes a short snapshot of the session.
func (b *Broadcaster) PublishSessionStateUpdated(ctx context.Context, sessionID uuid.UUID, location, gameTime string, inCombat bool) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionStateUpdated,
		Data: map[string]any{
			"location":  location,
			"game_time": gameTime,
			"in_combat": inCombat,
		},
	})
}

// Subscribe opens a subscription to a session's channel. The caller must
// close the returned PubSub.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) (*redis.PubSub, error) {
	if b == nil || b.redisClient == nil {
		return nil, fmt.Errorf("event broadcasting is not configured")
	}
	pubsub := b.redisClient.Subscribe(ctx, Channel(sessionID))
	// wait for the subscription to be confirmed so no early events are lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return pubsub, nil
}

// Enabled reports whether events are actually published.
func (b *Broadcaster) Enabled() bool {
	return b != nil && b.redisClient != nil
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	if !b.Enabled() {
		return nil
	}
	event.SessionID = sessionID.String()
	channel := Channel(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)
	return nil
}
