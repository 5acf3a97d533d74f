// Package events announces figure updates to downstream consumers over a
// Redis stream, replacing a synchronous in-process dispatcher.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"figures-hub/internal/domain"
)

// StreamKey is the Redis stream figure updates are published to.
const StreamKey = "figures:updated"

// RedisPublisher publishes figure-updated events to a Redis stream.
// Implements domain.EventPublisher.
type RedisPublisher struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisPublisher creates a publisher from a Redis URL.
func NewRedisPublisher(url string, logger *slog.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisPublisher{client: redis.NewClient(opts), logger: logger}, nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// PublishFigureUpdated appends one event to the stream.
func (p *RedisPublisher) PublishFigureUpdated(ctx context.Context, event domain.FigureUpdatedEvent) error {
	entities, err := json.Marshal(event.Entities)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		Values: map[string]interface{}{
			"event_id":   event.EventID,
			"status":     event.Status,
			"figure_id":  event.FigureID,
			"provider":   event.Provider,
			"country":    event.Country,
			"year":       event.Year,
			"entities":   string(entities),
			"created_at": event.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		},
	}).Err()
}

// NopPublisher drops events. Used when no Redis backend is configured.
type NopPublisher struct{}

// PublishFigureUpdated discards the event.
func (NopPublisher) PublishFigureUpdated(context.Context, domain.FigureUpdatedEvent) error {
	return nil
}
