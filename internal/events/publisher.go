// Package events announces committed bids to other processes.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	model "auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/go-redis/redis/v8"
)

// Publisher fans out bid events. Failures never undo an accepted bid.
type Publisher interface {
	Publish(ctx context.Context, event model.BidEvent) error
}

// LogPublisher writes events to the application log
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event model.BidEvent) error {
	utils.Debug("bid event", map[string]any{
		"type":     string(event.Type),
		"item_id":  event.ItemID,
		"user_id":  event.UserID,
		"amount":   event.Amount,
		"end_date": event.EndDate,
	})
	return nil
}

// RedisPublisher publishes JSON encoded events on a Redis pub/sub channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event model.BidEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event for item %s: %w", event.Type, event.ItemID, err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s event for item %s: %w", event.Type, event.ItemID, err)
	}
	return nil
}
