// Package notify contains outbound implementations of the Notifier port.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/example/upkeep/internal/ports/secondary"
)

// DefaultChannel is the pub/sub channel delivery workers subscribe to.
const DefaultChannel = "upkeep.notifications"

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// RedisNotifier publishes notification events to a Redis channel.
// Delivery workers downstream fan the events out to mail or push; the
// engine only publishes.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
}

// NewRedisNotifier creates a notifier publishing to the given channel.
// An empty channel falls back to DefaultChannel.
func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{rdb: rdb, channel: channel}
}

// Notify publishes one event. The payload is a flat JSON object:
// user_id and message plus every metadata pair.
func (n *RedisNotifier) Notify(ctx context.Context, userID, message string, metadata map[string]string) error {
	payload := map[string]string{
		"user_id": userID,
		"message": message,
	}
	for k, v := range metadata {
		payload[k] = v
	}

	event, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := n.rdb.Publish(ctx, n.channel, event).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

// Ensure RedisNotifier implements the interface
var _ secondary.Notifier = (*RedisNotifier)(nil)
