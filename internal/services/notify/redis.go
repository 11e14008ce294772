package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/dinkup/internal/model"
)

// DefaultChannel is the Redis channel every event is published on
const DefaultChannel = "dinkup:events"

// RedisNotifier publishes events on Redis pub/sub so external delivery workers
// (email, SMS) can pick them up
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier creates a RedisNotifier publishing on channel
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

// SessionChannel returns the per-session channel for an event stream
func (n *RedisNotifier) SessionChannel(sessionID model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", n.channel, sessionID)
}

// Notify publishes the event on the global channel and, when it belongs to a
// session, on that session's channel
func (n *RedisNotifier) Notify(ctx context.Context, event model.Event) error {
	data, err := json.Marshal(NewMessage(event))
	if err != nil {
		return err
	}

	pipe := n.client.Pipeline()
	pipe.Publish(ctx, n.channel, data)
	if event.SessionID != "" {
		pipe.Publish(ctx, n.SessionChannel(event.SessionID), data)
	}
	_, err = pipe.Exec(ctx)
	return err
}
