package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisTransport subscribes to Laravel redis broadcaster channels.
// Channel names are prefixed the way the backend's database prefix is.
type RedisTransport struct {
	client *redis.Client
	prefix string
}

func NewRedisTransport(client *redis.Client, prefix string) *RedisTransport {
	return &RedisTransport{client: client, prefix: prefix}
}

func (t *RedisTransport) Listen(ctx context.Context, channel string, deliver func([]byte)) error {
	if t.client == nil {
		return errors.New("redis client is nil")
	}
	pubsub := t.client.Subscribe(ctx, t.prefix+channel)
	defer pubsub.Close()

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", t.prefix+channel, err)
	}

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("redis pubsub channel closed")
			}
			deliver([]byte(msg.Payload))
		}
	}
}

// Publish broadcasts an event in the same framing the backend uses.
func (t *RedisTransport) Publish(ctx context.Context, channel, event string, data any) error {
	body, err := EncodeFrame(event, data)
	if err != nil {
		return err
	}
	return t.client.Publish(ctx, t.prefix+channel, body).Err()
}
