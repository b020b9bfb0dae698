package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// UserChannel is the Redis channel carrying pushes for one user's inbox.
func UserChannel(userID uuid.UUID) string {
	return "pulse:user:" + userID.String() + ":inbox"
}

// envelope wraps a push so any instance holding the user's socket can replay it.
type envelope struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	SentAt time.Time       `json:"sent_at"`
}

// RedisPubSub relays inbox pushes between server instances.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates the relay over client.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// PublishUserEvent sends a push to every instance subscribed to the user's inbox.
func (r *RedisPubSub) PublishUserEvent(userID uuid.UUID, event string, payload []byte) error {
	body, err := json.Marshal(envelope{Event: event, Data: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode push: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, UserChannel(userID), body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", UserChannel(userID), err)
	}
	return nil
}

// SubscribeUser listens on the user's inbox while this instance holds one of their sockets.
// The returned func stops listening.
func (r *RedisPubSub) SubscribeUser(userID uuid.UUID, handler func(event string, payload []byte)) (func(), error) {
	ctx, stop := context.WithCancel(context.Background())
	sub := r.client.Subscribe(ctx, UserChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		stop()
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", UserChannel(userID), err)
	}
	go r.relay(ctx, sub, handler)
	return stop, nil
}

func (r *RedisPubSub) relay(ctx context.Context, sub *redis.PubSub, handler func(event string, payload []byte)) {
	defer sub.Close()
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.Event == "" {
				r.logger.Warn("dropping malformed inbox push", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			handler(env.Event, env.Data)
		}
	}
}
