package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ViewWindow is how long a user's view of an event suppresses further counting.
const ViewWindow = 24 * time.Hour

// RedisViews deduplicates views with one expiring key per (event, user).
type RedisViews struct {
	client *redis.Client
	window time.Duration
}

// NewRedisViews creates a Redis view tracker.
func NewRedisViews(client *redis.Client, window time.Duration) *RedisViews {
	return &RedisViews{client: client, window: window}
}

func viewKey(eventID, userID uuid.UUID) string {
	return fmt.Sprintf("event_view:%s:%s", eventID, userID)
}

// Record sets the view key if absent and reports whether it was set.
func (v *RedisViews) Record(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	ok, err := v.client.SetNX(ctx, viewKey(eventID, userID), time.Now().Unix(), v.window).Result()
	if err != nil {
		return false, fmt.Errorf("record view: %w", err)
	}
	return ok, nil
}
