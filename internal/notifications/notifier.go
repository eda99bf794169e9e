// Package notifications publishes thread lifecycle events to Redis.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ThreadEventsChannel is the pub/sub channel thread events are published on.
const ThreadEventsChannel = "threads:events"

// Thread event types.
const (
	EventThreadCreated = "thread.created"
	EventThreadUpdated = "thread.updated"
	EventThreadDeleted = "thread.deleted"
	EventThreadReplied = "thread.replied"
)

// ThreadEvent is the payload published for every thread save.
type ThreadEvent struct {
	Type       string    `json:"type"`
	ThreadID   uint      `json:"thread_id"`
	UserID     uint      `json:"user_id,omitempty"`
	ActorID    uint      `json:"actor_id"`
	Published  bool      `json:"published"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishThreadEvent sends event on ThreadEventsChannel.
func (n *Notifier) PublishThreadEvent(ctx context.Context, event ThreadEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, ThreadEventsChannel, string(payload)).Err()
}
