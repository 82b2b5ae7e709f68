package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// MessagePosted is the payload published via Redis Pub/Sub when a message
// lands in a thread. Fanout is best-effort: publish failures are logged by
// the caller, never surfaced to the posting user.
type MessagePosted struct {
	MessageID uuid.UUID `json:"message_id"`
	ThreadID  uuid.UUID `json:"thread_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func threadChannel(threadID uuid.UUID) string {
	return "threads:" + threadID.String()
}

// PubSub provides cross-instance thread-message broadcast via Redis Pub/Sub.
type PubSub struct {
	rdb *goredis.Client
}

// NewPubSub creates a new PubSub instance.
func NewPubSub(client *Client) *PubSub {
	return &PubSub{rdb: client.rdb}
}

// PublishMessage publishes a posted message to its thread channel.
func (ps *PubSub) PublishMessage(ctx context.Context, msg MessagePosted) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return ps.rdb.Publish(ctx, threadChannel(msg.ThreadID), data).Err()
}

// Subscription represents an active Pub/Sub subscription for a thread.
type Subscription struct {
	sub    *goredis.PubSub
	Ch     <-chan MessagePosted
	cancel context.CancelFunc
}

// Close unsubscribes and closes the subscription.
func (s *Subscription) Close() {
	s.cancel()
	_ = s.sub.Close()
}

// SubscribeThread subscribes to posted messages for a thread.
// Call subscription.Close() when done.
func (ps *PubSub) SubscribeThread(ctx context.Context, threadID uuid.UUID) *Subscription {
	channel := threadChannel(threadID)
	sub := ps.rdb.Subscribe(ctx, channel)

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan MessagePosted, 16)

	go func() {
		defer close(ch)
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				var posted MessagePosted
				if err := json.Unmarshal([]byte(msg.Payload), &posted); err != nil {
					slog.Warn("Failed to unmarshal pubsub message", "channel", channel, "error", err)
					continue
				}
				select {
				case ch <- posted:
				case <-subCtx.Done():
					return
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{sub: sub, Ch: ch, cancel: cancel}
}
