package outbound

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EventType represents the type of event being broadcasted
type EventType string

const (
	EventTypeAuctionCreated EventType = "auction.created"
	EventTypeAuctionDeleted EventType = "auction.deleted"
	EventTypeAuctionEnded   EventType = "auction.ended"
	EventTypeBidPlaced      EventType = "bid.placed"
	EventTypeNotification   EventType = "notification.created"
)

// TopicAuctions carries every auction-list mutation; subscribed views
// refresh their listing on each event.
const TopicAuctions = "auctions"

// TopicNotifications returns the per-admin notification topic.
func TopicNotifications(adminID uuid.UUID) string {
	return fmt.Sprintf("notifications:%s", adminID)
}

// Event represents a broadcast event
type Event struct {
	Type      EventType              `json:"type"`
	Topic     string                 `json:"topic"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// Broadcaster defines the interface for broadcasting events
type Broadcaster interface {
	// Subscribe subscribes a client to events for a topic. When a client
	// subscribes to multiple topics, all events are delivered to the same
	// channel. Re-subscribing to the same topic is a no-op.
	Subscribe(ctx context.Context, topic string, clientID string, eventChan chan Event) error

	// Unsubscribe unsubscribes a client from a topic
	Unsubscribe(ctx context.Context, topic string, clientID string) error

	// UnsubscribeAll removes every subscription a client holds and closes
	// its event channel. Called when the client disconnects.
	UnsubscribeAll(ctx context.Context, clientID string) error

	// Publish publishes an event to all subscribers of a topic
	Publish(ctx context.Context, topic string, event Event) error

	// IsSubscribed checks if a client is subscribed to a topic
	IsSubscribed(ctx context.Context, topic string, clientID string) bool
}
