package outbound

import "context"

// EventType represents the type of event being broadcasted
type EventType string

const (
	EventTypeAuctionCreated   EventType = "auction.created"
	EventTypeBidPlaced        EventType = "bid.placed"
	EventTypeAuctionCancelled EventType = "auction.cancelled"
	EventTypeAuctionFinalized EventType = "auction.finalized"
	EventTypeError            EventType = "error"
)

// Event represents a broadcast event. Each mutating ledger operation
// emits exactly one terminal event.
type Event struct {
	Type      EventType              `json:"type"`
	TokenID   uint64                 `json:"token_id"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// Broadcaster defines the interface for broadcasting auction events
type Broadcaster interface {
	// Subscribe subscribes a client to events for a specific token.
	// When a client subscribes to multiple tokens, all events are
	// delivered to the same channel.
	Subscribe(ctx context.Context, tokenID uint64, clientID string, eventChan chan Event) error

	// Unsubscribe unsubscribes a client from events for a specific token
	Unsubscribe(ctx context.Context, tokenID uint64, clientID string) error

	// Publish publishes an event to all subscribers of a token
	Publish(ctx context.Context, tokenID uint64, event Event) error

	// IsSubscribed checks if a client is subscribed to a token's events
	IsSubscribed(ctx context.Context, tokenID uint64, clientID string) bool
}
