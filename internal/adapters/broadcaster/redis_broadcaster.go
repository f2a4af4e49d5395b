package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nft-auction-ledger/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroadcaster implements the broadcaster interface using Redis
// pub/sub, one channel per token id.
type RedisBroadcaster struct {
	client          *redis.Client
	subscribers     map[string]chan outbound.Event // clientID -> local channel
	pubsubs         map[string]*redis.PubSub       // clientID -> pubsub instance
	clientsToTokens map[string]map[uint64]bool     // clientID -> tokenID -> subscribed
	mu              sync.RWMutex
	ctx             context.Context
	cancel          context.CancelFunc
	logger          zerolog.Logger
}

type RedisBroadcasterParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

// NewBroadcaster creates a new Redis-backed broadcaster
func NewBroadcaster(params RedisBroadcasterParams) *RedisBroadcaster {
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisBroadcaster{
		client:          params.RedisClient,
		subscribers:     make(map[string]chan outbound.Event),
		pubsubs:         make(map[string]*redis.PubSub),
		clientsToTokens: make(map[string]map[uint64]bool),
		ctx:             ctx,
		cancel:          cancel,
		logger:          params.Logger.With().Str("component", "redis_broadcaster").Logger(),
	}
}

func channelName(tokenID uint64) string {
	return fmt.Sprintf("auction:%d", tokenID)
}

// Subscribe subscribes a client to events for a specific token
func (r *RedisBroadcaster) Subscribe(ctx context.Context, tokenID uint64, clientID string, eventChan chan outbound.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clientsToTokens[clientID] != nil && r.clientsToTokens[clientID][tokenID] {
		r.logger.Info().
			Str("client_id", clientID).
			Uint64("token_id", tokenID).
			Msg("Client already subscribed to auction")
		return nil
	}

	// Store the event channel if this is the first subscription
	if r.subscribers[clientID] == nil {
		r.subscribers[clientID] = eventChan
	}

	if r.clientsToTokens[clientID] == nil {
		r.clientsToTokens[clientID] = make(map[uint64]bool)
	}
	r.clientsToTokens[clientID][tokenID] = true

	// Get or create pubsub connection for this client
	pubsub, exists := r.pubsubs[clientID]
	if !exists {
		pubsub = r.client.Subscribe(ctx)
		r.pubsubs[clientID] = pubsub

		// Forward Redis messages to the client's local channel
		go r.listenForRedisMessages(pubsub, clientID, eventChan)
	}

	if err := pubsub.Subscribe(ctx, channelName(tokenID)); err != nil {
		r.logger.Error().Err(err).Str("client_id", clientID).Uint64("token_id", tokenID).Msg("Failed to subscribe to Redis channel")
		return err
	}

	r.logger.Info().
		Str("client_id", clientID).
		Uint64("token_id", tokenID).
		Msg("Client subscribed to auction via Redis")
	return nil
}

// Unsubscribe unsubscribes a client from events for a specific token
func (r *RedisBroadcaster) Unsubscribe(ctx context.Context, tokenID uint64, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clientTokens, exists := r.clientsToTokens[clientID]
	if exists {
		delete(clientTokens, tokenID)

		// If no more subscriptions, clean up the client entry
		if len(clientTokens) == 0 {
			delete(r.clientsToTokens, clientID)

			if eventChan, ok := r.subscribers[clientID]; ok {
				close(eventChan)
				delete(r.subscribers, clientID)
			}

			if pubsub, ok := r.pubsubs[clientID]; ok {
				if err := pubsub.Close(); err != nil {
					r.logger.Error().Err(err).Str("client_id", clientID).Msg("Error closing Redis pubsub for client")
				}
				delete(r.pubsubs, clientID)
			}
		} else {
			if pubsub, ok := r.pubsubs[clientID]; ok {
				if err := pubsub.Unsubscribe(ctx, channelName(tokenID)); err != nil {
					r.logger.Error().Err(err).Str("client_id", clientID).Uint64("token_id", tokenID).Msg("Error unsubscribing from Redis channel")
				}
			}
		}
	}

	r.logger.Info().
		Str("client_id", clientID).
		Uint64("token_id", tokenID).
		Msg("Client unsubscribed from auction")
	return nil
}

// Publish publishes an event to all subscribers of a token via Redis
func (r *RedisBroadcaster) Publish(ctx context.Context, tokenID uint64, event outbound.Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	result := r.client.Publish(ctx, channelName(tokenID), eventJSON)
	if err := result.Err(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to publish to Redis")
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}

	r.logger.Info().
		Str("event_type", string(event.Type)).
		Uint64("token_id", tokenID).
		Int64("subscriber_count", result.Val()).
		Msg("Published event to auction")

	return nil
}

// IsSubscribed checks if a client is subscribed to a token's events
func (r *RedisBroadcaster) IsSubscribed(ctx context.Context, tokenID uint64, clientID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clientTokens, exists := r.clientsToTokens[clientID]
	if !exists {
		return false
	}

	return clientTokens[tokenID]
}

// listenForRedisMessages listens for Redis messages and forwards them to the local channel
func (r *RedisBroadcaster) listenForRedisMessages(pubsub *redis.PubSub, clientID string, localChan chan outbound.Event) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error().Interface("panic", err).Str("client_id", clientID).Msg("Redis message listener panic for client")
		}
	}()

	ch := pubsub.Channel()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				r.logger.Info().Str("client_id", clientID).Msg("Redis channel closed for client")
				return
			}

			var event outbound.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Error().Err(err).Str("client_id", clientID).Msg("Failed to unmarshal Redis message for client")
				continue
			}

			select {
			case localChan <- event:
			default:
				r.logger.Warn().Str("client_id", clientID).Msg("Local channel full for client, dropping event")
			}

		case <-r.ctx.Done():
			r.logger.Info().Str("client_id", clientID).Msg("Redis broadcaster context cancelled for client")
			return
		}
	}
}

// Close shuts down every subscription and the underlying client.
func (r *RedisBroadcaster) Close() error {
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	for clientID, eventChan := range r.subscribers {
		close(eventChan)
		delete(r.subscribers, clientID)
	}

	for clientID, pubsub := range r.pubsubs {
		if err := pubsub.Close(); err != nil {
			r.logger.Error().Err(err).Str("client_id", clientID).Msg("Error closing Redis pubsub for client")
		}
		delete(r.pubsubs, clientID)
	}

	return r.client.Close()
}
