package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"subastas-service/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroadcaster implements the broadcaster interface using Redis pub/sub
type RedisBroadcaster struct {
	client         *redis.Client
	subscribers    map[string]chan outbound.Event // clientID -> local channel
	pubsubs        map[string]*redis.PubSub       // clientID -> pubsub instance
	clientsToTopic map[string]map[string]bool     // clientID -> topic -> subscribed
	mu             sync.RWMutex
	ctx            context.Context
	cancel         context.CancelFunc
	logger         zerolog.Logger
}

type RedisBroadcasterParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

func NewBroadcaster(params RedisBroadcasterParams) *RedisBroadcaster {
	ctx, cancel := context.WithCancel(context.Background())

	broadcaster := &RedisBroadcaster{
		client:         params.RedisClient,
		subscribers:    make(map[string]chan outbound.Event),
		pubsubs:        make(map[string]*redis.PubSub),
		clientsToTopic: make(map[string]map[string]bool),
		ctx:            ctx,
		cancel:         cancel,
		logger:         params.Logger.With().Str("component", "redis_broadcaster").Logger(),
	}

	return broadcaster
}

func channelName(topic string) string {
	return fmt.Sprintf("events:%s", topic)
}

// Subscribe subscribes a client to events for a specific topic
func (r *RedisBroadcaster) Subscribe(ctx context.Context, topic string, clientID string, eventChan chan outbound.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check if client is already subscribed to this topic
	if r.clientsToTopic[clientID] != nil && r.clientsToTopic[clientID][topic] {
		r.logger.Info().
			Str("client_id", clientID).
			Str("topic", topic).
			Msg("Client already subscribed to topic")
		return nil
	}

	// Store the event channel if this is the first subscription
	if r.subscribers[clientID] == nil {
		r.subscribers[clientID] = eventChan
	}

	if r.clientsToTopic[clientID] == nil {
		r.clientsToTopic[clientID] = make(map[string]bool)
	}
	r.clientsToTopic[clientID][topic] = true

	// Get or create pubsub connection for this client
	var pubsub *redis.PubSub
	if existingPubsub, exists := r.pubsubs[clientID]; exists {
		// Client already has a pubsub connection, subscribe to additional channel
		pubsub = existingPubsub
	} else {
		// Create new pubsub connection for this client
		pubsub = r.client.Subscribe(ctx)
		r.pubsubs[clientID] = pubsub

		// Start goroutine to listen for Redis messages and forward to local channel
		go r.listenForRedisMessages(pubsub, clientID, eventChan)
	}

	if err := pubsub.Subscribe(ctx, channelName(topic)); err != nil {
		r.logger.Error().Err(err).Str("client_id", clientID).Str("topic", topic).Msg("Failed to subscribe to Redis channel")
		return err
	}

	r.logger.Info().
		Str("client_id", clientID).
		Str("topic", topic).
		Msg("Client subscribed to topic via Redis")
	return nil
}

// Unsubscribe unsubscribes a client from events for a specific topic
func (r *RedisBroadcaster) Unsubscribe(ctx context.Context, topic string, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Remove topic tracking
	if clientTopics, exists := r.clientsToTopic[clientID]; exists {
		delete(clientTopics, topic)

		// If no more topics, clean up the client entry
		if len(clientTopics) == 0 {
			r.dropClientLocked(clientID)
		} else {
			// Unsubscribe from the specific topic channel
			if pubsub, exists := r.pubsubs[clientID]; exists {
				if err := pubsub.Unsubscribe(ctx, channelName(topic)); err != nil {
					r.logger.Error().Err(err).Str("client_id", clientID).Str("topic", topic).Msg("Error unsubscribing from Redis channel")
				}
			}
		}
	}

	r.logger.Info().
		Str("client_id", clientID).
		Str("topic", topic).
		Msg("Client unsubscribed from topic")
	return nil
}

// UnsubscribeAll tears down every subscription a client holds. Called on
// disconnect so the pubsub connection and forwarding goroutine do not
// outlive the socket.
func (r *RedisBroadcaster) UnsubscribeAll(ctx context.Context, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clientsToTopic[clientID]; !exists {
		return nil
	}

	r.dropClientLocked(clientID)

	r.logger.Info().
		Str("client_id", clientID).
		Msg("Client unsubscribed from all topics")
	return nil
}

// dropClientLocked removes all per-client state: topic tracking, the local
// event channel, and the Redis pubsub connection. Closing the pubsub stops
// its forwarding goroutine. Caller must hold the write lock.
func (r *RedisBroadcaster) dropClientLocked(clientID string) {
	delete(r.clientsToTopic, clientID)

	if eventChan, exists := r.subscribers[clientID]; exists {
		close(eventChan)
		delete(r.subscribers, clientID)
	}

	if pubsub, exists := r.pubsubs[clientID]; exists {
		if err := pubsub.Close(); err != nil {
			r.logger.Error().Err(err).Str("client_id", clientID).Msg("Error closing Redis pubsub for client")
		}
		delete(r.pubsubs, clientID)
	}
}

// Publish publishes an event to all subscribers of a topic via Redis
func (r *RedisBroadcaster) Publish(ctx context.Context, topic string, event outbound.Event) error {
	r.logger.Info().Str("channel_name", channelName(topic)).Msg("Publishing event to Redis")

	event.Topic = topic
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Publish to Redis
	result := r.client.Publish(ctx, channelName(topic), eventJSON)
	if err := result.Err(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to publish to Redis")
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}

	subscriberCount := result.Val()
	r.logger.Info().
		Str("event_type", string(event.Type)).
		Str("topic", topic).
		Int64("subscriber_count", subscriberCount).
		Msg("Published event to topic")

	return nil
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

func (r *RedisBroadcaster) Close() error {
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	for clientID, eventChan := range r.subscribers {
		close(eventChan)
		delete(r.subscribers, clientID)
	}

	// Close all pubsub connections
	for clientID, pubsub := range r.pubsubs {
		if err := pubsub.Close(); err != nil {
			r.logger.Error().Err(err).Str("client_id", clientID).Msg("Error closing Redis pubsub for client")
		}
		delete(r.pubsubs, clientID)
	}

	return r.client.Close()
}

func (r *RedisBroadcaster) IsSubscribed(ctx context.Context, topic string, clientID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clientTopics, exists := r.clientsToTopic[clientID]
	if !exists {
		return false
	}

	return clientTopics[topic]
}
