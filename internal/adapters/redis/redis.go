package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subastas-service/internal/config"
	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewClient creates a new Redis client based on configuration
func NewClient(cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MaxRetries:   3,
	})

	return rdb
}

// PingRedis tests the Redis connection
func PingRedis(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return client.Ping(ctx).Err()
}

// SessionStore keeps live session token IDs in Redis keyed by JWT ID.
// A token whose key has expired or been deleted is no longer valid,
// which is what makes sign-out effective before the JWT itself expires.
type SessionStore struct {
	client *redis.Client
	logger zerolog.Logger
}

type SessionStoreParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

func NewSessionStore(params SessionStoreParams) *SessionStore {
	return &SessionStore{
		client: params.RedisClient,
		logger: params.Logger.With().Str("component", "session_store").Logger(),
	}
}

func sessionKey(tokenID string) string {
	return fmt.Sprintf("session:%s", tokenID)
}

// Put records a live session for the token ID with the given TTL
func (s *SessionStore) Put(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(tokenID), userID.String(), ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("token_id", tokenID).Msg("Failed to store session")
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get resolves a token ID to the user it belongs to. A missing key means
// the session was signed out or expired.
func (s *SessionStore) Get(ctx context.Context, tokenID string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, sessionKey(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, shared.ErrInvalidToken
	}
	if err != nil {
		s.logger.Error().Err(err).Str("token_id", tokenID).Msg("Failed to look up session")
		return uuid.Nil, fmt.Errorf("failed to look up session: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, shared.ErrInvalidToken
	}
	return userID, nil
}

// Delete removes a session, invalidating its token immediately
func (s *SessionStore) Delete(ctx context.Context, tokenID string) error {
	if err := s.client.Del(ctx, sessionKey(tokenID)).Err(); err != nil {
		s.logger.Error().Err(err).Str("token_id", tokenID).Msg("Failed to delete session")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
