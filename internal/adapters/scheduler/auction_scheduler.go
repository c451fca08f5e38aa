package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"subastas-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const expirationSet = "auction:expirations"

// ExpiryHandler is invoked when a scheduled auction reaches its end time
type ExpiryHandler interface {
	HandleExpiry(ctx context.Context, auctionID uuid.UUID) error
}

// AuctionScheduler tracks auction end times in a Redis sorted set and fires
// the expiry handler once an auction's end time passes. Auctions stop
// accepting bids at their end time regardless; the scheduler exists so
// subscribed clients hear about the transition without polling.
type AuctionScheduler struct {
	redis       *redis.Client
	expiry      ExpiryHandler
	broadcaster outbound.Broadcaster
	logger      zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

type AuctionSchedulerParams struct {
	RedisClient   *redis.Client
	ExpiryHandler ExpiryHandler
	Broadcaster   outbound.Broadcaster
	Logger        zerolog.Logger
}

func NewAuctionScheduler(params AuctionSchedulerParams) *AuctionScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &AuctionScheduler{
		redis:       params.RedisClient,
		expiry:      params.ExpiryHandler,
		broadcaster: params.Broadcaster,
		logger:      params.Logger.With().Str("component", "auction_scheduler").Logger(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ScheduleAuction adds an auction to the expiration schedule
func (s *AuctionScheduler) ScheduleAuction(auctionID uuid.UUID, endTime time.Time) error {
	score := float64(endTime.Unix())

	err := s.redis.ZAdd(s.ctx, expirationSet, redis.Z{
		Score:  score,
		Member: auctionID.String(),
	}).Err()

	if err != nil {
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to schedule auction")
		return fmt.Errorf("failed to schedule auction: %w", err)
	}

	s.logger.Info().
		Str("auction_id", auctionID.String()).
		Time("end_time", endTime).
		Msg("Auction scheduled for expiration")

	return nil
}

// UnscheduleAuction removes an auction from the expiration schedule,
// used when an auction is deleted before it ends
func (s *AuctionScheduler) UnscheduleAuction(auctionID uuid.UUID) error {
	if err := s.redis.ZRem(s.ctx, expirationSet, auctionID.String()).Err(); err != nil {
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to unschedule auction")
		return fmt.Errorf("failed to unschedule auction: %w", err)
	}
	return nil
}

// Start begins the scheduler loop
func (s *AuctionScheduler) Start() {
	s.logger.Info().Msg("Starting auction scheduler")

	s.wg.Add(1)
	go s.schedulerLoop()
}

// Stop gracefully stops the scheduler
func (s *AuctionScheduler) Stop() {
	s.logger.Info().Msg("Stopping auction scheduler")
	s.cancel()
	s.wg.Wait()
}

// schedulerLoop runs the main scheduling loop
func (s *AuctionScheduler) schedulerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkExpiredAuctions()
		case <-s.ctx.Done():
			s.logger.Info().Msg("Scheduler loop stopped")
			return
		}
	}
}

// checkExpiredAuctions finds and processes expired auctions
func (s *AuctionScheduler) checkExpiredAuctions() {
	now := time.Now().Unix()

	expiredAuctions, err := s.redis.ZRangeByScore(s.ctx, expirationSet, &redis.ZRangeBy{
		Min:   "0",
		Max:   strconv.FormatInt(now, 10),
		Count: 10, // Process max 10 at a time
	}).Result()

	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get expired auctions")
		return
	}

	if len(expiredAuctions) > 0 {
		s.logger.Debug().Int("count", len(expiredAuctions)).Msg("Found expired auctions")
	}

	for _, auctionIDStr := range expiredAuctions {
		auctionID, err := uuid.Parse(auctionIDStr)
		if err != nil {
			s.logger.Error().Err(err).Str("auction_id", auctionIDStr).Msg("Invalid auction ID")
			continue
		}

		go s.endAuction(auctionID)
	}
}

// endAuction processes the end of an auction
func (s *AuctionScheduler) endAuction(auctionID uuid.UUID) {
	// Claim the auction by removing it from the schedule first; a slow
	// handler can otherwise be observed by consecutive ticks and fire twice
	removed, err := s.redis.ZRem(s.ctx, expirationSet, auctionID.String()).Result()
	if err != nil {
		// Still scheduled, the next tick retries
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to claim expired auction")
		return
	}
	if removed == 0 {
		// Another tick already claimed it
		return
	}

	s.logger.Info().Str("auction_id", auctionID.String()).Msg("Processing auction end")

	// The auction stops accepting bids at its end time regardless of the
	// handler outcome, so a settlement failure must not suppress the
	// broadcast
	if err := s.expiry.HandleExpiry(s.ctx, auctionID); err != nil {
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to settle ended auction")
	}

	event := outbound.Event{
		Type: outbound.EventTypeAuctionEnded,
		Data: map[string]interface{}{
			"auction_id": auctionID.String(),
		},
		Timestamp: time.Now().Unix(),
	}

	// Listing views refresh on the shared auctions topic
	if err := s.broadcaster.Publish(s.ctx, outbound.TopicAuctions, event); err != nil {
		s.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to broadcast auction end event")
	}

	s.logger.Info().Str("auction_id", auctionID.String()).Msg("Auction ended")
}
