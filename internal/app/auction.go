package app

import (
	"context"
	"strings"
	"time"

	"subastas-service/internal/adapters/scheduler"
	"subastas-service/internal/domain/auction"
	"subastas-service/internal/domain/shared"
	"subastas-service/internal/ports/inbound"
	"subastas-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuctionService implements the auction lifecycle use cases and
// scheduler.ExpiryHandler
type AuctionService struct {
	auctionRepo outbound.AuctionRepository
	bidRepo     outbound.BidRepository
	broadcaster outbound.Broadcaster
	scheduler   *scheduler.AuctionScheduler
	logger      zerolog.Logger
}

type AuctionServiceParams struct {
	AuctionRepo outbound.AuctionRepository
	BidRepo     outbound.BidRepository
	Broadcaster outbound.Broadcaster
	Scheduler   *scheduler.AuctionScheduler
	Logger      zerolog.Logger
}

// NewAuctionService creates a new auction service
func NewAuctionService(params AuctionServiceParams) *AuctionService {
	return &AuctionService{
		auctionRepo: params.AuctionRepo,
		bidRepo:     params.BidRepo,
		broadcaster: params.Broadcaster,
		scheduler:   params.Scheduler,
		logger:      params.Logger.With().Str("component", "auction_service").Logger(),
	}
}

// SetScheduler sets the auction scheduler. The scheduler depends on this
// service for expiry handling, so it is wired after construction.
func (service *AuctionService) SetScheduler(sched *scheduler.AuctionScheduler) {
	service.scheduler = sched
}

// CreateAuction creates a new auction directly (admin or collaborator only)
func (service *AuctionService) CreateAuction(ctx context.Context, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
	if req.Actor == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if !req.Actor.Role.CanCreateAuctions() {
		service.logger.Warn().
			Str("actor_id", req.Actor.ID.String()).
			Str("role", string(req.Actor.Role)).
			Msg("Actor is not allowed to create auctions")
		return nil, shared.ErrNotAuthorized
	}

	service.logger.Info().
		Str("actor_id", req.Actor.ID.String()).
		Str("title", req.Title).
		Str("starting_price", req.StartingPrice.String()).
		Int("duration_hours", req.DurationHours).
		Msg("Attempting to create auction")

	if strings.TrimSpace(req.Title) == "" {
		return nil, shared.ErrTitleRequired
	}
	if len(req.ImageURLs) == 0 {
		return nil, shared.ErrImageRequired
	}
	if !req.StartingPrice.IsPositive() {
		return nil, shared.ErrInvalidStartingPrice
	}
	if req.DurationHours <= 0 {
		return nil, shared.ErrInvalidDuration
	}

	now := time.Now()
	newAuction := &auction.Auction{
		ID:            uuid.New(),
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		ImageURLs:     req.ImageURLs,
		StartingPrice: req.StartingPrice,
		CurrentPrice:  req.StartingPrice,
		EndTime:       now.Add(time.Duration(req.DurationHours) * time.Hour),
		CreatedBy:     req.Actor.ID,
		CreatedAt:     now,
	}

	if err := service.auctionRepo.Create(ctx, newAuction); err != nil {
		service.logger.Error().Err(err).Str("auction_id", newAuction.ID.String()).Msg("Failed to save auction to database")
		return nil, err
	}

	service.logger.Info().
		Str("auction_id", newAuction.ID.String()).
		Time("end_time", newAuction.EndTime).
		Msg("Auction created")

	if service.scheduler != nil {
		if err := service.scheduler.ScheduleAuction(newAuction.ID, newAuction.EndTime); err != nil {
			service.logger.Error().Err(err).Str("auction_id", newAuction.ID.String()).Msg("Failed to schedule auction for expiration")
			// Don't fail the auction creation, just log the error
		}
	}

	service.publishListingChange(ctx, outbound.EventTypeAuctionCreated, newAuction.ID)

	return newAuction, nil
}

// GetAuction retrieves an auction by ID
func (service *AuctionService) GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	service.logger.Debug().Str("auction_id", auctionID.String()).Msg("Retrieving auction")

	found, err := service.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		service.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to retrieve auction")
		return nil, err
	}

	return found, nil
}

// ListActiveAuctions retrieves unexpired auctions, soonest-ending first
func (service *AuctionService) ListActiveAuctions(ctx context.Context) ([]*auction.Auction, error) {
	return service.auctionRepo.ListActive(ctx, time.Now())
}

// ListAllAuctions retrieves every auction for moderation (admin only)
func (service *AuctionService) ListAllAuctions(ctx context.Context, actor *shared.User) ([]*auction.Auction, error) {
	if actor == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if !actor.Role.CanModerate() {
		return nil, shared.ErrNotAuthorized
	}

	return service.auctionRepo.ListAll(ctx)
}

// DeleteAuction removes an auction and all its bids (admin only)
func (service *AuctionService) DeleteAuction(ctx context.Context, actor *shared.User, auctionID uuid.UUID) error {
	if actor == nil {
		return shared.ErrNotAuthenticated
	}
	if !actor.Role.CanModerate() {
		service.logger.Warn().
			Str("actor_id", actor.ID.String()).
			Str("role", string(actor.Role)).
			Msg("Actor is not allowed to delete auctions")
		return shared.ErrNotAuthorized
	}

	if err := service.auctionRepo.DeleteWithBids(ctx, auctionID); err != nil {
		service.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to delete auction")
		return err
	}

	if service.scheduler != nil {
		if err := service.scheduler.UnscheduleAuction(auctionID); err != nil {
			service.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to unschedule deleted auction")
		}
	}

	service.logger.Info().
		Str("auction_id", auctionID.String()).
		Str("actor_id", actor.ID.String()).
		Msg("Auction deleted")

	service.publishListingChange(ctx, outbound.EventTypeAuctionDeleted, auctionID)

	return nil
}

// HandleExpiry processes an auction whose end time has passed. Bids are
// already rejected past the end time, so there is no state transition to
// persist; the winner is simply the bid matching the final price.
func (service *AuctionService) HandleExpiry(ctx context.Context, auctionID uuid.UUID) error {
	ended, err := service.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		service.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to retrieve auction for expiry")
		return err
	}

	bids, err := service.bidRepo.GetByAuctionID(ctx, auctionID)
	if err != nil {
		service.logger.Error().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to load bids for ended auction")
		return err
	}

	logger := service.logger.Info().
		Str("auction_id", auctionID.String()).
		Str("final_price", ended.CurrentPrice.String())

	if len(bids) > 0 {
		winner := bids[0]
		logger = logger.
			Str("winner_id", winner.UserID.String()).
			Str("winner_name", winner.UserName)
	}

	logger.Msg("Auction reached its end time")
	return nil
}

// publishListingChange notifies listing subscribers that the set of
// auctions changed. Broadcast failures never fail the operation.
func (service *AuctionService) publishListingChange(ctx context.Context, eventType outbound.EventType, auctionID uuid.UUID) {
	event := outbound.Event{
		Type: eventType,
		Data: map[string]interface{}{
			"auction_id": auctionID.String(),
		},
	}

	if err := service.broadcaster.Publish(ctx, outbound.TopicAuctions, event); err != nil {
		service.logger.Error().Err(err).
			Str("event_type", string(eventType)).
			Str("auction_id", auctionID.String()).
			Msg("Failed to broadcast listing change")
	}
}
