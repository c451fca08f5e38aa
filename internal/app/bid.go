package app

import (
	"context"
	"errors"
	"time"

	"subastas-service/internal/domain/bid"
	"subastas-service/internal/domain/shared"
	"subastas-service/internal/ports/inbound"
	"subastas-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BidService implements the bid use cases
type BidService struct {
	bidRepo     outbound.BidRepository
	auctionRepo outbound.AuctionRepository
	broadcaster outbound.Broadcaster
	logger      zerolog.Logger
}

type BidServiceParams struct {
	BidRepo     outbound.BidRepository
	AuctionRepo outbound.AuctionRepository
	Broadcaster outbound.Broadcaster
	Logger      zerolog.Logger
}

// NewBidService creates a new bid service
func NewBidService(params BidServiceParams) *BidService {
	return &BidService{
		bidRepo:     params.BidRepo,
		auctionRepo: params.AuctionRepo,
		broadcaster: params.Broadcaster,
		logger:      params.Logger.With().Str("component", "bid_service").Logger(),
	}
}

// PlaceBid validates and places a new bid on an auction. The price check is
// repeated inside the repository transaction, so two concurrent bids at the
// same price resolve to one winner and one ErrBidTooLow.
func (service *BidService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error) {
	if req.Actor == nil {
		return nil, shared.ErrNotAuthenticated
	}

	service.logger.Info().
		Str("auction_id", req.AuctionID.String()).
		Str("user_id", req.Actor.ID.String()).
		Str("amount", req.Amount.String()).
		Msg("Attempting to place bid")

	if !req.Amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	target, err := service.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		service.logger.Error().Err(err).Str("auction_id", req.AuctionID.String()).Msg("Auction not found for bid")
		return nil, err
	}

	now := time.Now()
	if target.IsExpired(now) {
		service.logger.Warn().
			Str("auction_id", target.ID.String()).
			Time("end_time", target.EndTime).
			Msg("Bid on expired auction rejected")
		return nil, shared.ErrAuctionEnded
	}

	if !target.AcceptsBid(req.Amount) {
		service.logger.Warn().
			Str("auction_id", target.ID.String()).
			Str("amount", req.Amount.String()).
			Str("minimum_bid", target.MinimumBid().String()).
			Msg("Bid below minimum rejected")
		return nil, shared.ErrBidTooLow
	}

	newBid := &bid.Bid{
		ID:        uuid.New(),
		AuctionID: target.ID,
		UserID:    req.Actor.ID,
		UserName:  req.Actor.DisplayName,
		Amount:    req.Amount,
		CreatedAt: now,
	}

	if err := service.bidRepo.PlaceBidWithOCC(ctx, newBid, target.CurrentPrice); err != nil {
		if errors.Is(err, shared.ErrBidTooLow) {
			service.logger.Warn().
				Str("auction_id", target.ID.String()).
				Str("amount", req.Amount.String()).
				Msg("Bid lost the price race")
		} else {
			service.logger.Error().Err(err).Str("auction_id", target.ID.String()).Msg("Failed to place bid")
		}
		return nil, err
	}

	service.logger.Info().
		Str("bid_id", newBid.ID.String()).
		Str("auction_id", target.ID.String()).
		Str("user_id", newBid.UserID.String()).
		Str("amount", newBid.Amount.String()).
		Msg("Bid placed")

	// Broadcast failures never undo a placed bid
	event := outbound.Event{
		Type: outbound.EventTypeBidPlaced,
		Data: map[string]interface{}{
			"auction_id":    target.ID.String(),
			"bid_id":        newBid.ID.String(),
			"user_name":     newBid.UserName,
			"amount":        newBid.Amount.String(),
			"current_price": newBid.Amount.String(),
		},
	}
	if err := service.broadcaster.Publish(ctx, outbound.TopicAuctions, event); err != nil {
		service.logger.Error().Err(err).Str("auction_id", target.ID.String()).Msg("Failed to broadcast bid")
	}

	return newBid, nil
}

// GetBids retrieves bids for an auction, highest first
func (service *BidService) GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	return service.bidRepo.GetByAuctionID(ctx, auctionID)
}

// MyBids retrieves the caller's bids joined with their auctions. A bid is
// winning while its amount still equals the auction's current price.
func (service *BidService) MyBids(ctx context.Context, actor *shared.User) ([]*inbound.MyBid, error) {
	if actor == nil {
		return nil, shared.ErrNotAuthenticated
	}

	bids, err := service.bidRepo.GetByUserID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	result := make([]*inbound.MyBid, 0, len(bids))
	for _, b := range bids {
		a, err := service.auctionRepo.GetByID(ctx, b.AuctionID)
		if err != nil {
			if errors.Is(err, shared.ErrAuctionNotFound) {
				// Auction was deleted from under the bid; skip it
				continue
			}
			return nil, err
		}

		result = append(result, &inbound.MyBid{
			Bid:     b,
			Auction: a,
			Winning: b.IsWinning(a.CurrentPrice),
		})
	}

	return result, nil
}
