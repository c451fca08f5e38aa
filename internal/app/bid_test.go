package app

import (
	"context"
	"testing"
	"time"

	"subastas-service/internal/domain/bid"
	"subastas-service/internal/domain/shared"
	"subastas-service/internal/ports/inbound"
	"subastas-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceBid(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		amount  int64
		wantErr error
	}{
		{
			name:    "one_below_minimum_increment_rejected",
			amount:  50999,
			wantErr: shared.ErrBidTooLow,
		},
		{
			name:    "equal_to_current_price_rejected",
			amount:  50000,
			wantErr: shared.ErrBidTooLow,
		},
		{
			name:   "exactly_minimum_increment_accepted",
			amount: 51000,
		},
		{
			name:   "well_above_minimum_accepted",
			amount: 80000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.seedUsers(ctx)
			target := seedAuction(ctx, f, 50000, time.Hour)
			service := f.bidService()

			placed, err := service.PlaceBid(ctx, inbound.PlaceBidRequest{
				Actor:     f.bidder,
				AuctionID: target.ID,
				Amount:    decimal.NewFromInt(tt.amount),
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, f.bidder.ID, placed.UserID)
			assert.Equal(t, f.bidder.DisplayName, placed.UserName)

			updated, err := f.store.AuctionRepo().GetByID(ctx, target.ID)
			require.NoError(t, err)
			assert.True(t, updated.CurrentPrice.Equal(decimal.NewFromInt(tt.amount)))
		})
	}
}

func TestPlaceBidRequiresAuthentication(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	target := seedAuction(ctx, f, 50000, time.Hour)

	_, err := f.bidService().PlaceBid(ctx, inbound.PlaceBidRequest{
		AuctionID: target.ID,
		Amount:    decimal.NewFromInt(51000),
	})

	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestPlaceBidOnExpiredAuction(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)
	expired := seedAuction(ctx, f, 50000, -time.Minute)

	_, err := f.bidService().PlaceBid(ctx, inbound.PlaceBidRequest{
		Actor:     f.bidder,
		AuctionID: expired.ID,
		Amount:    decimal.NewFromInt(100000),
	})

	assert.ErrorIs(t, err, shared.ErrAuctionEnded)

	// The expired auction keeps its price
	unchanged, err := f.store.AuctionRepo().GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.True(t, unchanged.CurrentPrice.Equal(decimal.NewFromInt(50000)))
}

func TestPlaceBidUnknownAuction(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)

	_, err := f.bidService().PlaceBid(ctx, inbound.PlaceBidRequest{
		Actor:     f.bidder,
		AuctionID: newUser("x@x.ar", "x", shared.RoleUser).ID,
		Amount:    decimal.NewFromInt(51000),
	})

	assert.ErrorIs(t, err, shared.ErrAuctionNotFound)
}

func TestPlaceBidBroadcastsOnSharedTopic(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)
	target := seedAuction(ctx, f, 50000, time.Hour)

	_, err := f.bidService().PlaceBid(ctx, inbound.PlaceBidRequest{
		Actor:     f.bidder,
		AuctionID: target.ID,
		Amount:    decimal.NewFromInt(51000),
	})
	require.NoError(t, err)

	events := f.broadcaster.published()
	require.Len(t, events, 1)
	assert.Equal(t, outbound.EventTypeBidPlaced, events[0].Type)
	assert.Equal(t, outbound.TopicAuctions, events[0].Topic)
	assert.Equal(t, target.ID.String(), events[0].Data["auction_id"])
}

func TestConcurrentBidsAtSamePriceOneWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)
	target := seedAuction(ctx, f, 50000, time.Hour)
	service := f.bidService()

	second := newUser("otro@subastas.ar", "Otro", shared.RoleUser)
	f.store.UserRepo().Create(ctx, second)

	// Both bidders read the same current price; the repository's guarded
	// update lets exactly one through
	_, err := service.PlaceBid(ctx, inbound.PlaceBidRequest{
		Actor:     f.bidder,
		AuctionID: target.ID,
		Amount:    decimal.NewFromInt(51000),
	})
	require.NoError(t, err)

	stale := &bid.Bid{
		ID:        uuid.New(),
		AuctionID: target.ID,
		UserID:    second.ID,
		UserName:  second.DisplayName,
		Amount:    decimal.NewFromInt(51000),
		CreatedAt: time.Now(),
	}
	err = f.store.BidRepo().PlaceBidWithOCC(ctx, stale, target.CurrentPrice)
	assert.ErrorIs(t, err, shared.ErrBidTooLow)
}

func TestMyBidsWinningFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)
	target := seedAuction(ctx, f, 50000, time.Hour)
	service := f.bidService()

	rival := newUser("rival@subastas.ar", "Rival", shared.RoleUser)
	f.store.UserRepo().Create(ctx, rival)

	_, err := service.PlaceBid(ctx, inbound.PlaceBidRequest{
		Actor:     f.bidder,
		AuctionID: target.ID,
		Amount:    decimal.NewFromInt(51000),
	})
	require.NoError(t, err)

	mine, err := service.MyBids(ctx, f.bidder)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Winning)

	// A higher rival bid flips the flag
	_, err = service.PlaceBid(ctx, inbound.PlaceBidRequest{
		Actor:     rival,
		AuctionID: target.ID,
		Amount:    decimal.NewFromInt(52000),
	})
	require.NoError(t, err)

	mine, err = service.MyBids(ctx, f.bidder)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.False(t, mine[0].Winning)
}
