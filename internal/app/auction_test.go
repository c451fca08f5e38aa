package app

import (
	"context"
	"testing"
	"time"

	"subastas-service/internal/domain/shared"
	"subastas-service/internal/ports/inbound"
	"subastas-service/internal/ports/outbound"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAuctionRoleGate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   func(f *fixture) *shared.User
		wantErr error
	}{
		{
			name:    "admin_allowed",
			actor:   func(f *fixture) *shared.User { return f.admin },
			wantErr: nil,
		},
		{
			name:    "collaborator_allowed",
			actor:   func(f *fixture) *shared.User { return f.collab },
			wantErr: nil,
		},
		{
			name:    "plain_user_rejected",
			actor:   func(f *fixture) *shared.User { return f.bidder },
			wantErr: shared.ErrNotAuthorized,
		},
		{
			name:    "anonymous_rejected",
			actor:   func(f *fixture) *shared.User { return nil },
			wantErr: shared.ErrNotAuthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.seedUsers(ctx)

			created, err := f.auctionService().CreateAuction(ctx, inbound.CreateAuctionRequest{
				Actor:         tt.actor(f),
				Title:         "Bicicleta de ruta",
				ImageURLs:     []string{"https://img/bici.jpg"},
				StartingPrice: decimal.NewFromInt(200000),
				DurationHours: 48,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, created.CurrentPrice.Equal(created.StartingPrice))
			assert.WithinDuration(t, time.Now().Add(48*time.Hour), created.EndTime, 5*time.Second)
		})
	}
}

func TestCreateAuctionValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)
	service := f.auctionService()

	base := inbound.CreateAuctionRequest{
		Actor:         f.admin,
		Title:         "Cuadro al óleo",
		ImageURLs:     []string{"https://img/cuadro.jpg"},
		StartingPrice: decimal.NewFromInt(75000),
		DurationHours: 24,
	}

	tests := []struct {
		name    string
		mutate  func(r *inbound.CreateAuctionRequest)
		wantErr error
	}{
		{
			name:    "empty_title",
			mutate:  func(r *inbound.CreateAuctionRequest) { r.Title = "   " },
			wantErr: shared.ErrTitleRequired,
		},
		{
			name:    "no_images",
			mutate:  func(r *inbound.CreateAuctionRequest) { r.ImageURLs = nil },
			wantErr: shared.ErrImageRequired,
		},
		{
			name:    "zero_starting_price",
			mutate:  func(r *inbound.CreateAuctionRequest) { r.StartingPrice = decimal.Zero },
			wantErr: shared.ErrInvalidStartingPrice,
		},
		{
			name:    "negative_duration",
			mutate:  func(r *inbound.CreateAuctionRequest) { r.DurationHours = -1 },
			wantErr: shared.ErrInvalidDuration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)

			_, err := service.CreateAuction(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListActiveAuctionsOrderedByEndTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	late := seedAuction(ctx, f, 10000, 72*time.Hour)
	soon := seedAuction(ctx, f, 10000, time.Hour)
	mid := seedAuction(ctx, f, 10000, 24*time.Hour)
	seedAuction(ctx, f, 10000, -time.Hour) // expired, excluded

	active, err := f.auctionService().ListActiveAuctions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)

	assert.Equal(t, soon.ID, active[0].ID)
	assert.Equal(t, mid.ID, active[1].ID)
	assert.Equal(t, late.ID, active[2].ID)
}

func TestListAllAuctionsAdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)

	seedAuction(ctx, f, 10000, time.Hour)
	seedAuction(ctx, f, 10000, -time.Hour)

	service := f.auctionService()

	_, err := service.ListAllAuctions(ctx, f.bidder)
	assert.ErrorIs(t, err, shared.ErrNotAuthorized)

	_, err = service.ListAllAuctions(ctx, f.collab)
	assert.ErrorIs(t, err, shared.ErrNotAuthorized)

	// Admin sees every auction, expired included
	all, err := service.ListAllAuctions(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteAuctionCascadesBids(t *testing.T) {
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

	service := f.auctionService()

	err = service.DeleteAuction(ctx, f.bidder, target.ID)
	assert.ErrorIs(t, err, shared.ErrNotAuthorized)

	err = service.DeleteAuction(ctx, f.admin, target.ID)
	require.NoError(t, err)

	_, err = f.store.AuctionRepo().GetByID(ctx, target.ID)
	assert.ErrorIs(t, err, shared.ErrAuctionNotFound)

	bids, err := f.store.BidRepo().GetByAuctionID(ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, bids)

	events := f.broadcaster.published()
	last := events[len(events)-1]
	assert.Equal(t, outbound.EventTypeAuctionDeleted, last.Type)
	assert.Equal(t, outbound.TopicAuctions, last.Topic)
}

func TestDeleteAuctionNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedUsers(ctx)

	err := f.auctionService().DeleteAuction(ctx, f.admin, newUser("x@x.ar", "x", shared.RoleUser).ID)
	assert.ErrorIs(t, err, shared.ErrAuctionNotFound)
}
