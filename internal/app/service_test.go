package app

import (
	"context"
	"sync"
	"time"

	"subastas-service/internal/adapters/memory"
	"subastas-service/internal/domain/auction"
	"subastas-service/internal/domain/shared"
	"subastas-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// recordingBroadcaster captures published events for assertions
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []outbound.Event
}

func (b *recordingBroadcaster) Subscribe(ctx context.Context, topic string, clientID string, eventChan chan outbound.Event) error {
	return nil
}

func (b *recordingBroadcaster) Unsubscribe(ctx context.Context, topic string, clientID string) error {
	return nil
}

func (b *recordingBroadcaster) UnsubscribeAll(ctx context.Context, clientID string) error {
	return nil
}

func (b *recordingBroadcaster) Publish(ctx context.Context, topic string, event outbound.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	event.Topic = topic
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBroadcaster) IsSubscribed(ctx context.Context, topic string, clientID string) bool {
	return false
}

func (b *recordingBroadcaster) published() []outbound.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]outbound.Event(nil), b.events...)
}

type fixture struct {
	store       *memory.Store
	broadcaster *recordingBroadcaster
	admin       *shared.User
	collab      *shared.User
	bidder      *shared.User
}

func newFixture() *fixture {
	return &fixture{
		store:       memory.NewStore(),
		broadcaster: &recordingBroadcaster{},
		admin:       newUser("admin@subastas.ar", "Admin", shared.RoleAdmin),
		collab:      newUser("collab@subastas.ar", "Colaborador", shared.RoleCollaborator),
		bidder:      newUser("bidder@subastas.ar", "Oferente", shared.RoleUser),
	}
}

func (f *fixture) seedUsers(ctx context.Context) {
	repo := f.store.UserRepo()
	repo.Create(ctx, f.admin)
	repo.Create(ctx, f.collab)
	repo.Create(ctx, f.bidder)
}

func (f *fixture) auctionService() *AuctionService {
	return NewAuctionService(AuctionServiceParams{
		AuctionRepo: f.store.AuctionRepo(),
		BidRepo:     f.store.BidRepo(),
		Broadcaster: f.broadcaster,
		Logger:      zerolog.Nop(),
	})
}

func (f *fixture) bidService() *BidService {
	return NewBidService(BidServiceParams{
		BidRepo:     f.store.BidRepo(),
		AuctionRepo: f.store.AuctionRepo(),
		Broadcaster: f.broadcaster,
		Logger:      zerolog.Nop(),
	})
}

func (f *fixture) requestService() *RequestService {
	return NewRequestService(RequestServiceParams{
		RequestRepo:      f.store.RequestRepo(),
		AuctionRepo:      f.store.AuctionRepo(),
		UserRepo:         f.store.UserRepo(),
		NotificationRepo: f.store.NotificationRepo(),
		Broadcaster:      f.broadcaster,
		Logger:           zerolog.Nop(),
	})
}

func (f *fixture) notificationService() *NotificationService {
	return NewNotificationService(NotificationServiceParams{
		NotificationRepo: f.store.NotificationRepo(),
		Logger:           zerolog.Nop(),
	})
}

func newUser(email, name string, role shared.Role) *shared.User {
	return &shared.User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: name,
		Role:        role,
		CreatedAt:   time.Now(),
	}
}

func seedAuction(ctx context.Context, f *fixture, price int64, endsIn time.Duration) *auction.Auction {
	a := &auction.Auction{
		ID:            uuid.New(),
		Title:         "Guitarra criolla",
		ImageURLs:     []string{"https://img/guitarra.jpg"},
		StartingPrice: decimal.NewFromInt(price),
		CurrentPrice:  decimal.NewFromInt(price),
		EndTime:       time.Now().Add(endsIn),
		CreatedBy:     f.admin.ID,
		CreatedAt:     time.Now(),
	}
	f.store.AuctionRepo().Create(ctx, a)
	return a
}
