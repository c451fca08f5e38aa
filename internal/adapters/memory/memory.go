// Package memory holds concurrency-safe in-memory implementations of the
// outbound repositories and the session store. They mirror the Postgres
// adapter's semantics (OCC bid placement, transactional duplicate-pending
// guard, cascading delete) and back the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"subastas-service/internal/domain/auction"
	"subastas-service/internal/domain/bid"
	"subastas-service/internal/domain/request"
	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is a single in-memory store shared by the per-entity repositories
// so cross-entity operations (cascade delete, approve-with-auction) stay
// atomic under one mutex.
type Store struct {
	mu            sync.RWMutex
	auctions      map[uuid.UUID]*auction.Auction
	bids          map[uuid.UUID][]*bid.Bid // auctionID -> bids
	users         map[uuid.UUID]*shared.User
	requests      map[uuid.UUID]*request.AuctionRequest
	notifications map[uuid.UUID][]*shared.Notification // adminID -> notifications
	sessions      map[string]uuid.UUID
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		auctions:      make(map[uuid.UUID]*auction.Auction),
		bids:          make(map[uuid.UUID][]*bid.Bid),
		users:         make(map[uuid.UUID]*shared.User),
		requests:      make(map[uuid.UUID]*request.AuctionRequest),
		notifications: make(map[uuid.UUID][]*shared.Notification),
		sessions:      make(map[string]uuid.UUID),
	}
}

func cloneAuction(a *auction.Auction) *auction.Auction {
	c := *a
	c.ImageURLs = append([]string(nil), a.ImageURLs...)
	return &c
}

// AuctionRepo returns the auction repository view of the store
func (s *Store) AuctionRepo() *AuctionRepo { return &AuctionRepo{s} }

// BidRepo returns the bid repository view of the store
func (s *Store) BidRepo() *BidRepo { return &BidRepo{s} }

// UserRepo returns the user repository view of the store
func (s *Store) UserRepo() *UserRepo { return &UserRepo{s} }

// RequestRepo returns the auction request repository view of the store
func (s *Store) RequestRepo() *RequestRepo { return &RequestRepo{s} }

// NotificationRepo returns the notification repository view of the store
func (s *Store) NotificationRepo() *NotificationRepo { return &NotificationRepo{s} }

// SessionStore returns the session store view of the store
func (s *Store) SessionStore() *SessionStore { return &SessionStore{s} }

// AuctionRepo is the in-memory outbound.AuctionRepository
type AuctionRepo struct{ s *Store }

func (r *AuctionRepo) Create(ctx context.Context, a *auction.Auction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.auctions[a.ID] = cloneAuction(a)
	return nil
}

func (r *AuctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.auctions[id]
	if !ok {
		return nil, shared.ErrAuctionNotFound
	}
	return cloneAuction(a), nil
}

func (r *AuctionRepo) ListActive(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var active []*auction.Auction
	for _, a := range r.s.auctions {
		if a.EndTime.After(now) {
			active = append(active, cloneAuction(a))
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].EndTime.Before(active[j].EndTime)
	})
	return active, nil
}

func (r *AuctionRepo) ListAll(ctx context.Context) ([]*auction.Auction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []*auction.Auction
	for _, a := range r.s.auctions {
		all = append(all, cloneAuction(a))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (r *AuctionRepo) DeleteWithBids(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.auctions[id]; !ok {
		return shared.ErrAuctionNotFound
	}
	delete(r.s.auctions, id)
	delete(r.s.bids, id)
	return nil
}

// BidRepo is the in-memory outbound.BidRepository
type BidRepo struct{ s *Store }

func (r *BidRepo) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bids := append([]*bid.Bid(nil), r.s.bids[auctionID]...)
	sort.Slice(bids, func(i, j int) bool {
		if !bids[i].Amount.Equal(bids[j].Amount) {
			return bids[i].Amount.GreaterThan(bids[j].Amount)
		}
		return bids[i].CreatedAt.Before(bids[j].CreatedAt)
	})
	return bids, nil
}

func (r *BidRepo) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*bid.Bid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var mine []*bid.Bid
	for _, bids := range r.s.bids {
		for _, b := range bids {
			if b.UserID == userID {
				c := *b
				mine = append(mine, &c)
			}
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	return mine, nil
}

func (r *BidRepo) PlaceBidWithOCC(ctx context.Context, newBid *bid.Bid, expectedCurrentPrice decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.auctions[newBid.AuctionID]
	if !ok {
		return shared.ErrAuctionNotFound
	}

	if !a.EndTime.After(newBid.CreatedAt) {
		return shared.ErrAuctionEnded
	}
	if !a.CurrentPrice.Equal(expectedCurrentPrice) {
		return shared.ErrBidTooLow
	}
	if newBid.Amount.LessThan(a.CurrentPrice.Add(auction.MinIncrement)) {
		return shared.ErrBidTooLow
	}

	c := *newBid
	r.s.bids[newBid.AuctionID] = append(r.s.bids[newBid.AuctionID], &c)
	a.CurrentPrice = newBid.Amount
	return nil
}

// UserRepo is the in-memory outbound.UserRepository
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(ctx context.Context, u *shared.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*shared.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (r *UserRepo) ListAdmins(ctx context.Context) ([]*shared.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var admins []*shared.User
	for _, u := range r.s.users {
		if u.Role == shared.RoleAdmin {
			c := *u
			admins = append(admins, &c)
		}
	}
	return admins, nil
}

func (r *UserRepo) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return shared.ErrUserNotFound
	}
	u.DisplayName = displayName
	return nil
}

// RequestRepo is the in-memory outbound.RequestRepository
type RequestRepo struct{ s *Store }

func (r *RequestRepo) Submit(ctx context.Context, req *request.AuctionRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.requests {
		if existing.UserID == req.UserID && existing.IsPending() {
			return shared.ErrDuplicatePendingRequest
		}
	}

	c := *req
	r.s.requests[req.ID] = &c
	return nil
}

func (r *RequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*request.AuctionRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, shared.ErrRequestNotFound
	}
	c := *req
	return &c, nil
}

func (r *RequestRepo) ListPending(ctx context.Context) ([]*request.AuctionRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var pending []*request.AuctionRequest
	for _, req := range r.s.requests {
		if req.IsPending() {
			c := *req
			pending = append(pending, &c)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RequestedAt.After(pending[j].RequestedAt)
	})
	return pending, nil
}

func (r *RequestRepo) ApproveWithAuction(ctx context.Context, requestID uuid.UUID, reviewedAt time.Time, a *auction.Auction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[requestID]
	if !ok {
		return shared.ErrRequestNotFound
	}
	if !req.IsPending() {
		return shared.ErrRequestNotPending
	}

	req.Approve(reviewedAt)
	r.s.auctions[a.ID] = cloneAuction(a)
	return nil
}

func (r *RequestRepo) MarkRejected(ctx context.Context, requestID uuid.UUID, reviewedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[requestID]
	if !ok {
		return shared.ErrRequestNotFound
	}
	if !req.IsPending() {
		return shared.ErrRequestNotPending
	}

	req.Reject(reviewedAt)
	return nil
}

// NotificationRepo is the in-memory outbound.NotificationRepository
type NotificationRepo struct{ s *Store }

func (r *NotificationRepo) Create(ctx context.Context, n *shared.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *n
	r.s.notifications[n.AdminID] = append(r.s.notifications[n.AdminID], &c)
	return nil
}

func (r *NotificationRepo) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*shared.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]*shared.Notification, 0, len(r.s.notifications[adminID]))
	for _, n := range r.s.notifications[adminID] {
		c := *n
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, adminID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, n := range r.s.notifications[adminID] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, adminID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, n := range r.s.notifications[adminID] {
		n.Read = true
	}
	return nil
}

// SessionStore is the in-memory outbound.SessionStore. TTLs are ignored;
// tests control session lifetime by deleting explicitly.
type SessionStore struct{ s *Store }

func (r *SessionStore) Put(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.sessions[tokenID] = userID
	return nil
}

func (r *SessionStore) Get(ctx context.Context, tokenID string) (uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	userID, ok := r.s.sessions[tokenID]
	if !ok {
		return uuid.Nil, shared.ErrInvalidToken
	}
	return userID, nil
}

func (r *SessionStore) Delete(ctx context.Context, tokenID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, tokenID)
	return nil
}
