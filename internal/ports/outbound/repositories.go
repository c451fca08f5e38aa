package outbound

import (
	"context"
	"time"

	"subastas-service/internal/domain/auction"
	"subastas-service/internal/domain/bid"
	"subastas-service/internal/domain/request"
	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionRepository defines the interface for auction data operations
type AuctionRepository interface {
	// Create creates a new auction
	Create(ctx context.Context, a *auction.Auction) error

	// GetByID retrieves an auction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)

	// ListActive retrieves auctions with endTime after now, sorted
	// ascending by end time (soonest-ending first)
	ListActive(ctx context.Context, now time.Time) ([]*auction.Auction, error)

	// ListAll retrieves every auction, newest first (moderation view)
	ListAll(ctx context.Context) ([]*auction.Auction, error)

	// DeleteWithBids removes the auction and its entire bid collection in
	// one transaction
	DeleteWithBids(ctx context.Context, id uuid.UUID) error
}

// BidRepository defines the interface for bid data operations
type BidRepository interface {
	// GetByAuctionID retrieves all bids for an auction, highest first
	GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// GetByUserID retrieves all bids placed by a user, newest first
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*bid.Bid, error)

	// PlaceBidWithOCC inserts the bid and raises the auction's current
	// price in one transaction, guarded on the expected current price so a
	// concurrent bid loses cleanly instead of overwriting
	PlaceBidWithOCC(ctx context.Context, b *bid.Bid, expectedCurrentPrice decimal.Decimal) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, u *shared.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*shared.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*shared.User, error)

	// ListAdmins retrieves every user holding the admin role
	ListAdmins(ctx context.Context) ([]*shared.User, error)

	// UpdateDisplayName updates the display name only
	UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error
}

// RequestRepository defines the interface for auction request data
// operations
type RequestRepository interface {
	// Submit inserts the request, failing with ErrDuplicatePendingRequest
	// when the requester already has a pending one; the check and the
	// insert run in one transaction
	Submit(ctx context.Context, r *request.AuctionRequest) error

	// GetByID retrieves a request by ID
	GetByID(ctx context.Context, id uuid.UUID) (*request.AuctionRequest, error)

	// ListPending retrieves pending requests, newest first
	ListPending(ctx context.Context) ([]*request.AuctionRequest, error)

	// ApproveWithAuction marks the request approved and creates the
	// materialized auction in one transaction
	ApproveWithAuction(ctx context.Context, requestID uuid.UUID, reviewedAt time.Time, a *auction.Auction) error

	// MarkRejected marks the request rejected with a review timestamp
	MarkRejected(ctx context.Context, requestID uuid.UUID, reviewedAt time.Time) error
}

// NotificationRepository defines the interface for notification data
// operations
type NotificationRepository interface {
	// Create creates a new notification
	Create(ctx context.Context, n *shared.Notification) error

	// ListByAdmin retrieves an admin's notifications, newest first
	ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]*shared.Notification, error)

	// CountUnread returns the number of unread notifications for an admin
	CountUnread(ctx context.Context, adminID uuid.UUID) (int, error)

	// MarkAllRead sets every read flag for an admin in one statement
	MarkAllRead(ctx context.Context, adminID uuid.UUID) error
}
