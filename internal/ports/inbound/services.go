package inbound

import (
	"context"

	"subastas-service/internal/domain/auction"
	"subastas-service/internal/domain/bid"
	"subastas-service/internal/domain/request"
	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuthService defines the interface for account and session operations
type AuthService interface {
	// Register creates an account with the default user role
	Register(ctx context.Context, req RegisterRequest) (*shared.User, error)

	// Login verifies credentials and issues a session token
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Logout invalidates the session behind the token
	Logout(ctx context.Context, token string) error

	// Resolve maps a live session token to its user
	Resolve(ctx context.Context, token string) (*shared.User, error)

	// UpdateProfile changes the display name only
	UpdateProfile(ctx context.Context, userID uuid.UUID, displayName string) (*shared.User, error)
}

// AuctionService defines the interface for auction lifecycle operations
type AuctionService interface {
	// CreateAuction creates a new auction (admin or collaborator only)
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error)

	// GetAuction retrieves an auction by ID
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)

	// ListActiveAuctions retrieves unexpired auctions, soonest-ending first
	ListActiveAuctions(ctx context.Context) ([]*auction.Auction, error)

	// ListAllAuctions retrieves every auction for moderation (admin only)
	ListAllAuctions(ctx context.Context, actor *shared.User) ([]*auction.Auction, error)

	// DeleteAuction removes an auction and all its bids (admin only)
	DeleteAuction(ctx context.Context, actor *shared.User, auctionID uuid.UUID) error

	// HandleExpiry processes an auction whose end time has passed
	HandleExpiry(ctx context.Context, auctionID uuid.UUID) error
}

// BidService defines the interface for bid operations
type BidService interface {
	// PlaceBid validates and places a new bid on an auction
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*bid.Bid, error)

	// GetBids retrieves bids for an auction
	GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// MyBids retrieves the caller's bids joined with their auctions
	MyBids(ctx context.Context, actor *shared.User) ([]*MyBid, error)
}

// RequestService defines the interface for the auction request workflow
type RequestService interface {
	// SubmitRequest files a listing proposal and notifies admins
	SubmitRequest(ctx context.Context, req SubmitRequestInput) (*request.AuctionRequest, error)

	// ListPendingRequests retrieves pending requests (admin only)
	ListPendingRequests(ctx context.Context, actor *shared.User) ([]*request.AuctionRequest, error)

	// ApproveRequest materializes the auction and closes the request
	ApproveRequest(ctx context.Context, actor *shared.User, requestID uuid.UUID) (*auction.Auction, error)

	// RejectRequest closes the request without producing an auction
	RejectRequest(ctx context.Context, actor *shared.User, requestID uuid.UUID) error
}

// NotificationService defines the interface for admin notifications
type NotificationService interface {
	// ListNotifications retrieves the admin's notifications, newest first
	ListNotifications(ctx context.Context, actor *shared.User) ([]*shared.Notification, error)

	// UnreadCount returns the badge count
	UnreadCount(ctx context.Context, actor *shared.User) (int, error)

	// MarkAllRead clears the badge in one batched update
	MarkAllRead(ctx context.Context, actor *shared.User) error
}

// request to create an account
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// result of a successful login
type LoginResult struct {
	Token string       `json:"token"`
	User  *shared.User `json:"user"`
}

// request to create an auction
type CreateAuctionRequest struct {
	Actor         *shared.User    `json:"-"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ImageURLs     []string        `json:"image_urls"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	DurationHours int             `json:"duration_hours"`
}

// request to place a bid
type PlaceBidRequest struct {
	Actor     *shared.User    `json:"-"`
	AuctionID uuid.UUID       `json:"auction_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// request to file a listing proposal
type SubmitRequestInput struct {
	Actor         *shared.User    `json:"-"`
	Phone         string          `json:"phone"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	DurationHours int             `json:"duration_hours"`
}

// a bid joined with its auction for the my-bids view
type MyBid struct {
	Bid     *bid.Bid         `json:"bid"`
	Auction *auction.Auction `json:"auction"`
	Winning bool             `json:"winning"`
}
