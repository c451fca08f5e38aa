package shared

import "errors"

// Domain-specific errors, grouped by taxonomy. None are fatal to a running
// session; callers log them and surface a message to the client.
var (
	// Authorization errors
	ErrNotAuthenticated = errors.New("authentication required")
	ErrNotAuthorized    = errors.New("insufficient role for this operation")
	ErrInvalidToken     = errors.New("invalid or expired session token")
	ErrWrongCredentials = errors.New("wrong email or password")

	// Validation errors
	ErrBidTooLow               = errors.New("bid must exceed the current price by the minimum increment")
	ErrInvalidAmount           = errors.New("amount must be greater than 0")
	ErrInvalidEmail            = errors.New("invalid email address")
	ErrWeakPassword            = errors.New("password must be at least 6 characters")
	ErrEmailTaken              = errors.New("email is already registered")
	ErrTitleRequired           = errors.New("title is required")
	ErrDisplayNameRequired     = errors.New("display name is required")
	ErrImageRequired           = errors.New("at least one image is required")
	ErrInvalidStartingPrice    = errors.New("starting price must be greater than 0")
	ErrInvalidDuration         = errors.New("duration must be a positive number of hours")
	ErrDuplicatePendingRequest = errors.New("a pending request already exists for this user")
	ErrRequestNotPending       = errors.New("request has already been reviewed")

	// Not-found errors
	ErrAuctionNotFound = errors.New("auction not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrRequestNotFound = errors.New("auction request not found")
	ErrNoBidsFound     = errors.New("no bids found")

	// Expiry errors
	ErrAuctionEnded = errors.New("auction has already ended")

	// Remote errors
	ErrRemote       = errors.New("remote operation failed")
	ErrUploadFailed = errors.New("image upload failed")

	// WebSocket message validation errors
	ErrMessageTypeRequired = errors.New("message type is required")
	ErrAuctionIDRequired   = errors.New("auction_id is required")
	ErrRequestIDRequired   = errors.New("request_id is required")
	ErrUnknownMessageType  = errors.New("unknown message type")
	ErrTopicRequired       = errors.New("topic is required")

	// Broadcasting errors
	ErrClientEventChannelNotFound = errors.New("client event channel not found")
)
