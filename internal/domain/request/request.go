package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the review state of an auction request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// AuctionRequest is a listing proposal awaiting admin review. Approved and
// rejected are terminal; there is no way back to pending.
type AuctionRequest struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	UserName      string          `json:"user_name"`
	UserEmail     string          `json:"user_email"`
	UserPhone     string          `json:"user_phone"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	DurationHours int             `json:"duration_hours"`
	Status        Status          `json:"status"`
	RequestedAt   time.Time       `json:"requested_at"`
	ReviewedAt    *time.Time      `json:"reviewed_at,omitempty"`
}

// IsPending returns true while the request awaits review.
func (r *AuctionRequest) IsPending() bool {
	return r.Status == StatusPending
}

// Approve marks the request approved at the given review time.
func (r *AuctionRequest) Approve(reviewedAt time.Time) {
	r.Status = StatusApproved
	r.ReviewedAt = &reviewedAt
}

// Reject marks the request rejected at the given review time.
func (r *AuctionRequest) Reject(reviewedAt time.Time) {
	r.Status = StatusRejected
	r.ReviewedAt = &reviewedAt
}

// EndTimeFrom converts the requested duration into an absolute end time.
// Duration is resolved at approval time, not at request time.
func (r *AuctionRequest) EndTimeFrom(approvedAt time.Time) time.Time {
	return approvedAt.Add(time.Duration(r.DurationHours) * time.Hour)
}
