package auction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinIncrement is the minimum amount a new bid must exceed the current
// price by, in whole currency units.
var MinIncrement = decimal.NewFromInt(1000)

// EndingSoonWindow marks auctions with less than this much time left.
const EndingSoonWindow = time.Hour

// Auction represents a time-boxed sale with a monotonically increasing
// current price. There is no persisted terminal state: an auction is
// active exactly while its end time is in the future.
type Auction struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ImageURLs     []string        `json:"image_urls"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	EndTime       time.Time       `json:"end_time"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PrimaryImage returns the first image URL, or "" when none exist.
func (a *Auction) PrimaryImage() string {
	if len(a.ImageURLs) == 0 {
		return ""
	}
	return a.ImageURLs[0]
}

// IsActive returns true while the auction has not yet ended.
func (a *Auction) IsActive(now time.Time) bool {
	return a.EndTime.After(now)
}

// IsExpired returns true once the end time has passed.
func (a *Auction) IsExpired(now time.Time) bool {
	return !a.IsActive(now)
}

// Remaining returns the time left until the auction ends, never negative.
func (a *Auction) Remaining(now time.Time) time.Duration {
	left := a.EndTime.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// EndingSoon returns true for active auctions with strictly less than one
// hour remaining.
func (a *Auction) EndingSoon(now time.Time) bool {
	left := a.EndTime.Sub(now)
	return left > 0 && left < EndingSoonWindow
}

// MinimumBid returns the lowest amount the next bid may carry.
func (a *Auction) MinimumBid() decimal.Decimal {
	return a.CurrentPrice.Add(MinIncrement)
}

// AcceptsBid reports whether amount meets the minimum-increment rule.
// Expiry is checked separately so callers can surface a distinct error.
func (a *Auction) AcceptsBid(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(a.MinimumBid())
}

// RaisePrice sets the current price to newPrice. The price only ever
// moves up; a lower value is ignored.
func (a *Auction) RaisePrice(newPrice decimal.Decimal) {
	if newPrice.GreaterThan(a.CurrentPrice) {
		a.CurrentPrice = newPrice
	}
}
