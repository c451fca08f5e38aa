package bid

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid represents an offer on an auction. The bidder's display name is
// denormalized at write time so bid listings never need a user lookup.
type Bid struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	UserID    uuid.UUID       `json:"user_id"`
	UserName  string          `json:"user_name"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsWinning reports whether this bid still matches the auction's current
// price, i.e. no one has outbid it.
func (b *Bid) IsWinning(currentPrice decimal.Decimal) bool {
	return b.Amount.Equal(currentPrice)
}
