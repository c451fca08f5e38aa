package auction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinimumBid(t *testing.T) {
	a := &Auction{CurrentPrice: decimal.NewFromInt(50000)}

	assert.True(t, a.MinimumBid().Equal(decimal.NewFromInt(51000)))
}

func TestAcceptsBid(t *testing.T) {
	a := &Auction{CurrentPrice: decimal.NewFromInt(50000)}

	tests := []struct {
		name     string
		amount   decimal.Decimal
		accepted bool
	}{
		{
			name:     "below_current_price",
			amount:   decimal.NewFromInt(49000),
			accepted: false,
		},
		{
			name:     "equal_to_current_price",
			amount:   decimal.NewFromInt(50000),
			accepted: false,
		},
		{
			name:     "one_below_minimum_increment",
			amount:   decimal.NewFromInt(50999),
			accepted: false,
		},
		{
			name:     "exactly_minimum_increment",
			amount:   decimal.NewFromInt(51000),
			accepted: true,
		},
		{
			name:     "above_minimum_increment",
			amount:   decimal.NewFromInt(60000),
			accepted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.accepted, a.AcceptsBid(tt.amount))
		})
	}
}

func TestIsActive(t *testing.T) {
	now := time.Now()

	active := &Auction{EndTime: now.Add(time.Minute)}
	expired := &Auction{EndTime: now.Add(-time.Minute)}
	boundary := &Auction{EndTime: now}

	assert.True(t, active.IsActive(now))
	assert.False(t, expired.IsActive(now))
	// An auction exactly at its end time no longer accepts bids
	assert.False(t, boundary.IsActive(now))
	assert.True(t, boundary.IsExpired(now))
}

func TestEndingSoon(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		endTime    time.Time
		endingSoon bool
	}{
		{
			name:       "two_hours_left",
			endTime:    now.Add(2 * time.Hour),
			endingSoon: false,
		},
		{
			name:       "exactly_one_hour_left",
			endTime:    now.Add(time.Hour),
			endingSoon: false,
		},
		{
			name:       "under_one_hour_left",
			endTime:    now.Add(59 * time.Minute),
			endingSoon: true,
		},
		{
			name:       "already_expired",
			endTime:    now.Add(-time.Minute),
			endingSoon: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Auction{EndTime: tt.endTime}
			assert.Equal(t, tt.endingSoon, a.EndingSoon(now))
		})
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	now := time.Now()
	a := &Auction{EndTime: now.Add(-time.Hour)}

	assert.Equal(t, time.Duration(0), a.Remaining(now))
}

func TestRaisePriceOnlyMovesUp(t *testing.T) {
	a := &Auction{CurrentPrice: decimal.NewFromInt(50000)}

	a.RaisePrice(decimal.NewFromInt(40000))
	assert.True(t, a.CurrentPrice.Equal(decimal.NewFromInt(50000)))

	a.RaisePrice(decimal.NewFromInt(55000))
	assert.True(t, a.CurrentPrice.Equal(decimal.NewFromInt(55000)))
}

func TestPrimaryImage(t *testing.T) {
	withImages := &Auction{ImageURLs: []string{"https://img/1.jpg", "https://img/2.jpg"}}
	without := &Auction{}

	assert.Equal(t, "https://img/1.jpg", withImages.PrimaryImage())
	assert.Equal(t, "", without.PrimaryImage())
}
