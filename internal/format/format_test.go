package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
		want   string
	}{
		{
			name:   "under_a_thousand",
			amount: decimal.NewFromInt(500),
			want:   "$500",
		},
		{
			name:   "thousands_grouped_with_dots",
			amount: decimal.NewFromInt(1250000),
			want:   "$1.250.000",
		},
		{
			name:   "fraction_rounded_away",
			amount: decimal.NewFromFloat(51000.49),
			want:   "$51.000",
		},
		{
			name:   "zero",
			amount: decimal.Zero,
			want:   "$0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(tt.amount))
		})
	}
}

func TestTimeRemaining(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		endTime time.Time
		want    Countdown
	}{
		{
			name:    "expired",
			endTime: now.Add(-time.Second),
			want:    Countdown{Expired: true},
		},
		{
			name:    "days_and_hours",
			endTime: now.Add(49*time.Hour + 30*time.Minute),
			want:    Countdown{Days: 2, Hours: 1, Minutes: 30},
		},
		{
			name:    "under_an_hour_is_ending_soon",
			endTime: now.Add(45*time.Minute + 10*time.Second),
			want:    Countdown{EndingSoon: true, Minutes: 45, Seconds: 10},
		},
		{
			name:    "exactly_one_hour_not_ending_soon",
			endTime: now.Add(time.Hour),
			want:    Countdown{Hours: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeRemaining(tt.endTime, now))
		})
	}
}

func TestCountdownString(t *testing.T) {
	tests := []struct {
		name      string
		countdown Countdown
		want      string
	}{
		{
			name:      "expired",
			countdown: Countdown{Expired: true},
			want:      "Finalizada",
		},
		{
			name:      "days_dominate",
			countdown: Countdown{Days: 3, Hours: 4, Minutes: 59},
			want:      "3d 4h",
		},
		{
			name:      "hours_dominate",
			countdown: Countdown{Hours: 2, Minutes: 15, Seconds: 30},
			want:      "2h 15m",
		},
		{
			name:      "minutes_dominate",
			countdown: Countdown{Minutes: 9, Seconds: 59},
			want:      "9m 59s",
		},
		{
			name:      "seconds_only",
			countdown: Countdown{Seconds: 42},
			want:      "42s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.countdown.String())
		})
	}
}
