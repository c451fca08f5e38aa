// Package format holds the pure display-formatting helpers: localized
// currency strings and countdown decomposition. Nothing here touches the
// store or the clock; callers pass time in.
package format

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"subastas-service/internal/domain/auction"
)

var printer = message.NewPrinter(language.MustParse("es-AR"))

// Currency renders an amount as a grouped whole-currency string, e.g.
// "$1.250.000". Fractions are rounded away; the marketplace trades in
// whole units only.
func Currency(amount decimal.Decimal) string {
	return printer.Sprintf("$%d", amount.Round(0).IntPart())
}

// Countdown is the decomposition of the time remaining on an auction.
type Countdown struct {
	Expired    bool
	EndingSoon bool
	Days       int
	Hours      int
	Minutes    int
	Seconds    int
}

// TimeRemaining decomposes endTime - now into countdown components.
func TimeRemaining(endTime, now time.Time) Countdown {
	left := endTime.Sub(now)
	if left <= 0 {
		return Countdown{Expired: true}
	}

	return Countdown{
		EndingSoon: left < auction.EndingSoonWindow,
		Days:       int(left / (24 * time.Hour)),
		Hours:      int(left % (24 * time.Hour) / time.Hour),
		Minutes:    int(left % time.Hour / time.Minute),
		Seconds:    int(left % time.Minute / time.Second),
	}
}

// String renders the countdown the way auction cards display it: the two
// most significant nonzero units, or just seconds at the end.
func (c Countdown) String() string {
	switch {
	case c.Expired:
		return "Finalizada"
	case c.Days > 0:
		return fmt.Sprintf("%dd %dh", c.Days, c.Hours)
	case c.Hours > 0:
		return fmt.Sprintf("%dh %dm", c.Hours, c.Minutes)
	case c.Minutes > 0:
		return fmt.Sprintf("%dm %ds", c.Minutes, c.Seconds)
	default:
		return fmt.Sprintf("%ds", c.Seconds)
	}
}
