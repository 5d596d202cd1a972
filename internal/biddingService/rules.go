package bidding

import (
	"fmt"
	"math"
	"time"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/models"
)

const (
	DefaultExtensionWindow    = 5 * time.Minute
	DefaultExtensionIncrement = 5 * time.Minute
)

// validAmount rejects NaN, infinities and non-positive amounts
func validAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0) && amount > 0
}

// checkBid applies the acceptance rules in their observable order:
// a closed auction is reported before a low amount.
func checkBid(item models.Item, amount float64, now time.Time) error {
	if !item.IsOpen(now) {
		return fmt.Errorf("service: %w - bidding for item %s ended at %s",
			biddingerrors.ErrAuctionClosed, item.ItemID, item.EndDate.Format(time.RFC3339))
	}
	if amount <= item.HighestBid {
		return fmt.Errorf("service: %w - current highest bid is %.2f", biddingerrors.ErrBidTooLow, item.HighestBid)
	}
	if amount < item.StartingPrice {
		return fmt.Errorf("service: %w - starting price is %.2f", biddingerrors.ErrBidTooLow, item.StartingPrice)
	}
	return nil
}

// extendDeadline implements the anti-snipe rule. Remaining time is counted in whole
// minutes (floor of the millisecond duration); fewer whole minutes than the window
// pushes the end date back by increment from the current end date, not from now.
// There is no cap on how often this can happen.
func extendDeadline(endDate, now time.Time, window, increment time.Duration) (time.Time, bool) {
	remainingMinutes := endDate.Sub(now).Milliseconds() / time.Minute.Milliseconds()
	if remainingMinutes < int64(window/time.Minute) {
		return endDate.Add(increment), true
	}
	return endDate, false
}
