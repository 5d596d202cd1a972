package models

import "time"

// User is a directory entry used to announce the winner of an auction
type User struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

// Item represents an auction item and the current leader of its auction.
// HighestBid and WinningBidderID are a projection of the latest accepted bid.
type Item struct {
	ItemID          string    `json:"item_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StartingPrice   float64   `json:"starting_price"`
	EndDate         time.Time `json:"end_date"`
	SellerID        string    `json:"seller_id"`
	HighestBid      float64   `json:"highest_bid"`
	WinningBidderID string    `json:"winning_bidder_id,omitempty"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasWinner reports whether a bid has ever been accepted for the item
func (i Item) HasWinner() bool {
	return i.WinningBidderID != ""
}

// IsOpen reports whether the item still accepts bids at the given time
func (i Item) IsOpen(now time.Time) bool {
	return now.Before(i.EndDate)
}

// Bid represents an accepted bid. Bids are never mutated once recorded.
type Bid struct {
	BidID    string    `json:"bid_id"`
	ItemID   string    `json:"item_id"`
	UserID   string    `json:"user_id"`
	Amount   float64   `json:"amount"`
	PlacedAt time.Time `json:"placed_at"`
}

type BidEventType string

const (
	EventBidAccepted     BidEventType = "bid_accepted"
	EventAuctionExtended BidEventType = "auction_extended"
)

// BidEvent is published after a bid has been committed
type BidEvent struct {
	Type      BidEventType `json:"type"`
	ItemID    string       `json:"item_id"`
	UserID    string       `json:"user_id"`
	Amount    float64      `json:"amount"`
	EndDate   time.Time    `json:"end_date"`
	Timestamp time.Time    `json:"timestamp"`
}
