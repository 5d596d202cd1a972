package biddingerrors

import "errors"

// Repository-level errors
var (
	ErrItemNotFound    = errors.New("item not found")
	ErrItemExists      = errors.New("item already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrVersionConflict = errors.New("item was modified concurrently")
)

// ErrStorageUnavailable marks transient backend failures, including timeouts.
// Safe to retry once.
var ErrStorageUnavailable = errors.New("storage unavailable")

// business logic errors
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrBidTooLow        = errors.New("bid amount too low")
	ErrAuctionClosed    = errors.New("auction has ended")
	ErrAuctionStillOpen = errors.New("auction has not ended yet")
	ErrNoWinner         = errors.New("no winner for item")
	ErrWinnerNotFound   = errors.New("winner not found")
)

// transport errors
var (
	ErrRateLimited = errors.New("too many bids")
	ErrMissingUser = errors.New("missing user identity")
)
