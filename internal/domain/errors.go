package domain

import (
	"errors"
	"fmt"
)

// Input errors are deterministic facts about the caller's request or the
// lot's timing; they are surfaced unchanged and never retried.
var (
	ErrLotNotFound       = errors.New("lot not found")
	ErrAuctionNotStarted = errors.New("auction has not started yet")
	ErrAuctionEnded      = errors.New("auction has ended")
	ErrInvalidBid        = errors.New("invalid bid")
	ErrLotAlreadyStarted = errors.New("lot already started")
)

// BidTooLowError carries the current price so callers can prompt for a
// higher bid.
type BidTooLowError struct {
	CurrentPrice int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must be higher than %d", e.CurrentPrice)
}

// IsBidTooLow reports whether err is a BidTooLowError and, if so,
// returns the rejected price.
func IsBidTooLow(err error) (*BidTooLowError, bool) {
	var btl *BidTooLowError
	if errors.As(err, &btl) {
		return btl, true
	}
	return nil, false
}
