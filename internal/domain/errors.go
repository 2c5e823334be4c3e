package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrAuctionNotFound means the auction catalog has no record for the id.
	ErrAuctionNotFound = errors.New("auction not found")

	// ErrAuctionNotOpen means the auction is not currently accepting bids.
	ErrAuctionNotOpen = errors.New("auction is not open for bidding")

	// ErrSameBidderReapply means the bidder already holds the leading bid.
	ErrSameBidderReapply = errors.New("leading bidder cannot outbid themselves")
)

// BidTooLowError rejects a proposed amount below the server-computed minimum.
// RequiredMinimum is included so the caller can resubmit correctly.
type BidTooLowError struct {
	RequiredMinimum decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid below required minimum of %s", e.RequiredMinimum.String())
}

// LedgerUnavailableError wraps a ledger store I/O failure. It is the only
// fatal-to-the-call condition; all other rejections are retriable.
type LedgerUnavailableError struct {
	Op  string
	Err error
}

func (e *LedgerUnavailableError) Error() string {
	return fmt.Sprintf("bid ledger unavailable during %s: %v", e.Op, e.Err)
}

func (e *LedgerUnavailableError) Unwrap() error {
	return e.Err
}
