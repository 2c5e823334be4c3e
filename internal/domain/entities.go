package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuctionStatus int

const (
	AuctionNotStarted AuctionStatus = iota
	AuctionOpen
	AuctionClosed
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionNotStarted:
		return "not_started"
	case AuctionOpen:
		return "open"
	case AuctionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// BidState is the current leading bid for one auction. HasBid is false until
// the first bid commits; CurrentAmount and CurrentBidderID are meaningful
// only while HasBid is true.
type BidState struct {
	AuctionID       string
	CurrentAmount   decimal.Decimal
	CurrentBidderID string
	HasBid          bool
	LastUpdated     time.Time
}

// BidEvent is one immutable entry of an auction's bid history. Events are
// appended by successful commits only and never mutated afterwards.
type BidEvent struct {
	ID        string          `json:"id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// BidReceipt confirms an accepted bid back to the caller. AcceptedAmount is
// the server-computed amount, not the caller's proposed figure.
type BidReceipt struct {
	AuctionID      string          `json:"auction_id"`
	BidderID       string          `json:"bidder_id"`
	AcceptedAmount decimal.Decimal `json:"accepted_amount"`
	Timestamp      time.Time       `json:"timestamp"`
}
