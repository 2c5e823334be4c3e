package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ledger interface
//
// BidLedger holds, per auction, the current best bid plus an append-only
// ordered log of accepted bids. CommitBid is a compare-and-swap: it succeeds
// only if the stored state still matches prev, and on success writes the new
// state and appends the event as one indivisible unit. Different auction ids
// never block one another.
type BidLedger interface {
	// State returns the current snapshot. An auction with no bids yet yields
	// a state with HasBid false, which is not an error.
	State(ctx context.Context, auctionID string) (*BidState, error)

	// CommitBid atomically replaces the current state and appends event,
	// provided the stored state still matches prev (prev.HasBid false means
	// "only if no bid exists yet"). Returns false without mutating anything
	// when a concurrent writer got there first.
	CommitBid(ctx context.Context, auctionID string, prev *BidState, event *BidEvent) (bool, error)

	// History returns one page of accepted bids, oldest first. Pages are
	// zero-based with a fixed size chosen by the implementation's caller.
	History(ctx context.Context, auctionID string, page, pageSize int) ([]*BidEvent, error)

	// Clear removes the auction's state and history from the hot store.
	// Used when a closed auction is archived.
	Clear(ctx context.Context, auctionID string) error
}

// Catalog interfaces
type AuctionCatalog interface {
	// FloorPrice is the minimum starting bid; ErrAuctionNotFound when the
	// catalog has no record.
	FloorPrice(ctx context.Context, auctionID string) (decimal.Decimal, error)
	Status(ctx context.Context, auctionID string) (AuctionStatus, error)
}

type AuctionStateCache interface {
	SetAuctionStatus(ctx context.Context, auctionID string, status AuctionStatus) error
	GetAuctionStatus(ctx context.Context, auctionID string) (AuctionStatus, bool, error)
}

// Archive interface: durable copy of a closed auction's history.
type BidArchive interface {
	ArchiveEvents(ctx context.Context, events []*BidEvent) error
	ClosedAuctionIDs(ctx context.Context) ([]string, error)
}

// Event interfaces
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}

type EventHandler func(event *BidEvent) error

type EventSubscriber interface {
	SubscribeToBidEvents(ctx context.Context, handler EventHandler) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// Notification interfaces
type AuctionBroadcaster interface {
	BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	WatcherID() string
	AuctionID() string
}

type ConnectionManager interface {
	RegisterConnection(watcherID, auctionID string, conn WebSocketConnection) error
	UnregisterConnection(watcherID, auctionID string) error
	BroadcastToAuction(auctionID string, message interface{}) error
	CloseAndUnregisterConnections(auctionID string) error
}
