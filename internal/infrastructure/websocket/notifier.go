package websocket

import (
	"bidding-engine/internal/domain"
	"context"
)

type Broadcaster struct {
	connManager domain.ConnectionManager
}

func NewBroadcaster(connManager domain.ConnectionManager) *Broadcaster {
	return &Broadcaster{connManager: connManager}
}

func (b *Broadcaster) BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error {
	return b.connManager.BroadcastToAuction(auctionID, message)
}

// BidEventRelay bridges the bid event subscription onto watcher sockets:
// every accepted bid is pushed to the auction's watchers.
func BidEventRelay(connManager domain.ConnectionManager) domain.EventHandler {
	return func(event *domain.BidEvent) error {
		return connManager.BroadcastToAuction(event.AuctionID, map[string]interface{}{
			"type":       "bid_accepted",
			"auction_id": event.AuctionID,
			"bidder_id":  event.BidderID,
			"amount":     event.Amount.String(),
			"timestamp":  event.Timestamp,
		})
	}
}
