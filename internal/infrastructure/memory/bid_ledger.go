package memory

import (
	"bidding-engine/internal/domain"
	"context"
	"sync"
)

// BidLedger keeps bid state and history in process memory. Each auction id
// owns its own lock, so commits on different auctions never contend. Used
// for embedded deployments and tests; the Redis ledger is the shared-store
// equivalent.
type BidLedger struct {
	mu     sync.RWMutex
	stores map[string]*auctionRecord
}

type auctionRecord struct {
	mu      sync.Mutex
	state   domain.BidState
	history []*domain.BidEvent
}

func NewBidLedger() *BidLedger {
	return &BidLedger{stores: make(map[string]*auctionRecord)}
}

func (l *BidLedger) record(auctionID string) *auctionRecord {
	l.mu.RLock()
	rec, ok := l.stores[auctionID]
	l.mu.RUnlock()
	if ok {
		return rec
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok = l.stores[auctionID]; ok {
		return rec
	}
	rec = &auctionRecord{state: domain.BidState{AuctionID: auctionID}}
	l.stores[auctionID] = rec
	return rec
}

func (l *BidLedger) State(ctx context.Context, auctionID string) (*domain.BidState, error) {
	rec := l.record(auctionID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	state := rec.state
	return &state, nil
}

func (l *BidLedger) CommitBid(ctx context.Context, auctionID string, prev *domain.BidState, event *domain.BidEvent) (bool, error) {
	rec := l.record(auctionID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	// Compare-and-swap: the stored state must still match what the caller
	// read. Amount equality is a sufficient token because accepted amounts
	// are strictly increasing.
	if prev.HasBid != rec.state.HasBid {
		return false, nil
	}
	if prev.HasBid && !prev.CurrentAmount.Equal(rec.state.CurrentAmount) {
		return false, nil
	}

	rec.state = domain.BidState{
		AuctionID:       auctionID,
		CurrentAmount:   event.Amount,
		CurrentBidderID: event.BidderID,
		HasBid:          true,
		LastUpdated:     event.Timestamp,
	}
	rec.history = append(rec.history, event)
	return true, nil
}

func (l *BidLedger) History(ctx context.Context, auctionID string, page, pageSize int) ([]*domain.BidEvent, error) {
	rec := l.record(auctionID)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	start := page * pageSize
	if start >= len(rec.history) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(rec.history) {
		end = len(rec.history)
	}

	events := make([]*domain.BidEvent, end-start)
	copy(events, rec.history[start:end])
	return events, nil
}

func (l *BidLedger) Clear(ctx context.Context, auctionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.stores, auctionID)
	return nil
}
