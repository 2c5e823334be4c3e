package memory

import (
	"context"
	"testing"
	"time"

	"bidding-engine/internal/domain"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func event(auctionID, bidderID string, amount int64) *domain.BidEvent {
	return &domain.BidEvent{
		ID:        bidderID + "-" + decimal.NewFromInt(amount).String(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    decimal.NewFromInt(amount),
		Timestamp: time.Now().UTC(),
	}
}

func TestBidLedger_EmptyState(t *testing.T) {
	ledger := NewBidLedger()

	state, err := ledger.State(context.Background(), "a1")
	assert.NoError(t, err)
	check.False(t, state.HasBid)
	check.Equal(t, "a1", state.AuctionID)
}

func TestBidLedger_CommitAndRead(t *testing.T) {
	ledger := NewBidLedger()
	ctx := context.Background()

	prev, err := ledger.State(ctx, "a1")
	assert.NoError(t, err)

	ok, err := ledger.CommitBid(ctx, "a1", prev, event("a1", "bidder-a", 5_500))
	assert.NoError(t, err)
	assert.True(t, ok)

	state, err := ledger.State(ctx, "a1")
	assert.NoError(t, err)
	check.True(t, state.HasBid)
	check.Equal(t, "bidder-a", state.CurrentBidderID)
	check.True(t, state.CurrentAmount.Equal(decimal.NewFromInt(5_500)))
}

func TestBidLedger_CommitRejectsStaleState(t *testing.T) {
	ledger := NewBidLedger()
	ctx := context.Background()

	empty, err := ledger.State(ctx, "a1")
	assert.NoError(t, err)

	ok, err := ledger.CommitBid(ctx, "a1", empty, event("a1", "bidder-a", 5_500))
	assert.NoError(t, err)
	assert.True(t, ok)

	// A second writer still holding the empty snapshot must lose.
	ok, err = ledger.CommitBid(ctx, "a1", empty, event("a1", "bidder-b", 5_500))
	assert.NoError(t, err)
	check.False(t, ok)

	// And a writer holding the fresh snapshot must win.
	fresh, err := ledger.State(ctx, "a1")
	assert.NoError(t, err)
	ok, err = ledger.CommitBid(ctx, "a1", fresh, event("a1", "bidder-b", 6_000))
	assert.NoError(t, err)
	check.True(t, ok)

	// The losing commit left no trace in the history.
	events, err := ledger.History(ctx, "a1", 0, 10)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(events))
	check.Equal(t, "bidder-a", events[0].BidderID)
	check.Equal(t, "bidder-b", events[1].BidderID)
}

func TestBidLedger_HistoryPagination(t *testing.T) {
	ledger := NewBidLedger()
	ctx := context.Background()

	amount := int64(5_500)
	for i := 0; i < 7; i++ {
		prev, err := ledger.State(ctx, "a1")
		assert.NoError(t, err)
		ok, err := ledger.CommitBid(ctx, "a1", prev, event("a1", "bidder", amount))
		assert.NoError(t, err)
		assert.True(t, ok)
		amount += 500
	}

	page0, err := ledger.History(ctx, "a1", 0, 3)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(page0))
	check.True(t, page0[0].Amount.Equal(decimal.NewFromInt(5_500)))

	page2, err := ledger.History(ctx, "a1", 2, 3)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(page2))

	page3, err := ledger.History(ctx, "a1", 3, 3)
	assert.NoError(t, err)
	check.Equal(t, 0, len(page3))
}

func TestBidLedger_Clear(t *testing.T) {
	ledger := NewBidLedger()
	ctx := context.Background()

	prev, _ := ledger.State(ctx, "a1")
	ok, err := ledger.CommitBid(ctx, "a1", prev, event("a1", "bidder-a", 5_500))
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, ledger.Clear(ctx, "a1"))

	state, err := ledger.State(ctx, "a1")
	assert.NoError(t, err)
	check.False(t, state.HasBid)

	events, err := ledger.History(ctx, "a1", 0, 10)
	assert.NoError(t, err)
	check.Equal(t, 0, len(events))
}
