package services

import (
	"context"
	"testing"
	"time"

	"bidding-engine/internal/domain"
	"bidding-engine/internal/infrastructure/memory"
	"bidding-engine/pkg/logger"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

type fakeArchive struct {
	closed   []string
	archived []*domain.BidEvent
}

func (a *fakeArchive) ArchiveEvents(ctx context.Context, events []*domain.BidEvent) error {
	a.archived = append(a.archived, events...)
	return nil
}

func (a *fakeArchive) ClosedAuctionIDs(ctx context.Context) ([]string, error) {
	return a.closed, nil
}

type fakeStateCache struct {
	statuses map[string]domain.AuctionStatus
}

func (c *fakeStateCache) SetAuctionStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	c.statuses[auctionID] = status
	return nil
}

func (c *fakeStateCache) GetAuctionStatus(ctx context.Context, auctionID string) (domain.AuctionStatus, bool, error) {
	status, ok := c.statuses[auctionID]
	return status, ok, nil
}

func TestArchiveSweeper_MovesClosedAuction(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewBidLedger()

	amount := decimal.NewFromInt(5_500)
	for i := 0; i < 5; i++ {
		prev, err := ledger.State(ctx, "closed-1")
		assert.NoError(t, err)
		ok, err := ledger.CommitBid(ctx, "closed-1", prev, &domain.BidEvent{
			ID:        decimal.NewFromInt(int64(i)).String(),
			AuctionID: "closed-1",
			BidderID:  "bidder",
			Amount:    amount,
			Timestamp: time.Now().UTC(),
		})
		assert.NoError(t, err)
		assert.True(t, ok)
		amount = amount.Add(decimal.NewFromInt(500))
	}

	archive := &fakeArchive{closed: []string{"closed-1"}}
	stateCache := &fakeStateCache{statuses: make(map[string]domain.AuctionStatus)}
	sweeper := NewArchiveSweeper(ledger, archive, stateCache, nil, "", logger.NewNop())

	sweeper.sweep(ctx)

	// All five events landed in the archive and the hot keys are gone.
	check.Equal(t, 5, len(archive.archived))

	state, err := ledger.State(ctx, "closed-1")
	assert.NoError(t, err)
	check.False(t, state.HasBid)

	status, ok, err := stateCache.GetAuctionStatus(ctx, "closed-1")
	assert.NoError(t, err)
	check.True(t, ok)
	check.Equal(t, domain.AuctionClosed, status)

	// A second sweep finds nothing hot and archives nothing new.
	sweeper.sweep(ctx)
	check.Equal(t, 5, len(archive.archived))
}
