package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bidding-engine/internal/domain"
	"bidding-engine/internal/infrastructure/memory"
	"bidding-engine/pkg/logger"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	floors   map[string]decimal.Decimal
	statuses map[string]domain.AuctionStatus
}

func (c *fakeCatalog) FloorPrice(ctx context.Context, auctionID string) (decimal.Decimal, error) {
	floor, ok := c.floors[auctionID]
	if !ok {
		return decimal.Zero, domain.ErrAuctionNotFound
	}
	return floor, nil
}

func (c *fakeCatalog) Status(ctx context.Context, auctionID string) (domain.AuctionStatus, error) {
	status, ok := c.statuses[auctionID]
	if !ok {
		return domain.AuctionNotStarted, domain.ErrAuctionNotFound
	}
	return status, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []*domain.BidEvent
}

func (p *capturingPublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newTestService(catalog *fakeCatalog, pageSize int) (*BidService, *memory.BidLedger, *capturingPublisher) {
	ledger := memory.NewBidLedger()
	pub := &capturingPublisher{}
	svc := NewBidService(ledger, catalog, nil, pub, pageSize, logger.NewNop())
	return svc, ledger, pub
}

func openAuction(id string, floor int64) *fakeCatalog {
	return &fakeCatalog{
		floors:   map[string]decimal.Decimal{id: decimal.NewFromInt(floor)},
		statuses: map[string]domain.AuctionStatus{id: domain.AuctionOpen},
	}
}

func TestPlaceBid_ColdStartScenario(t *testing.T) {
	// Floor price 5,000, no bids yet.
	svc, _, pub := newTestService(openAuction("a1", 5_000), 20)
	ctx := context.Background()

	// Bidder A proposes 5,600: accepted at the computed 5,500, not 5,600.
	receipt, err := svc.PlaceBid(ctx, "a1", "bidder-a", decimal.NewFromInt(5_600))
	assert.NoError(t, err)
	check.True(t, receipt.AcceptedAmount.Equal(decimal.NewFromInt(5_500)))

	// Bidder A again: the leader cannot outbid themselves, regardless of amount.
	_, err = svc.PlaceBid(ctx, "a1", "bidder-a", decimal.NewFromInt(100_000))
	check.True(t, errors.Is(err, domain.ErrSameBidderReapply))

	// Bidder B proposes 5,000: below the 6,000 minimum.
	_, err = svc.PlaceBid(ctx, "a1", "bidder-b", decimal.NewFromInt(5_000))
	var tooLow *domain.BidTooLowError
	assert.True(t, errors.As(err, &tooLow))
	check.True(t, tooLow.RequiredMinimum.Equal(decimal.NewFromInt(6_000)))

	// Bidder B proposes 6,200: accepted at 6,000.
	receipt, err = svc.PlaceBid(ctx, "a1", "bidder-b", decimal.NewFromInt(6_200))
	assert.NoError(t, err)
	check.True(t, receipt.AcceptedAmount.Equal(decimal.NewFromInt(6_000)))

	// Only the two accepted bids were published.
	check.Equal(t, 2, pub.count())

	state, err := svc.CurrentBid(ctx, "a1")
	assert.NoError(t, err)
	check.True(t, state.HasBid)
	check.Equal(t, "bidder-b", state.CurrentBidderID)
	check.True(t, state.CurrentAmount.Equal(decimal.NewFromInt(6_000)))
}

func TestPlaceBid_AtLeastCheckAgainstComputedMinimum(t *testing.T) {
	svc, _, _ := newTestService(openAuction("a1", 12_000), 20)
	ctx := context.Background()

	// Seed the ledger so the current amount is 12,000 (2,000-increment tier).
	receipt, err := svc.PlaceBid(ctx, "a1", "seed", decimal.NewFromInt(14_000))
	assert.NoError(t, err)
	check.True(t, receipt.AcceptedAmount.Equal(decimal.NewFromInt(14_000)))

	// 15,999 is below the 16,000 minimum and must be rejected, not rounded up.
	_, err = svc.PlaceBid(ctx, "a1", "bidder-x", decimal.NewFromInt(15_999))
	var tooLow *domain.BidTooLowError
	assert.True(t, errors.As(err, &tooLow))
	check.True(t, tooLow.RequiredMinimum.Equal(decimal.NewFromInt(16_000)))

	// Exactly the minimum is enough.
	receipt, err = svc.PlaceBid(ctx, "a1", "bidder-x", decimal.NewFromInt(16_000))
	assert.NoError(t, err)
	check.True(t, receipt.AcceptedAmount.Equal(decimal.NewFromInt(16_000)))
}

func TestPlaceBid_AuctionNotOpen(t *testing.T) {
	catalog := &fakeCatalog{
		floors: map[string]decimal.Decimal{
			"pending": decimal.NewFromInt(1_000),
			"done":    decimal.NewFromInt(1_000),
		},
		statuses: map[string]domain.AuctionStatus{
			"pending": domain.AuctionNotStarted,
			"done":    domain.AuctionClosed,
		},
	}
	svc, _, pub := newTestService(catalog, 20)
	ctx := context.Background()

	_, err := svc.PlaceBid(ctx, "pending", "bidder-a", decimal.NewFromInt(2_000))
	check.True(t, errors.Is(err, domain.ErrAuctionNotOpen))

	_, err = svc.PlaceBid(ctx, "done", "bidder-a", decimal.NewFromInt(2_000))
	check.True(t, errors.Is(err, domain.ErrAuctionNotOpen))

	// Rejections never mutate state or publish events.
	check.Equal(t, 0, pub.count())
}

func TestPlaceBid_AuctionNotFound(t *testing.T) {
	svc, _, _ := newTestService(openAuction("a1", 5_000), 20)

	_, err := svc.PlaceBid(context.Background(), "missing", "bidder-a", decimal.NewFromInt(10_000))
	check.True(t, errors.Is(err, domain.ErrAuctionNotFound))
}

func TestCurrentBid_EmptyStateIsNotAnError(t *testing.T) {
	svc, _, _ := newTestService(openAuction("a1", 5_000), 20)

	state, err := svc.CurrentBid(context.Background(), "a1")
	assert.NoError(t, err)
	check.False(t, state.HasBid)
	check.Equal(t, "", state.CurrentBidderID)
}

func TestBidHistory_PagesReconstructFullSequence(t *testing.T) {
	svc, _, _ := newTestService(openAuction("a1", 5_000), 3)
	ctx := context.Background()

	// Alternate two bidders so every sufficiently high proposal is accepted.
	bidders := []string{"bidder-a", "bidder-b"}
	high := decimal.NewFromInt(10_000_000)
	accepted := 0
	for i := 0; i < 10; i++ {
		_, err := svc.PlaceBid(ctx, "a1", bidders[i%2], high)
		assert.NoError(t, err)
		accepted++
	}

	var all []*domain.BidEvent
	for page := 0; ; page++ {
		events, err := svc.BidHistory(ctx, "a1", page)
		assert.NoError(t, err)
		if len(events) == 0 {
			break
		}
		all = append(all, events...)
	}

	assert.Equal(t, accepted, len(all))

	// Oldest first, strictly increasing, each step exactly one tier increment.
	for i := 1; i < len(all); i++ {
		prev := all[i-1].Amount
		want := domain.NextMinimumBid(prev)
		check.True(t, all[i].Amount.Equal(want))
	}

	// The final history entry matches the current snapshot.
	state, err := svc.CurrentBid(ctx, "a1")
	assert.NoError(t, err)
	check.True(t, state.CurrentAmount.Equal(all[len(all)-1].Amount))
	check.Equal(t, state.CurrentBidderID, all[len(all)-1].BidderID)
}

func TestPlaceBid_ConcurrentBiddersSerializePerAuction(t *testing.T) {
	svc, _, _ := newTestService(openAuction("a1", 5_000), 50)
	ctx := context.Background()

	const bidders = 16
	high := decimal.NewFromInt(100_000_000)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var acceptedAmounts []decimal.Decimal
	rejections := 0

	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			bidderID := string(rune('a' + n))
			receipt, err := svc.PlaceBid(ctx, "a1", "bidder-"+bidderID, high)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				var tooLow *domain.BidTooLowError
				// Race losers surface only as BidTooLow, never a conflict kind.
				check.True(t, errors.As(err, &tooLow))
				rejections++
				return
			}
			acceptedAmounts = append(acceptedAmounts, receipt.AcceptedAmount)
		}(i)
	}
	wg.Wait()

	assert.True(t, len(acceptedAmounts) > 0)
	check.Equal(t, bidders, len(acceptedAmounts)+rejections)

	// Exactly one acceptance per amount level: all accepted amounts distinct.
	seen := make(map[string]bool)
	max := decimal.Zero
	for _, amount := range acceptedAmounts {
		check.False(t, seen[amount.String()])
		seen[amount.String()] = true
		if amount.GreaterThan(max) {
			max = amount
		}
	}

	// Ledger state equals the highest accepted amount and its history length
	// equals the acceptance count.
	state, err := svc.CurrentBid(ctx, "a1")
	assert.NoError(t, err)
	check.True(t, state.CurrentAmount.Equal(max))

	var all []*domain.BidEvent
	for page := 0; ; page++ {
		events, err := svc.BidHistory(ctx, "a1", page)
		assert.NoError(t, err)
		if len(events) == 0 {
			break
		}
		all = append(all, events...)
	}
	check.Equal(t, len(acceptedAmounts), len(all))
}

func TestPlaceBid_IndependentAuctions(t *testing.T) {
	catalog := &fakeCatalog{
		floors: map[string]decimal.Decimal{
			"a1": decimal.NewFromInt(5_000),
			"a2": decimal.NewFromInt(150_000),
		},
		statuses: map[string]domain.AuctionStatus{
			"a1": domain.AuctionOpen,
			"a2": domain.AuctionOpen,
		},
	}
	svc, _, _ := newTestService(catalog, 20)
	ctx := context.Background()

	r1, err := svc.PlaceBid(ctx, "a1", "bidder-a", decimal.NewFromInt(9_999_999))
	assert.NoError(t, err)
	check.True(t, r1.AcceptedAmount.Equal(decimal.NewFromInt(5_500)))

	// Same bidder may lead two different auctions; 150,000 sits in the
	// 5,000-increment tier.
	r2, err := svc.PlaceBid(ctx, "a2", "bidder-a", decimal.NewFromInt(9_999_999))
	assert.NoError(t, err)
	check.True(t, r2.AcceptedAmount.Equal(decimal.NewFromInt(155_000)))
}
