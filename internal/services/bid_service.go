package services

import (
	"bidding-engine/internal/domain"
	"bidding-engine/pkg/logger"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BidService arbitrates competing bids against the ledger. The
// read-validate-commit sequence runs as a compare-and-swap per auction id;
// the losing side of a race re-reads and re-validates once before any
// rejection is surfaced.
type BidService struct {
	ledger     domain.BidLedger
	catalog    domain.AuctionCatalog
	stateCache domain.AuctionStateCache
	eventPub   domain.EventPublisher
	pageSize   int
	log        logger.Logger
}

func NewBidService(
	ledger domain.BidLedger,
	catalog domain.AuctionCatalog,
	stateCache domain.AuctionStateCache,
	eventPub domain.EventPublisher,
	historyPageSize int,
	log logger.Logger,
) *BidService {
	return &BidService{
		ledger:     ledger,
		catalog:    catalog,
		stateCache: stateCache,
		eventPub:   eventPub,
		pageSize:   historyPageSize,
		log:        log,
	}
}

// PlaceBid validates and commits one bid. The accepted amount is always the
// server-computed minimum (current amount plus tier increment); the proposed
// amount only has to reach it. A rejection is terminal for this call and
// never mutates state.
func (s *BidService) PlaceBid(ctx context.Context, auctionID, bidderID string, proposed decimal.Decimal) (*domain.BidReceipt, error) {
	s.log.Info("Placing bid", "auction_id", auctionID, "bidder_id", bidderID, "proposed", proposed.String())

	status, err := s.auctionStatus(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if status != domain.AuctionOpen {
		return nil, domain.ErrAuctionNotOpen
	}

	// Two passes: the second one is the single transparent retry granted to
	// the loser of a concurrent commit.
	for attempt := 0; attempt < 2; attempt++ {
		state, err := s.ledger.State(ctx, auctionID)
		if err != nil {
			return nil, &domain.LedgerUnavailableError{Op: "read", Err: err}
		}

		if state.HasBid && state.CurrentBidderID == bidderID {
			return nil, domain.ErrSameBidderReapply
		}

		effective := state.CurrentAmount
		if !state.HasBid {
			// Cold path: no bid yet, the floor price is the baseline.
			effective, err = s.catalog.FloorPrice(ctx, auctionID)
			if err != nil {
				return nil, err
			}
		}

		required := domain.NextMinimumBid(effective)
		if proposed.LessThan(required) {
			return nil, &domain.BidTooLowError{RequiredMinimum: required}
		}

		event := &domain.BidEvent{
			ID:        uuid.NewString(),
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    required,
			Timestamp: time.Now().UTC(),
		}

		committed, err := s.ledger.CommitBid(ctx, auctionID, state, event)
		if err != nil {
			return nil, &domain.LedgerUnavailableError{Op: "commit", Err: err}
		}
		if committed {
			s.publish(ctx, event)
			s.log.Info("Bid accepted", "auction_id", auctionID, "bidder_id", bidderID, "amount", required.String())
			return &domain.BidReceipt{
				AuctionID:      auctionID,
				BidderID:       bidderID,
				AcceptedAmount: required,
				Timestamp:      event.Timestamp,
			}, nil
		}

		s.log.Debug("Commit conflict, re-evaluating", "auction_id", auctionID, "bidder_id", bidderID, "attempt", attempt)
	}

	// Lost the race twice. Report the freshest minimum so the caller can
	// resubmit correctly.
	state, err := s.ledger.State(ctx, auctionID)
	if err != nil {
		return nil, &domain.LedgerUnavailableError{Op: "read", Err: err}
	}
	return nil, &domain.BidTooLowError{RequiredMinimum: domain.NextMinimumBid(state.CurrentAmount)}
}

// CurrentBid returns the present snapshot. An auction with no bids yields a
// state with HasBid false, which is a valid result, not an error.
func (s *BidService) CurrentBid(ctx context.Context, auctionID string) (*domain.BidState, error) {
	state, err := s.ledger.State(ctx, auctionID)
	if err != nil {
		return nil, &domain.LedgerUnavailableError{Op: "read", Err: err}
	}
	return state, nil
}

// BidHistory returns one fixed-size page of accepted bids, oldest first.
// Pages are zero-based; a page past the end is empty, not an error.
func (s *BidService) BidHistory(ctx context.Context, auctionID string, page int) ([]*domain.BidEvent, error) {
	if page < 0 {
		page = 0
	}
	events, err := s.ledger.History(ctx, auctionID, page, s.pageSize)
	if err != nil {
		return nil, &domain.LedgerUnavailableError{Op: "history", Err: err}
	}
	return events, nil
}

// HistoryPageSize exposes the fixed page size to the API layer.
func (s *BidService) HistoryPageSize() int {
	return s.pageSize
}

func (s *BidService) auctionStatus(ctx context.Context, auctionID string) (domain.AuctionStatus, error) {
	if s.stateCache != nil {
		status, ok, err := s.stateCache.GetAuctionStatus(ctx, auctionID)
		if err == nil && ok {
			return status, nil
		}
		if err != nil {
			s.log.Warn("State cache read failed, falling back to catalog", "auction_id", auctionID, "error", err)
		}
	}

	status, err := s.catalog.Status(ctx, auctionID)
	if err != nil {
		return domain.AuctionNotStarted, err
	}

	if s.stateCache != nil {
		if err := s.stateCache.SetAuctionStatus(ctx, auctionID, status); err != nil {
			s.log.Warn("Failed to cache auction status", "auction_id", auctionID, "error", err)
		}
	}
	return status, nil
}

func (s *BidService) publish(ctx context.Context, event *domain.BidEvent) {
	if s.eventPub == nil {
		return
	}
	if err := s.eventPub.PublishBidEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish bid event", "auction_id", event.AuctionID, "error", err)
	}
}
