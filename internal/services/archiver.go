package services

import (
	"bidding-engine/internal/domain"
	"bidding-engine/pkg/logger"
	"context"

	"github.com/robfig/cron/v3"
)

const archiverPageSize = 200

// ArchiveSweeper periodically moves closed auctions' ledgers out of the hot
// store into the durable archive. Auction closing itself is owned by the
// catalog service; the sweeper only reacts to the recorded status.
type ArchiveSweeper struct {
	cron       *cron.Cron
	ledger     domain.BidLedger
	archive    domain.BidArchive
	stateCache domain.AuctionStateCache
	leader     domain.LeaderElection
	instanceID string
	log        logger.Logger
}

func NewArchiveSweeper(
	ledger domain.BidLedger,
	archive domain.BidArchive,
	stateCache domain.AuctionStateCache,
	leader domain.LeaderElection,
	instanceID string,
	log logger.Logger,
) *ArchiveSweeper {
	return &ArchiveSweeper{
		cron:       cron.New(),
		ledger:     ledger,
		archive:    archive,
		stateCache: stateCache,
		leader:     leader,
		instanceID: instanceID,
		log:        log,
	}
}

func (s *ArchiveSweeper) Start(ctx context.Context) error {
	s.log.Info("Starting archive sweeper")

	_, err := s.cron.AddFunc("@every 1m", func() {
		s.sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *ArchiveSweeper) Stop() error {
	s.log.Info("Stopping archive sweeper")
	s.cron.Stop()
	return nil
}

func (s *ArchiveSweeper) sweep(ctx context.Context) {
	if s.leader != nil {
		isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
		if err != nil {
			s.log.Error("Leader check failed", "error", err)
			return
		}
		if !isLeader {
			return
		}
	}

	ids, err := s.archive.ClosedAuctionIDs(ctx)
	if err != nil {
		s.log.Error("Failed to list closed auctions", "error", err)
		return
	}

	for _, auctionID := range ids {
		if err := s.archiveAuction(ctx, auctionID); err != nil {
			s.log.Error("Failed to archive auction", "auction_id", auctionID, "error", err)
		}
	}
}

func (s *ArchiveSweeper) archiveAuction(ctx context.Context, auctionID string) error {
	var events []*domain.BidEvent
	for page := 0; ; page++ {
		batch, err := s.ledger.History(ctx, auctionID, page, archiverPageSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		events = append(events, batch...)
	}

	state, err := s.ledger.State(ctx, auctionID)
	if err != nil {
		return err
	}
	if !state.HasBid && len(events) == 0 {
		// Already swept, nothing hot left for this auction.
		return nil
	}

	if err := s.archive.ArchiveEvents(ctx, events); err != nil {
		return err
	}

	if err := s.ledger.Clear(ctx, auctionID); err != nil {
		return err
	}

	if s.stateCache != nil {
		if err := s.stateCache.SetAuctionStatus(ctx, auctionID, domain.AuctionClosed); err != nil {
			s.log.Warn("Failed to mark auction closed in cache", "auction_id", auctionID, "error", err)
		}
	}

	s.log.Info("Archived auction ledger", "auction_id", auctionID, "events", len(events))
	return nil
}
