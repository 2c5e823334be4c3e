package mysql

import (
	"bidding-engine/internal/domain"
	"context"
	"database/sql"
)

// BidArchive is the durable copy of closed auctions' bid histories. The hot
// ledger lives in Redis while the auction is open; the archive sweeper moves
// each closed auction's events here and clears the hot keys.
type BidArchive struct {
	db *sql.DB
}

func NewBidArchive(db *sql.DB) *BidArchive {
	return &BidArchive{db: db}
}

func (a *BidArchive) ArchiveEvents(ctx context.Context, events []*domain.BidEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO bid_events (id, auction_id, bidder_id, amount, bid_time)
        VALUES (?, ?, ?, ?, ?)
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, event := range events {
		if _, err := stmt.ExecContext(ctx,
			event.ID, event.AuctionID, event.BidderID,
			event.Amount.String(), event.Timestamp); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (a *BidArchive) ClosedAuctionIDs(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id FROM auctions WHERE status = ?`, int(domain.AuctionClosed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
