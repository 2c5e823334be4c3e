package mysql

import (
	"bidding-engine/internal/domain"
	"context"
	"database/sql"
	"errors"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

// CatalogRepository reads auction records owned by the catalog service. The
// bidding engine only consumes floor price and lifecycle status; it never
// creates or closes auctions.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) FloorPrice(ctx context.Context, auctionID string) (decimal.Decimal, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT min_bid FROM auctions WHERE id = ?`, auctionID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, domain.ErrAuctionNotFound
		}
		return decimal.Zero, err
	}

	return decimal.NewFromString(raw)
}

func (r *CatalogRepository) Status(ctx context.Context, auctionID string) (domain.AuctionStatus, error) {
	var status int
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM auctions WHERE id = ?`, auctionID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AuctionNotStarted, domain.ErrAuctionNotFound
		}
		return domain.AuctionNotStarted, err
	}

	return domain.AuctionStatus(status), nil
}
