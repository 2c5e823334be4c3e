package handlers

import (
	"bidding-engine/internal/domain"
	"bidding-engine/internal/services"
	"bidding-engine/pkg/logger"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type BidHandler struct {
	bidService *services.BidService
	log        logger.Logger
}

type PlaceBidRequest struct {
	BidderID string `json:"bidder_id"`
	Amount   string `json:"amount"`
}

type PlaceBidResponse struct {
	AuctionID      string `json:"auction_id"`
	BidderID       string `json:"bidder_id"`
	AcceptedAmount string `json:"accepted_amount"`
	Timestamp      string `json:"timestamp"`
}

type CurrentBidResponse struct {
	AuctionID       string  `json:"auction_id"`
	CurrentAmount   *string `json:"current_amount"`
	CurrentBidderID *string `json:"current_bidder_id"`
}

func NewBidHandler(bidService *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		log:        log,
	}
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	auctionID := c.Param("id")

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if req.BidderID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bidder_id required"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid amount"})
	}

	receipt, err := h.bidService.PlaceBid(c.Request().Context(), auctionID, req.BidderID, amount)
	if err != nil {
		return h.rejectBid(c, auctionID, err)
	}

	return c.JSON(http.StatusCreated, PlaceBidResponse{
		AuctionID:      receipt.AuctionID,
		BidderID:       receipt.BidderID,
		AcceptedAmount: receipt.AcceptedAmount.String(),
		Timestamp:      receipt.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (h *BidHandler) rejectBid(c echo.Context, auctionID string, err error) error {
	var tooLow *domain.BidTooLowError
	var unavailable *domain.LedgerUnavailableError

	switch {
	case errors.Is(err, domain.ErrAuctionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
	case errors.Is(err, domain.ErrAuctionNotOpen):
		return c.JSON(http.StatusConflict, map[string]string{"error": "auction not open"})
	case errors.Is(err, domain.ErrSameBidderReapply):
		return c.JSON(http.StatusConflict, map[string]string{"error": "leading bidder cannot bid again"})
	case errors.As(err, &tooLow):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error":            "bid too low",
			"required_minimum": tooLow.RequiredMinimum.String(),
		})
	case errors.As(err, &unavailable):
		h.log.Error("Ledger unavailable", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "bid ledger unavailable"})
	default:
		h.log.Error("Failed to place bid", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to place bid"})
	}
}

func (h *BidHandler) GetCurrentBid(c echo.Context) error {
	auctionID := c.Param("id")

	state, err := h.bidService.CurrentBid(c.Request().Context(), auctionID)
	if err != nil {
		h.log.Error("Failed to read current bid", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "bid ledger unavailable"})
	}

	resp := CurrentBidResponse{AuctionID: auctionID}
	if state.HasBid {
		amount := state.CurrentAmount.String()
		bidder := state.CurrentBidderID
		resp.CurrentAmount = &amount
		resp.CurrentBidderID = &bidder
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *BidHandler) GetBidHistory(c echo.Context) error {
	auctionID := c.Param("id")

	page := 0
	if pageStr := c.QueryParam("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid page"})
		}
		page = parsed
	}

	events, err := h.bidService.BidHistory(c.Request().Context(), auctionID, page)
	if err != nil {
		h.log.Error("Failed to read bid history", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "bid ledger unavailable"})
	}

	if events == nil {
		events = []*domain.BidEvent{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"auction_id": auctionID,
		"page":       page,
		"page_size":  h.bidService.HistoryPageSize(),
		"events":     events,
	})
}
