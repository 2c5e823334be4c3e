package websocket

import (
	"bidding-engine/internal/domain"
	"bidding-engine/internal/services"
	"bidding-engine/pkg/logger"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades watcher connections. Watchers receive accepted-bid
// notifications for one auction; bids themselves go through the REST
// endpoint, the socket is a read-only stream.
type Handler struct {
	bidService  *services.BidService
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewHandler(bidService *services.BidService, connManager domain.ConnectionManager, log logger.Logger) *Handler {
	return &Handler{
		bidService:  bidService,
		connManager: connManager,
		log:         log,
	}
}

func (h *Handler) HandleConnection(c echo.Context) error {
	auctionID := c.Param("id")
	watcherID := c.QueryParam("watcher_id")
	if watcherID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "watcher_id required"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return nil
	}

	wsConn := NewConnection(conn, watcherID, auctionID)

	if err := h.connManager.RegisterConnection(watcherID, auctionID, wsConn); err != nil {
		h.log.Error("Failed to register watcher", "error", err)
		conn.Close()
		return nil
	}

	// Seed the watcher with the current snapshot before live events arrive.
	if state, err := h.bidService.CurrentBid(c.Request().Context(), auctionID); err == nil && state.HasBid {
		wsConn.Send(map[string]interface{}{
			"type":       "current_bid",
			"auction_id": auctionID,
			"bidder_id":  state.CurrentBidderID,
			"amount":     state.CurrentAmount.String(),
		})
	}

	go h.readLoop(wsConn, watcherID, auctionID)
	return nil
}

func (h *Handler) readLoop(conn *Connection, watcherID, auctionID string) {
	defer func() {
		h.connManager.UnregisterConnection(watcherID, auctionID)
		conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			return
		}

		if msgType, ok := msg["type"].(string); ok && msgType == "ping" {
			conn.Send(map[string]string{"type": "pong"})
		}
	}
}
