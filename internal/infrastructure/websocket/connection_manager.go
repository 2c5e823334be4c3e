package websocket

import (
	"bidding-engine/internal/domain"
	"bidding-engine/pkg/logger"
	"sync"
)

// ConnectionManager tracks live watcher sockets per auction so accepted bids
// can be fanned out to everyone following that auction.
type ConnectionManager struct {
	connections map[string]map[string]domain.WebSocketConnection // auctionID -> watcherID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(watcherID, auctionID string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[auctionID] == nil {
		cm.connections[auctionID] = make(map[string]domain.WebSocketConnection)
	}
	cm.connections[auctionID][watcherID] = conn

	cm.log.Info("Watcher registered", "watcher_id", watcherID, "auction_id", auctionID)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(watcherID, auctionID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if auctionConns, exists := cm.connections[auctionID]; exists {
		delete(auctionConns, watcherID)
		if len(auctionConns) == 0 {
			delete(cm.connections, auctionID)
		}
	}

	cm.log.Info("Watcher unregistered", "watcher_id", watcherID, "auction_id", auctionID)
	return nil
}

func (cm *ConnectionManager) BroadcastToAuction(auctionID string, message interface{}) error {
	cm.mutex.RLock()
	var conns []domain.WebSocketConnection
	for _, conn := range cm.connections[auctionID] {
		conns = append(conns, conn)
	}
	cm.mutex.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send to watcher", "watcher_id", conn.WatcherID(),
				"auction_id", auctionID, "error", err)
			// Keep going, one dead socket must not starve the rest.
		}
	}
	return nil
}

func (cm *ConnectionManager) CloseAndUnregisterConnections(auctionID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for watcherID, conn := range cm.connections[auctionID] {
		if err := conn.Close(); err != nil {
			cm.log.Error("Failed to close watcher connection", "watcher_id", watcherID,
				"auction_id", auctionID, "error", err)
		}
	}
	delete(cm.connections, auctionID)

	cm.log.Info("Watcher connections closed", "auction_id", auctionID)
	return nil
}
