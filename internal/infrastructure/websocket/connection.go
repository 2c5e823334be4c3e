package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Connection wraps one watcher's socket. Writes are serialized because
// broadcasts and pong replies come from different goroutines.
type Connection struct {
	conn      *websocket.Conn
	watcherID string
	auctionID string
	writeMu   sync.Mutex
}

func NewConnection(conn *websocket.Conn, watcherID, auctionID string) *Connection {
	return &Connection{
		conn:      conn,
		watcherID: watcherID,
		auctionID: auctionID,
	}
}

func (c *Connection) Send(message interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(message)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) WatcherID() string {
	return c.watcherID
}

func (c *Connection) AuctionID() string {
	return c.auctionID
}
