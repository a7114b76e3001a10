package websocket

import (
	"bidbout/pkg/logger"

	"github.com/gorilla/websocket"
)

// Connection wraps one gorilla connection watching a lot's price feed.
type Connection struct {
	conn     *websocket.Conn
	bidderID string
	lotID    string
	log      logger.Logger
}

func NewConnection(conn *websocket.Conn, bidderID, lotID string, log logger.Logger) *Connection {
	return &Connection{
		conn:     conn,
		bidderID: bidderID,
		lotID:    lotID,
		log:      log,
	}
}

func (c *Connection) Send(message interface{}) error {
	return c.conn.WriteJSON(message)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) BidderID() string {
	return c.bidderID
}

func (c *Connection) LotID() string {
	return c.lotID
}

// ReadLoop drains inbound frames until the peer disconnects; the feed
// is one-way, so payloads other than pings are ignored.
func (c *Connection) ReadLoop(onClose func()) {
	defer onClose()

	for {
		var msg map[string]interface{}
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if msgType, ok := msg["type"].(string); ok && msgType == "ping" {
			if err := c.Send(map[string]string{"type": "pong"}); err != nil {
				return
			}
		}
	}
}
