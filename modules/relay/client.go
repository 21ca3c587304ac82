package relay

import (
	"github.com/gofiber/contrib/websocket"
)

// sendBufferSize is the per-client outbound queue depth. Frames for a client
// whose queue is full are dropped; delivery is best-effort, single-attempt.
const sendBufferSize = 64

// Conn is the subset of the WebSocket connection the relay writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents one live connection in the relay. It starts anonymous;
// the session registry holds its display name once announced.
type Client struct {
	ID      string
	conn    Conn
	send    chan []byte
	limiter *rateLimiter
}

// NewClient wraps a connection for registration with the hub.
func NewClient(id string, conn Conn) *Client {
	return &Client{
		ID:      id,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: newRateLimiter(burstSize, messagesPerSecond),
	}
}

// WritePump drains the send queue onto the connection. It returns when the
// hub closes the queue on unregister, after signalling close to the peer.
func (c *Client) WritePump() {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
