package broadcast

import (
	"sync"
	"sync/atomic"
	"time"

	"dashboard-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 16
)

// Client is a WebSocket subscriber. Outbound frames are queued and written
// by a single goroutine since gorilla connections allow one writer.
type Client struct {
	id    string
	conn  *websocket.Conn
	hub   *Hub
	send  chan []byte
	done  chan struct{}
	state atomic.Int32

	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		id:   uuid.New().String(),
		conn: conn,
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))
	return c
}

func (c *Client) ID() string { return c.id }

func (c *Client) State() State { return State(c.state.Load()) }

// Send queues payload without blocking.
func (c *Client) Send(payload []byte) error {
	if c.State() != StateOpen {
		return ErrClosed
	}
	select {
	case <-c.done:
		return ErrClosed
	case c.send <- payload:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close moves the client to Closed and tears down the connection once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Run registers the client and blocks until the connection ends. The
// client is unregistered on every exit path.
func (c *Client) Run() {
	c.state.Store(int32(StateOpen))
	c.hub.Register(c)
	defer c.hub.Unregister(c.id)

	go c.writePump()
	c.readPump()
}

// readPump discards inbound frames; it exists to process control frames
// and to notice the peer going away.
func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warn("WebSocket read error", logger.String("subscriber_id", c.id), logger.Err(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.hub.Unregister(c.id)

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("WebSocket write failed", logger.String("subscriber_id", c.id), logger.Err(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn("WebSocket ping failed", logger.String("subscriber_id", c.id), logger.Err(err))
				return
			}
		}
	}
}
