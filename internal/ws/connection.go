package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection wraps a WebSocket transport behind the interfaces.Connection
// contract. Writes are serialized through a single writer goroutine; the
// buffered write channel absorbs short bursts without blocking dispatch.
type Connection struct {
	id      string
	kind    string
	conn    *websocket.Conn
	writeCh chan []byte

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu     sync.RWMutex
	userID string

	writeTimeout time.Duration
}

// NewConnection wraps conn as a broker connection of the given kind and
// starts its writer goroutine.
func NewConnection(conn *websocket.Conn, kind string, bufferSize int, writeTimeout time.Duration) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           uuid.New().String(),
		kind:         kind,
		conn:         conn,
		writeCh:      make(chan []byte, bufferSize),
		ctx:          ctx,
		cancel:       cancel,
		writeTimeout: writeTimeout,
	}

	go c.writeLoop()
	return c
}

// writeLoop is the single writer for the underlying transport.
func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// WriteJSON sends one frame to the peer. Safe for concurrent callers.
func (c *Connection) WriteJSON(v interface{}) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(c.writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// Close signals the peer with a close frame, stops the writer goroutine, and
// closes the transport. Idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced or shutting down")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)

		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// ID returns the broker-assigned connection identifier.
func (c *Connection) ID() string {
	return c.id
}

// Kind returns the connection kind fixed at accept time.
func (c *Connection) Kind() string {
	return c.kind
}

// UserID returns the bound account id, or "" while Unbound.
func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Bind records the account id after a successful init.
func (c *Connection) Bind(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
}
