package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed is returned by Send after the connection is closed.
var ErrConnectionClosed = errors.New("realtime: connection closed")

// Connection wraps a websocket with a single writer goroutine so concurrent
// sends never interleave frames. All auth state lives behind the mutex.
type Connection struct {
	ws      *websocket.Conn
	writeCh chan []byte
	timeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu     sync.RWMutex
	userID string
}

// NewConnection wraps an upgraded websocket and starts its write loop.
func NewConnection(ws *websocket.Conn, writeTimeout time.Duration) *Connection {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		ws:      ws,
		writeCh: make(chan []byte, 64),
		timeout: writeTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
	go c.writeLoop()
	return c
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
				c.Close()
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Send queues an envelope for delivery. It never blocks past the write
// timeout and fails fast once the connection is closed.
func (c *Connection) Send(event string, data interface{}) error {
	env, err := envelope(event, data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}

	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.writeCh <- raw:
		return nil
	case <-time.After(c.timeout):
		return ErrConnectionClosed
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// ReadEnvelope blocks for the next client frame.
func (c *Connection) ReadEnvelope() (*Envelope, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// SetUser records the authenticated identity on the connection.
func (c *Connection) SetUser(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// UserID returns the authenticated identity, empty before the handshake.
func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Done is closed once the connection is shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close tears down the connection. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.ws.Close()
	})
	return err
}
