package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/chess-live-server/internal/obslog"
)

// client wraps one accepted socket with an ordered egress queue. Room code
// enqueues frames under the room lock; the writer goroutine drains them with a
// bounded deadline per write, so a slow or dead client never stalls a room.
type client struct {
	id   string
	conn *websocket.Conn

	send chan []byte
	done chan struct{}
	once sync.Once

	writeTimeout time.Duration
}

func newClient(conn *websocket.Conn, queueSize int, writeTimeout time.Duration) *client {
	if queueSize <= 0 {
		queueSize = 32
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &client{
		id:           uuid.NewString(),
		conn:         conn,
		send:         make(chan []byte, queueSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

func (c *client) ID() string { return c.id }

// Send enqueues a frame without blocking. A full queue means the client is not
// keeping up; the connection is closed and the frame dropped.
func (c *client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		obslog.L().Warn("egress_queue_full", zap.String("conn", c.id))
		c.close(websocket.StatusPolicyViolation, "send queue overflow")
		return false
	}
}

// writeLoop drains the egress queue until the client is closed. Write errors
// close the connection; the read loop observes that and unwinds cleanup.
func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				c.close(websocket.StatusGoingAway, "write failure")
				return
			}
		}
	}
}

// close marks the client dead immediately and runs the close handshake off
// the caller's goroutine. Send runs under the room lock and the handshake can
// wait seconds for an unresponsive peer, so it must never happen inline.
func (c *client) close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
		go func() { _ = c.conn.Close(code, reason) }()
	})
}
