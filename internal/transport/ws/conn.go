package wstransport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"tic-tac-toe-server/internal/protocol"
	"tic-tac-toe-server/internal/store"
)

const (
	defaultSendBuffer = 32
	writeTimeout      = 5 * time.Second
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn adapts a websocket to match.Conn. Frames queued by Send are written
// in order by a single writer goroutine.
type Conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
	written   chan struct{}

	mu     sync.Mutex
	reason string
}

func newConn(ws *websocket.Conn, buffer int) *Conn {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &Conn{
		id:      store.NewID("conn"),
		ws:      ws,
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
		written: make(chan struct{}),
	}
}

func (c *Conn) ID() string {
	return c.id
}

// Send encodes msg and queues it without blocking. A client that cannot keep
// up with its queue is disconnected.
func (c *Conn) Send(msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		metricSendOverflow.Add(1)
		c.Close("send buffer full")
		// The writer is stuck on this peer; drop the socket so the read
		// side ends and the session sees the disconnect now.
		if c.ws != nil {
			go func() { _ = c.ws.CloseNow() }()
		}
		return ErrSendBufferFull
	}
}

// Close flushes frames queued before the call and then closes the socket.
func (c *Conn) Close(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Conn) closeReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

func (c *Conn) writeLoop(ctx context.Context) {
	defer close(c.written)
	for {
		select {
		case data := <-c.send:
			if err := c.write(ctx, data); err != nil {
				log.Debug().Err(err).Str("conn_id", c.id).Msg("ws write failed")
				c.Close("write failed")
				_ = c.ws.Close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-c.done:
			c.flush(ctx)
			_ = c.ws.Close(websocket.StatusNormalClosure, c.closeReason())
			return
		case <-ctx.Done():
			c.Close("server shutting down")
			_ = c.ws.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
	}
}

func (c *Conn) flush(ctx context.Context) {
	for {
		select {
		case data := <-c.send:
			if err := c.write(ctx, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, data)
}
