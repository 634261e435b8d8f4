// Package wstransport carries the match protocol over WebSocket connections.
package wstransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"tic-tac-toe-server/internal/game"
	"tic-tac-toe-server/internal/match"
	"tic-tac-toe-server/internal/protocol"
)

const (
	defaultReadLimit = 4096

	msgMalformed       = "Malformed message"
	msgUnknownType     = "Unknown message type"
	msgMissingPosition = "Missing position"
	msgBinaryFrame     = "Binary frames are not supported"
)

// Coordinator is the part of match.Coordinator the transport drives.
type Coordinator interface {
	Join(ctx context.Context, conn match.Conn, credential, sessionID string) error
	SubmitMove(ctx context.Context, conn match.Conn, pos game.Position) error
	Disconnect(conn match.Conn)
}

type Options struct {
	OriginPatterns []string
	SendBuffer     int
	ReadLimit      int64
}

type Handler struct {
	coord Coordinator
	opts  Options
}

func NewHandler(coord Coordinator, opts Options) *Handler {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	return &Handler{coord: coord, opts: opts}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.OriginPatterns,
	})
	if err != nil {
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("ws accept failed")
		return
	}
	ws.SetReadLimit(h.opts.ReadLimit)

	conn := newConn(ws, h.opts.SendBuffer)
	metricConnectionsTotal.Add(1)
	metricConnectionsActive.Add(1)
	defer metricConnectionsActive.Add(-1)
	log.Debug().Str("conn_id", conn.ID()).Str("remote_addr", r.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go conn.writeLoop(ctx)

	h.readLoop(ctx, conn)

	h.coord.Disconnect(conn)
	conn.Close("connection closed")
	<-conn.written
	log.Debug().Str("conn_id", conn.ID()).Msg("ws closed")
}

func (h *Handler) readLoop(ctx context.Context, conn *Conn) {
	for {
		typ, data, err := conn.ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug().Err(err).Str("conn_id", conn.ID()).Msg("ws read ended")
			}
			return
		}
		if typ != websocket.MessageText {
			h.reject(conn, msgBinaryFrame)
			continue
		}
		h.dispatch(ctx, conn, data)
	}
}

// moveFrame keeps the position optional so a frame without one is rejected
// instead of being read as the origin cell.
type moveFrame struct {
	Position *game.Position `json:"position"`
}

func (h *Handler) dispatch(ctx context.Context, conn *Conn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.reject(conn, msgMalformed)
		return
	}
	switch env.Type {
	case protocol.TypeJoin:
		var msg protocol.JoinMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reject(conn, msgMalformed)
			return
		}
		_ = h.coord.Join(ctx, conn, msg.Credential, msg.SessionID)
	case protocol.TypeMove:
		var msg moveFrame
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reject(conn, msgMalformed)
			return
		}
		if msg.Position == nil {
			h.reject(conn, msgMissingPosition)
			return
		}
		_ = h.coord.SubmitMove(ctx, conn, *msg.Position)
	default:
		h.reject(conn, msgUnknownType)
	}
}

func (h *Handler) reject(conn *Conn, message string) {
	metricFramesRejected.Add(1)
	_ = conn.Send(protocol.Error{Type: protocol.TypeError, Message: message})
}
