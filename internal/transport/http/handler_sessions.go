package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tic-tac-toe-server/internal/match"
)

const healthTimeout = 2 * time.Second

// SessionReader is the read side of the coordinator.
type SessionReader interface {
	Snapshot(sessionID string) (match.SessionSnapshot, bool)
	SessionCount() int
	Ping(ctx context.Context) error
}

type SessionHandlers struct {
	sessions SessionReader
}

func NewSessionHandlers(sessions SessionReader) *SessionHandlers {
	return &SessionHandlers{sessions: sessions}
}

func (h *SessionHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		count := h.sessions.SessionCount()
		if err := h.sessions.Ping(ctx); err != nil {
			metricHealthFailures.Add(1)
			log.Warn().Err(err).Msg("results backend health check failed")
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "sessions": count, "results": "down"})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "sessions": count, "results": "up"})
	}
}

func (h *SessionHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricSnapshotQueries.Add(1)
		id := chi.URLParam(r, "session_id")
		snap, ok := h.sessions.Snapshot(id)
		if !ok {
			metricSnapshotNotFound.Add(1)
			WriteHTTPError(w, http.StatusNotFound, "session_not_found")
			return
		}
		WriteJSON(w, http.StatusOK, snap)
	}
}
