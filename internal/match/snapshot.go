package match

import (
	"time"

	"tic-tac-toe-server/internal/game/viewmodel"
	"tic-tac-toe-server/internal/protocol"
)

// SessionSnapshot is the public read model of a session.
type SessionSnapshot struct {
	SessionID       string                 `json:"sessionId"`
	Status          Status                 `json:"status"`
	Board           [][]string             `json:"board"`
	CurrentTurnRole string                 `json:"currentTurnRole"`
	Roster          []protocol.RosterEntry `json:"roster"`
	Outcome         string                 `json:"outcome,omitempty"`
	Winner          *string                `json:"winner"`
	Moves           int                    `json:"moves"`
	CreatedAt       time.Time              `json:"createdAt"`
	StartedAt       *time.Time             `json:"startedAt,omitempty"`
	ConcludedAt     *time.Time             `json:"concludedAt,omitempty"`
}

// Snapshot returns the state of a session still held by the registry,
// including during the post-conclusion retention window.
func (c *Coordinator) Snapshot(sessionID string) (SessionSnapshot, bool) {
	s, ok := c.registry.Get(sessionID)
	if !ok {
		return SessionSnapshot{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return SessionSnapshot{}, false
	}
	snap := SessionSnapshot{
		SessionID:       s.ID,
		Status:          s.status,
		Board:           boardView(s),
		CurrentTurnRole: viewmodel.RoleView(s.engine.Turn),
		Roster:          rosterLocked(s),
		Outcome:         string(s.outcome),
		Winner:          viewmodel.OptionalRole(s.winner),
		Moves:           s.engine.Moves,
		CreatedAt:       s.createdAt,
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.concludedAt.IsZero() {
		t := s.concludedAt
		snap.ConcludedAt = &t
	}
	return snap, true
}
