package match

import (
	"context"
	"time"

	"tic-tac-toe-server/internal/game"
	"tic-tac-toe-server/internal/protocol"

	"github.com/rs/zerolog/log"
)

// SubmitMove applies a move for the participant bound to conn. The acting
// participant is resolved from the connection binding only.
func (c *Coordinator) SubmitMove(ctx context.Context, conn Conn, pos game.Position) error {
	s, b, ok := c.registry.resolve(conn.ID())
	if !ok {
		metricMovesRejected.Add(1)
		c.send(conn, errorMessage(ErrNotAuthenticated))
		return ErrNotAuthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := c.moveLocked(ctx, s, b.participantID, conn, pos); err != nil {
		metricMovesRejected.Add(1)
		c.send(conn, errorMessage(err))
		return err
	}
	return nil
}

func (c *Coordinator) moveLocked(ctx context.Context, s *Session, participantID string, conn Conn, pos game.Position) error {
	if s.removed {
		return ErrNotAuthenticated
	}
	p := s.participants[participantID]
	if p == nil || p.conn == nil || p.conn.ID() != conn.ID() {
		return ErrNotAuthenticated
	}
	if s.status != StatusActive {
		return ErrInvalidSessionState
	}
	if p.Role != s.engine.Turn {
		return ErrOutOfTurn
	}
	res, err := s.engine.ApplyMove(p.Role, pos)
	if err != nil {
		return mapMoveError(err)
	}
	metricMovesAccepted.Add(1)
	now := c.now()
	s.touchLocked(now)

	switch res.Outcome {
	case game.Win, game.Draw:
		c.concludeLocked(ctx, s, res, now)
	default:
		c.broadcastLocked(s, protocol.MoveMade{
			Type:            protocol.TypeMoveMade,
			Position:        pos,
			MoverRole:       string(p.Role),
			CurrentTurnRole: string(s.engine.Turn),
			Board:           boardView(s),
		}, "")
	}
	return nil
}

// concludeLocked reports the result, then concludes and announces the match.
// The report outcome never changes what players see.
func (c *Coordinator) concludeLocked(ctx context.Context, s *Session, res game.Result, now time.Time) {
	if res.Outcome == game.Win {
		s.outcome = OutcomeWin
		s.winner = res.Winner
	} else {
		s.outcome = OutcomeDraw
	}
	c.reports.reportResultLocked(ctx, s, buildResultLocked(s))

	s.status = StatusConcluded
	s.concludedAt = now
	metricSessionsConcluded.Add(1)
	c.broadcastLocked(s, finishedMessage(s), "")
	c.scheduleRetentionLocked(s)
	log.Info().
		Str("session_id", s.ID).
		Str("outcome", string(s.outcome)).
		Str("winner", string(s.winner)).
		Int("moves", s.engine.Moves).
		Msg("match concluded")
}
