package match

import (
	"context"

	"tic-tac-toe-server/internal/protocol"

	"github.com/rs/zerolog/log"
)

// Disconnect unbinds conn from its participant and starts the grace period.
// Role, board and reporting state are left untouched.
func (c *Coordinator) Disconnect(conn Conn) {
	s, b, ok := c.registry.resolve(conn.ID())
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.registry.unbind(conn.ID())
	if s.removed {
		return
	}
	p := s.participants[b.participantID]
	if p == nil || p.conn == nil || p.conn.ID() != conn.ID() {
		return
	}

	now := c.now()
	p.unbind(now)
	s.touchLocked(now)
	metricDisconnectsTotal.Add(1)
	c.broadcastLocked(s, protocol.PlayerDisconnected{
		Type:          protocol.TypePlayerDisconnected,
		ParticipantID: p.ID,
		Temporary:     true,
	}, p.ID)

	pid := p.ID
	c.scheduler.Schedule(s.ID, graceTask(pid), c.cfg.GracePeriod, func() {
		c.expireGrace(s, pid)
	})
	log.Info().Str("session_id", s.ID).Str("participant_id", pid).Str("conn_id", conn.ID()).Dur("grace", c.cfg.GracePeriod).Msg("participant disconnected")
}

// expireGrace drops a participant whose connection did not come back.
func (c *Coordinator) expireGrace(s *Session, participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed {
		return
	}
	p := s.participants[participantID]
	if p == nil || p.Connected() {
		return
	}

	s.removeParticipantLocked(participantID)
	abandoned := s.status == StatusActive
	if abandoned {
		c.abandonLocked(context.Background(), s, "participant_timeout")
	}
	log.Info().Str("session_id", s.ID).Str("participant_id", participantID).Str("status", string(s.status)).Msg("participant removed after grace period")

	if s.connectedCountLocked() == 0 {
		c.deleteLocked(s, "no_live_connections")
		return
	}
	c.broadcastLocked(s, protocol.PlayerDisconnected{
		Type:          protocol.TypePlayerDisconnected,
		ParticipantID: participantID,
		Temporary:     false,
	}, "")
	if abandoned {
		c.broadcastLocked(s, finishedMessage(s), "")
	}
	if s.status == StatusConcluded && !c.scheduler.Pending(s.ID, taskRetention) {
		c.scheduleRetentionLocked(s)
	}
}

func (c *Coordinator) abandonLocked(ctx context.Context, s *Session, reason string) {
	c.reports.reportAbandonmentLocked(ctx, s, reason)
	s.status = StatusConcluded
	s.outcome = OutcomeAbandoned
	s.concludedAt = c.now()
	metricSessionsAbandoned.Add(1)
	log.Info().Str("session_id", s.ID).Str("reason", reason).Msg("match abandoned")
}

func (c *Coordinator) scheduleRetentionLocked(s *Session) {
	c.scheduler.Schedule(s.ID, taskRetention, c.cfg.RetentionWindow, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.removed {
			return
		}
		c.deleteLocked(s, "retention_elapsed")
	})
}

// deleteLocked removes s from the registry and cancels its pending tasks.
func (c *Coordinator) deleteLocked(s *Session, reason string) {
	s.removed = true
	c.scheduler.CancelSession(s.ID)
	if c.registry.Delete(s.ID, s) {
		metricSessionsDeleted.Add(1)
		log.Info().Str("session_id", s.ID).Str("reason", reason).Msg("session deleted")
	}
}
