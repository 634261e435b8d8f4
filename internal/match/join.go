package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"tic-tac-toe-server/internal/game"
	"tic-tac-toe-server/internal/identity"
	"tic-tac-toe-server/internal/protocol"

	"github.com/rs/zerolog/log"
)

const maxSessionIDLength = 128

// Join authenticates conn and binds it to sessionID. Failures are sent to
// conn as error frames; an authentication failure also closes it.
func (c *Coordinator) Join(ctx context.Context, conn Conn, credential, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if !validSessionID(sessionID) {
		metricJoinErrors.Add(1)
		c.send(conn, errorMessage(ErrInvalidSessionID))
		return ErrInvalidSessionID
	}
	if _, bound := c.registry.lookup(conn.ID()); bound {
		metricJoinErrors.Add(1)
		c.send(conn, errorMessage(ErrAlreadyJoined))
		return ErrAlreadyJoined
	}

	id, err := c.verify(ctx, credential)
	if err != nil {
		metricAuthFailures.Add(1)
		log.Warn().Err(err).Str("session_id", sessionID).Str("conn_id", conn.ID()).Msg("authentication failed")
		c.send(conn, protocol.AuthError{Type: protocol.TypeAuthError, Message: authFailureMessage(err)})
		conn.Close("authentication failed")
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	for {
		s, _ := c.registry.GetOrCreate(sessionID, c.now())
		s.mu.Lock()
		if s.removed {
			s.mu.Unlock()
			continue
		}
		err := c.joinLocked(ctx, s, conn, id)
		if err != nil {
			metricJoinErrors.Add(1)
			c.send(conn, errorMessage(err))
		}
		s.mu.Unlock()
		return err
	}
}

func (c *Coordinator) verify(ctx context.Context, credential string) (identity.Identity, error) {
	if c.verifier == nil {
		return identity.Identity{}, errors.New("identity verifier not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.VerifyTimeout)
	defer cancel()
	id, err := c.verifier.Verify(ctx, credential)
	if err != nil {
		return identity.Identity{}, err
	}
	if strings.TrimSpace(id.ParticipantID) == "" {
		return identity.Identity{}, identity.ErrInvalidCredential
	}
	return id, nil
}

func (c *Coordinator) joinLocked(ctx context.Context, s *Session, conn Conn, id identity.Identity) error {
	now := c.now()
	p := s.participants[id.ParticipantID]

	if s.status == StatusConcluded {
		if p == nil {
			return ErrSessionConcluded
		}
		c.rebindLocked(s, p, conn)
		metricRejoinsTotal.Add(1)
		c.send(conn, authenticatedMessage(s, p))
		c.send(conn, finishedMessage(s))
		return nil
	}
	if p == nil && len(s.participants) >= 2 {
		return ErrSessionFull
	}

	rejoin := p != nil
	if rejoin {
		c.rebindLocked(s, p, conn)
		metricRejoinsTotal.Add(1)
	} else {
		p = &Participant{ID: id.ParticipantID, DisplayName: id.DisplayName, joinedAt: now}
		p.bind(conn)
		s.addParticipantLocked(p)
		c.registry.bind(conn.ID(), s.ID, p.ID)
		metricJoinsTotal.Add(1)
		if len(s.participants) == 1 && s.startedAt.IsZero() {
			c.reports.reportStartLocked(ctx, s, now)
		}
		c.reports.reportJoinLocked(ctx, s, p)
	}

	started := false
	if len(s.participants) == 2 && s.status == StatusForming && !s.rolesAssignedLocked() {
		c.startLocked(s)
		started = true
	}
	s.touchLocked(now)

	c.send(conn, authenticatedMessage(s, p))
	switch {
	case started:
		for _, part := range s.orderedLocked() {
			if part.Connected() {
				c.send(part.conn, matchStartedMessage(s, part))
			}
		}
	case s.status == StatusActive:
		c.send(conn, gameStateMessage(s, p))
	}

	log.Info().
		Str("session_id", s.ID).
		Str("participant_id", p.ID).
		Str("conn_id", conn.ID()).
		Bool("rejoin", rejoin).
		Str("status", string(s.status)).
		Msg("participant joined")
	return nil
}

// rebindLocked attaches conn to a known participant. A still-live previous
// connection is superseded silently.
func (c *Coordinator) rebindLocked(s *Session, p *Participant, conn Conn) {
	if p.conn != nil && p.conn.ID() != conn.ID() {
		c.registry.unbind(p.conn.ID())
		log.Info().Str("session_id", s.ID).Str("participant_id", p.ID).Str("stale_conn_id", p.conn.ID()).Msg("connection superseded")
	}
	p.bind(conn)
	c.registry.bind(conn.ID(), s.ID, p.ID)
	c.scheduler.Cancel(s.ID, graceTask(p.ID))
}

// startLocked assigns both roles in join order and opens play.
func (c *Coordinator) startLocked(s *Session) {
	ps := s.orderedLocked()
	ps[0].Role = game.RoleA
	ps[1].Role = game.RoleB
	s.engine.Start()
	s.status = StatusActive
	metricSessionsStarted.Add(1)
}

func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLength {
		return false
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, identity.ErrExpiredCredential):
		return "Credential expired"
	case errors.Is(err, identity.ErrUnavailable):
		return "Identity service unavailable"
	default:
		return "Invalid credential"
	}
}
