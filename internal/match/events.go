package match

import (
	"tic-tac-toe-server/internal/game/viewmodel"
	"tic-tac-toe-server/internal/protocol"

	"github.com/rs/zerolog/log"
)

func (c *Coordinator) send(conn Conn, msg protocol.Message) {
	if conn == nil {
		return
	}
	if err := conn.Send(msg); err != nil {
		log.Debug().Err(err).Str("conn_id", conn.ID()).Str("type", msg.MessageType()).Msg("send dropped")
	}
}

// broadcastLocked delivers msg to every connected participant except the
// one whose id equals except. Holding the session lock keeps all recipients
// on the same event order.
func (c *Coordinator) broadcastLocked(s *Session, msg protocol.Message, except string) {
	for _, p := range s.orderedLocked() {
		if p.ID == except || !p.Connected() {
			continue
		}
		c.send(p.conn, msg)
	}
}

func rosterLocked(s *Session) []protocol.RosterEntry {
	ps := s.orderedLocked()
	out := make([]protocol.RosterEntry, 0, len(ps))
	for _, p := range ps {
		out = append(out, protocol.RosterEntry{
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Role:          viewmodel.RoleView(p.Role),
			Connected:     p.Connected(),
		})
	}
	return out
}

func boardView(s *Session) [][]string {
	return viewmodel.BoardView(s.engine.Board)
}

func errorMessage(err error) protocol.Error {
	return protocol.Error{Type: protocol.TypeError, Message: ErrorMessage(err)}
}

func authenticatedMessage(s *Session, p *Participant) protocol.Authenticated {
	return protocol.Authenticated{
		Type:          protocol.TypeAuthenticated,
		ParticipantID: p.ID,
		DisplayName:   p.DisplayName,
		SessionID:     s.ID,
		Role:          viewmodel.RoleView(p.Role),
		SessionStatus: string(s.status),
	}
}

func matchStartedMessage(s *Session, p *Participant) protocol.MatchStarted {
	return protocol.MatchStarted{
		Type:            protocol.TypeMatchStarted,
		SessionID:       s.ID,
		Roster:          rosterLocked(s),
		CurrentTurnRole: viewmodel.RoleView(s.engine.Turn),
		YourRole:        viewmodel.RoleView(p.Role),
	}
}

func gameStateMessage(s *Session, p *Participant) protocol.GameState {
	return protocol.GameState{
		Type:            protocol.TypeGameState,
		SessionID:       s.ID,
		Status:          string(s.status),
		Board:           boardView(s),
		CurrentTurnRole: viewmodel.RoleView(s.engine.Turn),
		Roster:          rosterLocked(s),
		YourRole:        viewmodel.RoleView(p.Role),
	}
}

func finishedMessage(s *Session) protocol.GameFinished {
	msg := protocol.GameFinished{
		Type:   protocol.TypeGameFinished,
		Winner: viewmodel.OptionalRole(s.winner),
		Board:  boardView(s),
	}
	if s.outcome != OutcomeWin {
		msg.Reason = string(s.outcome)
	}
	return msg
}
