package match

import (
	"sync"
	"time"

	"tic-tac-toe-server/internal/game"
	"tic-tac-toe-server/internal/protocol"
)

type Status string

const (
	StatusForming   Status = "forming"
	StatusActive    Status = "active"
	StatusConcluded Status = "concluded"
)

type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeWin       Outcome = "win"
	OutcomeDraw      Outcome = "draw"
	OutcomeAbandoned Outcome = "abandoned"
)

// ConnState is tracked separately from the connection handle so that a
// participant who never had a connection is distinguishable from one who lost it.
type ConnState int

const (
	ConnDisconnected ConnState = iota
	ConnConnected
)

func (s ConnState) String() string {
	if s == ConnConnected {
		return "connected"
	}
	return "disconnected"
}

// Conn is a client connection owned by the transport. Send must not block;
// implementations queue the message and deliver it in order.
type Conn interface {
	ID() string
	Send(msg protocol.Message) error
	Close(reason string)
}

type Participant struct {
	ID          string
	DisplayName string
	Role        game.Role

	conn           Conn
	state          ConnState
	joinReported   bool
	joinedAt       time.Time
	disconnectedAt time.Time
}

func (p *Participant) Connected() bool {
	return p.state == ConnConnected && p.conn != nil
}

func (p *Participant) bind(conn Conn) {
	p.conn = conn
	p.state = ConnConnected
	p.disconnectedAt = time.Time{}
}

func (p *Participant) unbind(now time.Time) {
	p.conn = nil
	p.state = ConnDisconnected
	p.disconnectedAt = now
}

// Session is the state machine of one match. All fields are guarded by mu;
// every coordinator operation takes it for the whole mutation.
type Session struct {
	ID string

	mu           sync.Mutex
	status       Status
	participants map[string]*Participant
	order        []string
	engine       *game.Engine
	outcome      Outcome
	winner       game.Role

	startedAt      time.Time
	startReported  bool
	resultAttempt  bool
	concludedAt    time.Time
	createdAt      time.Time
	lastActivityAt time.Time

	// removed is set once the session has left the registry; a caller that
	// raced the deletion must look the session up again.
	removed bool
}

func newSession(id string, boardSize int, eval game.Evaluator, now time.Time) *Session {
	return &Session{
		ID:             id,
		status:         StatusForming,
		participants:   map[string]*Participant{},
		engine:         game.NewEngine(boardSize, eval),
		createdAt:      now,
		lastActivityAt: now,
	}
}

func (s *Session) addParticipantLocked(p *Participant) {
	s.participants[p.ID] = p
	s.order = append(s.order, p.ID)
}

func (s *Session) removeParticipantLocked(id string) {
	delete(s.participants, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// orderedLocked returns participants in join order.
func (s *Session) orderedLocked() []*Participant {
	out := make([]*Participant, 0, len(s.order))
	for _, id := range s.order {
		if p := s.participants[id]; p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) rolesAssignedLocked() bool {
	for _, p := range s.participants {
		if p.Role.Valid() {
			return true
		}
	}
	return false
}

func (s *Session) connectedCountLocked() int {
	n := 0
	for _, p := range s.participants {
		if p.Connected() {
			n++
		}
	}
	return n
}

func (s *Session) touchLocked(now time.Time) {
	s.lastActivityAt = now
}
