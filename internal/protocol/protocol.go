package protocol

import "tic-tac-toe-server/internal/game"

// Inbound message types.
const (
	TypeJoin = "join"
	TypeMove = "move"
)

// Outbound message types.
const (
	TypeAuthenticated      = "authenticated"
	TypeAuthError          = "auth_error"
	TypeMatchStarted       = "match_started"
	TypeGameState          = "game_state"
	TypeMoveMade           = "move_made"
	TypeGameFinished       = "game_finished"
	TypePlayerDisconnected = "player_disconnected"
	TypeError              = "error"
)

// Envelope is decoded first to route an inbound frame by type.
type Envelope struct {
	Type string `json:"type"`
}

type JoinMessage struct {
	Type       string `json:"type"`
	Credential string `json:"credential"`
	SessionID  string `json:"sessionId"`
}

type MoveMessage struct {
	Type     string        `json:"type"`
	Position game.Position `json:"position"`
}

// Message is any outbound frame.
type Message interface {
	MessageType() string
}

type RosterEntry struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Role          string `json:"role"`
	Connected     bool   `json:"connected"`
}

type Authenticated struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	SessionID     string `json:"sessionId"`
	Role          string `json:"role"`
	SessionStatus string `json:"sessionStatus"`
}

type AuthError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type MatchStarted struct {
	Type            string        `json:"type"`
	SessionID       string        `json:"sessionId"`
	Roster          []RosterEntry `json:"roster"`
	CurrentTurnRole string        `json:"currentTurnRole"`
	YourRole        string        `json:"yourRole"`
}

type GameState struct {
	Type            string        `json:"type"`
	SessionID       string        `json:"sessionId"`
	Status          string        `json:"status"`
	Board           [][]string    `json:"board"`
	CurrentTurnRole string        `json:"currentTurnRole"`
	Roster          []RosterEntry `json:"roster"`
	YourRole        string        `json:"yourRole"`
}

type MoveMade struct {
	Type            string        `json:"type"`
	Position        game.Position `json:"position"`
	MoverRole       string        `json:"moverRole"`
	CurrentTurnRole string        `json:"currentTurnRole"`
	Board           [][]string    `json:"board"`
}

type GameFinished struct {
	Type   string     `json:"type"`
	Winner *string    `json:"winner"`
	Board  [][]string `json:"board"`
	Reason string     `json:"reason,omitempty"`
}

type PlayerDisconnected struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
	Temporary     bool   `json:"temporary"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (Authenticated) MessageType() string      { return TypeAuthenticated }
func (AuthError) MessageType() string          { return TypeAuthError }
func (MatchStarted) MessageType() string       { return TypeMatchStarted }
func (GameState) MessageType() string          { return TypeGameState }
func (MoveMade) MessageType() string           { return TypeMoveMade }
func (GameFinished) MessageType() string       { return TypeGameFinished }
func (PlayerDisconnected) MessageType() string { return TypePlayerDisconnected }
func (Error) MessageType() string              { return TypeError }
