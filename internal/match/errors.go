package match

import (
	"errors"

	"tic-tac-toe-server/internal/game"
)

var (
	ErrNotAuthenticated     = errors.New("not_authenticated")
	ErrInvalidSessionState  = errors.New("invalid_session_state")
	ErrOutOfTurn            = errors.New("out_of_turn")
	ErrOutOfBounds          = errors.New("out_of_bounds")
	ErrCellOccupied         = errors.New("cell_occupied")
	ErrSessionFull          = errors.New("session_full")
	ErrSessionConcluded     = errors.New("session_concluded")
	ErrInvalidSessionID     = errors.New("invalid_session_id")
	ErrAlreadyJoined        = errors.New("already_joined")
	ErrAuthenticationFailed = errors.New("authentication_failed")
)

// ErrorMessage returns the reason string shown to the player for err.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "Not authenticated"
	case errors.Is(err, ErrInvalidSessionState):
		return "Game is not active"
	case errors.Is(err, ErrOutOfTurn):
		return "Not your turn"
	case errors.Is(err, ErrOutOfBounds):
		return "Invalid position"
	case errors.Is(err, ErrCellOccupied):
		return "Cell already occupied"
	case errors.Is(err, ErrSessionFull):
		return "Session is full"
	case errors.Is(err, ErrSessionConcluded):
		return "Session has concluded"
	case errors.Is(err, ErrInvalidSessionID):
		return "Invalid session id"
	case errors.Is(err, ErrAlreadyJoined):
		return "Already joined a session"
	case errors.Is(err, ErrAuthenticationFailed):
		return "Authentication failed"
	default:
		return "Internal error"
	}
}

func mapMoveError(err error) error {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return ErrOutOfTurn
	case errors.Is(err, game.ErrOutOfBounds):
		return ErrOutOfBounds
	case errors.Is(err, game.ErrCellOccupied):
		return ErrCellOccupied
	case errors.Is(err, game.ErrGameOver):
		return ErrInvalidSessionState
	default:
		return err
	}
}
