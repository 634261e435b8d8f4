package game

import "errors"

var (
	ErrNotYourTurn  = errors.New("not_your_turn")
	ErrOutOfBounds  = errors.New("out_of_bounds")
	ErrCellOccupied = errors.New("cell_occupied")
	ErrInvalidRole  = errors.New("invalid_role")
	ErrGameOver     = errors.New("game_over")
)

// ValidateMove checks a move against the board and turn owner without mutating anything.
func ValidateMove(b *Board, turn, mover Role, p Position) error {
	if !mover.Valid() {
		return ErrInvalidRole
	}
	if mover != turn {
		return ErrNotYourTurn
	}
	if !b.InBounds(p) {
		return ErrOutOfBounds
	}
	if b.At(p) != RoleNone {
		return ErrCellOccupied
	}
	return nil
}
