package viewmodel

import "tic-tac-toe-server/internal/game"

const UnassignedRole = "unassigned"

// BoardView renders the grid as rows of role strings; empty cells are "".
func BoardView(b *game.Board) [][]string {
	if b == nil {
		return [][]string{}
	}
	rows := b.Rows()
	out := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(row))
		for j, cell := range row {
			line[j] = string(cell)
		}
		out[i] = line
	}
	return out
}

// RoleView returns the wire form of a role, "unassigned" when no role is held.
func RoleView(r game.Role) string {
	if !r.Valid() {
		return UnassignedRole
	}
	return string(r)
}

// OptionalRole returns nil for RoleNone, used where the wire format expects null.
func OptionalRole(r game.Role) *string {
	if !r.Valid() {
		return nil
	}
	s := string(r)
	return &s
}
