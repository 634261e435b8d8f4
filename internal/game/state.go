package game

import "fmt"

// Role is the marker a participant places on the board.
type Role string

const (
	RoleNone Role = ""
	RoleA    Role = "X"
	RoleB    Role = "O"
)

// Opponent returns the other role. RoleNone has no opponent.
func (r Role) Opponent() Role {
	switch r {
	case RoleA:
		return RoleB
	case RoleB:
		return RoleA
	default:
		return RoleNone
	}
}

func (r Role) Valid() bool {
	return r == RoleA || r == RoleB
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

const DefaultBoardSize = 3

// Board is a square grid of cells. A cell holds RoleNone while empty.
type Board struct {
	size  int
	cells []Role
}

func NewBoard(size int) *Board {
	if size <= 0 {
		size = DefaultBoardSize
	}
	return &Board{size: size, cells: make([]Role, size*size)}
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < b.size && p.Col >= 0 && p.Col < b.size
}

func (b *Board) At(p Position) Role {
	if !b.InBounds(p) {
		return RoleNone
	}
	return b.cells[p.Row*b.size+p.Col]
}

// Place writes role into an empty cell. Occupied cells are never overwritten.
func (b *Board) Place(p Position, role Role) error {
	if !b.InBounds(p) {
		return ErrOutOfBounds
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	idx := p.Row*b.size + p.Col
	if b.cells[idx] != RoleNone {
		return ErrCellOccupied
	}
	b.cells[idx] = role
	return nil
}

func (b *Board) Full() bool {
	for _, c := range b.cells {
		if c == RoleNone {
			return false
		}
	}
	return true
}

func (b *Board) Occupied() int {
	n := 0
	for _, c := range b.cells {
		if c != RoleNone {
			n++
		}
	}
	return n
}

// Rows returns a copy of the grid, row-major.
func (b *Board) Rows() [][]Role {
	out := make([][]Role, b.size)
	for r := 0; r < b.size; r++ {
		row := make([]Role, b.size)
		copy(row, b.cells[r*b.size:(r+1)*b.size])
		out[r] = row
	}
	return out
}

func (b *Board) Clone() *Board {
	cells := make([]Role, len(b.cells))
	copy(cells, b.cells)
	return &Board{size: b.size, cells: cells}
}
