package game

// Outcome is the terminal-state classification of a board.
type Outcome int

const (
	InProgress Outcome = iota
	Win
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

type Result struct {
	Outcome Outcome
	Winner  Role
	Line    []Position
}

// Evaluator decides whether a board is won, drawn or still in progress.
// Implementations must be pure.
type Evaluator interface {
	Evaluate(b *Board) Result
}

// LineEvaluator wins on a full row, column or diagonal held by one role.
// On a 3x3 board this is tic-tac-toe.
type LineEvaluator struct{}

func (LineEvaluator) Evaluate(b *Board) Result {
	for _, line := range lines(b.Size()) {
		first := b.At(line[0])
		if first == RoleNone {
			continue
		}
		won := true
		for _, p := range line[1:] {
			if b.At(p) != first {
				won = false
				break
			}
		}
		if won {
			return Result{Outcome: Win, Winner: first, Line: line}
		}
	}
	if b.Full() {
		return Result{Outcome: Draw}
	}
	return Result{Outcome: InProgress}
}

func lines(n int) [][]Position {
	out := make([][]Position, 0, 2*n+2)
	for r := 0; r < n; r++ {
		row := make([]Position, 0, n)
		for c := 0; c < n; c++ {
			row = append(row, Position{Row: r, Col: c})
		}
		out = append(out, row)
	}
	for c := 0; c < n; c++ {
		col := make([]Position, 0, n)
		for r := 0; r < n; r++ {
			col = append(col, Position{Row: r, Col: c})
		}
		out = append(out, col)
	}
	diag := make([]Position, 0, n)
	anti := make([]Position, 0, n)
	for i := 0; i < n; i++ {
		diag = append(diag, Position{Row: i, Col: i})
		anti = append(anti, Position{Row: i, Col: n - 1 - i})
	}
	return append(out, diag, anti)
}
