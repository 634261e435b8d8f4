package game

// Engine holds the mutable board state of one match and applies moves to it.
// It is not safe for concurrent use; the owning session serializes access.
type Engine struct {
	Board     *Board
	Turn      Role
	Evaluator Evaluator
	Moves     int
	Last      Result
}

func NewEngine(size int, eval Evaluator) *Engine {
	if eval == nil {
		eval = LineEvaluator{}
	}
	return &Engine{Board: NewBoard(size), Evaluator: eval}
}

// Start hands the first turn to RoleA.
func (e *Engine) Start() {
	e.Turn = RoleA
	e.Last = Result{Outcome: InProgress}
}

// ApplyMove validates and applies a move, then evaluates the board.
// On a win the turn is pinned to the winner; otherwise it passes to the opponent.
func (e *Engine) ApplyMove(mover Role, p Position) (Result, error) {
	if e.Last.Outcome != InProgress {
		return e.Last, ErrGameOver
	}
	if err := ValidateMove(e.Board, e.Turn, mover, p); err != nil {
		return Result{Outcome: InProgress}, err
	}
	if err := e.Board.Place(p, mover); err != nil {
		return Result{Outcome: InProgress}, err
	}
	e.Moves++
	res := e.Evaluator.Evaluate(e.Board)
	e.Last = res
	switch res.Outcome {
	case Win:
		e.Turn = res.Winner
	case Draw:
	default:
		e.Turn = mover.Opponent()
	}
	return res, nil
}
