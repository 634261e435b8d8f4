package game

import (
	"errors"
	"testing"
)

func TestEngineTopRowWin(t *testing.T) {
	e := NewEngine(3, nil)
	e.Start()
	moves := []struct {
		role Role
		pos  Position
	}{
		{RoleA, Position{0, 0}},
		{RoleB, Position{1, 1}},
		{RoleA, Position{0, 1}},
		{RoleB, Position{2, 2}},
	}
	for i, m := range moves {
		res, err := e.ApplyMove(m.role, m.pos)
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
		if res.Outcome != InProgress {
			t.Fatalf("move %d ended the game early: %+v", i, res)
		}
		if e.Turn != m.role.Opponent() {
			t.Fatalf("move %d: turn = %s, want %s", i, e.Turn, m.role.Opponent())
		}
	}
	res, err := e.ApplyMove(RoleA, Position{0, 2})
	if err != nil {
		t.Fatalf("winning move: %v", err)
	}
	if res.Outcome != Win || res.Winner != RoleA {
		t.Fatalf("expected X win, got %+v", res)
	}
	if e.Turn != RoleA {
		t.Fatalf("turn should be pinned to the winner, got %s", e.Turn)
	}
	if _, err := e.ApplyMove(RoleB, Position{2, 0}); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver after win, got %v", err)
	}
}

func TestEngineRejectsWithoutMutating(t *testing.T) {
	e := NewEngine(3, nil)
	e.Start()
	if _, err := e.ApplyMove(RoleB, Position{0, 0}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := e.ApplyMove(RoleA, Position{3, 0}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := e.ApplyMove(RoleA, Position{1, 1}); err != nil {
		t.Fatalf("valid move: %v", err)
	}
	if _, err := e.ApplyMove(RoleB, Position{1, 1}); !errors.Is(err, ErrCellOccupied) {
		t.Fatalf("expected ErrCellOccupied, got %v", err)
	}
	if e.Board.Occupied() != 1 {
		t.Fatalf("rejected moves changed the board: %d occupied", e.Board.Occupied())
	}
	if e.Turn != RoleB {
		t.Fatalf("rejected moves changed the turn: %s", e.Turn)
	}
}

func TestEngineDraw(t *testing.T) {
	e := NewEngine(3, nil)
	e.Start()
	seq := []Position{{0, 0}, {0, 1}, {0, 2}, {1, 1}, {1, 0}, {1, 2}, {2, 1}, {2, 0}, {2, 2}}
	var res Result
	for i, p := range seq {
		var err error
		res, err = e.ApplyMove(e.Turn, p)
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}
	if res.Outcome != Draw {
		t.Fatalf("expected draw, got %+v", res)
	}
}

func TestBoardCellsNeverRevert(t *testing.T) {
	b := NewBoard(3)
	if err := b.Place(Position{0, 0}, RoleA); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := b.Place(Position{0, 0}, RoleB); !errors.Is(err, ErrCellOccupied) {
		t.Fatalf("expected ErrCellOccupied, got %v", err)
	}
	if b.At(Position{0, 0}) != RoleA {
		t.Fatalf("occupied cell changed to %q", b.At(Position{0, 0}))
	}
	clone := b.Clone()
	_ = clone.Place(Position{1, 1}, RoleB)
	if b.At(Position{1, 1}) != RoleNone {
		t.Fatal("clone shares cells with original")
	}
}
