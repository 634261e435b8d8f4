package store

import (
	"errors"
	"time"

	"tic-tac-toe-server/internal/results"
)

var ErrNotFound = errors.New("not found")

const (
	EventStart     = "start"
	EventJoin      = "join"
	EventResult    = "result"
	EventAbandoned = "abandoned"
)

type SessionRecord struct {
	ID            string
	StartedAt     time.Time
	ConcludedAt   *time.Time
	Outcome       string
	AbandonReason string
	Participants  []ParticipantRecord
}

type ParticipantRecord struct {
	ParticipantID int64
	JoinedAt      time.Time
	Score         *int
	IsWinner      *bool
}

// outcomeOf classifies a reported result as a win when any entry won.
func outcomeOf(res results.Result) string {
	for _, p := range res.Participants {
		if p.IsWinner {
			return "win"
		}
	}
	return "draw"
}
