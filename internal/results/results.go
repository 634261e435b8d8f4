package results

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("results_backend_not_configured")

// ParticipantResult is one roster entry of a final report. IDs are numeric
// because that is what the results service keys participants by.
type ParticipantResult struct {
	ID       int64 `json:"id"`
	Score    int   `json:"score"`
	IsWinner bool  `json:"isWinner"`
}

type Result struct {
	Participants []ParticipantResult `json:"participants"`
}

// Reporter is the boundary to the results service. Every call may fail
// independently and callers must not rely on ordering between calls.
type Reporter interface {
	ReportStart(ctx context.Context, sessionID string) error
	ReportJoin(ctx context.Context, sessionID string, participantID int64) error
	ReportResult(ctx context.Context, sessionID string, result Result) error
	ReportAbandonment(ctx context.Context, sessionID, reason string) error
}

// Pinger is implemented by backends that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}
