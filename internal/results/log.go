package results

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogReporter records lifecycle events in the process log only.
type LogReporter struct{}

func (LogReporter) ReportStart(_ context.Context, sessionID string) error {
	log.Info().Str("session_id", sessionID).Str("call", "report_start").Msg("match started")
	return nil
}

func (LogReporter) ReportJoin(_ context.Context, sessionID string, participantID int64) error {
	log.Info().Str("session_id", sessionID).Int64("participant_id", participantID).Str("call", "report_join").Msg("participant joined")
	return nil
}

func (LogReporter) ReportResult(_ context.Context, sessionID string, result Result) error {
	ev := log.Info().Str("session_id", sessionID).Str("call", "report_result")
	for _, p := range result.Participants {
		if p.IsWinner {
			ev = ev.Int64("winner_id", p.ID)
		}
	}
	ev.Int("participants", len(result.Participants)).Msg("match result")
	return nil
}

func (LogReporter) ReportAbandonment(_ context.Context, sessionID, reason string) error {
	log.Info().Str("session_id", sessionID).Str("call", "report_abandonment").Str("reason", reason).Msg("match abandoned")
	return nil
}
