package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tic-tac-toe-server/internal/results"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store records match lifecycle events in Postgres. It satisfies
// results.Reporter, and every write is idempotent per session.
type Store struct {
	Pool *pgxpool.Pool
}

var _ results.Reporter = (*Store)(nil)

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// Migrate creates the schema when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, postgresSchema)
	return err
}

func (s *Store) ReportStart(ctx context.Context, sessionID string) error {
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		if err := ensureSession(ctx, tx, sessionID); err != nil {
			return err
		}
		// A join may have created the row first; the event is keyed on
		// whether a start was ever recorded.
		var started bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM match_events WHERE session_id = $1 AND kind = $2)`,
			sessionID, EventStart).Scan(&started); err != nil {
			return err
		}
		if started {
			return nil
		}
		return insertEvent(ctx, tx, sessionID, EventStart, nil)
	})
}

func (s *Store) ReportJoin(ctx context.Context, sessionID string, participantID int64) error {
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		if err := ensureSession(ctx, tx, sessionID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO match_participants (session_id, participant_id)
			VALUES ($1, $2)
			ON CONFLICT (session_id, participant_id) DO NOTHING`, sessionID, participantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		return insertEvent(ctx, tx, sessionID, EventJoin, map[string]any{"participantId": participantID})
	})
}

func (s *Store) ReportResult(ctx context.Context, sessionID string, result results.Result) error {
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		if err := ensureSession(ctx, tx, sessionID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE match_sessions SET concluded_at = now(), outcome = $2
			WHERE id = $1 AND concluded_at IS NULL`, sessionID, outcomeOf(result))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		// Unresolved ids collapse onto one row; a winner is never downgraded.
		for _, p := range result.Participants {
			if _, err := tx.Exec(ctx, `
				INSERT INTO match_participants (session_id, participant_id, score, is_winner)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (session_id, participant_id)
				DO UPDATE SET
					score = CASE WHEN EXCLUDED.is_winner OR match_participants.score IS NULL
						THEN EXCLUDED.score ELSE match_participants.score END,
					is_winner = COALESCE(match_participants.is_winner, FALSE) OR EXCLUDED.is_winner`,
				sessionID, p.ID, p.Score, p.IsWinner); err != nil {
				return err
			}
		}
		return insertEvent(ctx, tx, sessionID, EventResult, result)
	})
}

func (s *Store) ReportAbandonment(ctx context.Context, sessionID, reason string) error {
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		if err := ensureSession(ctx, tx, sessionID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE match_sessions SET concluded_at = now(), outcome = 'abandoned', abandon_reason = $2
			WHERE id = $1 AND concluded_at IS NULL`, sessionID, reason)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		return insertEvent(ctx, tx, sessionID, EventAbandoned, map[string]any{"reason": reason})
	})
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (SessionRecord, error) {
	var rec SessionRecord
	err := s.Pool.QueryRow(ctx, `
		SELECT id, started_at, concluded_at, outcome, abandon_reason
		FROM match_sessions WHERE id = $1`, sessionID).
		Scan(&rec.ID, &rec.StartedAt, &rec.ConcludedAt, &rec.Outcome, &rec.AbandonReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return SessionRecord{}, err
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT participant_id, joined_at, score, is_winner
		FROM match_participants WHERE session_id = $1
		ORDER BY joined_at, participant_id`, sessionID)
	if err != nil {
		return SessionRecord{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var p ParticipantRecord
		if err := rows.Scan(&p.ParticipantID, &p.JoinedAt, &p.Score, &p.IsWinner); err != nil {
			return SessionRecord{}, err
		}
		rec.Participants = append(rec.Participants, p)
	}
	return rec, rows.Err()
}

// CountEvents returns how many events of kind were recorded for a session.
func (s *Store) CountEvents(ctx context.Context, sessionID, kind string) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM match_events WHERE session_id = $1 AND kind = $2`, sessionID, kind).Scan(&n)
	return n, err
}

func ensureSession(ctx context.Context, tx pgx.Tx, sessionID string) error {
	_, err := tx.Exec(ctx, `INSERT INTO match_sessions (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, sessionID)
	return err
}

func insertEvent(ctx context.Context, tx pgx.Tx, sessionID, kind string, payload any) error {
	raw := []byte("{}")
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", kind, err)
		}
		raw = b
	}
	_, err := tx.Exec(ctx, `INSERT INTO match_events (id, session_id, kind, payload) VALUES ($1, $2, $3, $4)`,
		NewID("evt"), sessionID, kind, raw)
	return err
}
