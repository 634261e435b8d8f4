package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tic-tac-toe-server/internal/results"

	_ "modernc.org/sqlite"
)

// SQLite is the single-node variant of Store for deployments without Postgres.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ results.Reporter = (*SQLite)(nil)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// OpenSQLite opens path in WAL mode and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) ReportStart(ctx context.Context, sessionID string) error {
	return s.inTx(ctx, func(tx *sql.Tx, now int64) error {
		if err := s.ensureSession(ctx, tx, sessionID, now); err != nil {
			return err
		}
		var started int
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM match_events WHERE session_id = ? AND kind = ?)`,
			sessionID, EventStart).Scan(&started); err != nil {
			return err
		}
		if started != 0 {
			return nil
		}
		return s.insertEvent(ctx, tx, sessionID, EventStart, nil, now)
	})
}

func (s *SQLite) ReportJoin(ctx context.Context, sessionID string, participantID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx, now int64) error {
		if err := s.ensureSession(ctx, tx, sessionID, now); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO match_participants (session_id, participant_id, joined_at) VALUES (?, ?, ?)`,
			sessionID, participantID, now)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return s.insertEvent(ctx, tx, sessionID, EventJoin, map[string]any{"participantId": participantID}, now)
	})
}

func (s *SQLite) ReportResult(ctx context.Context, sessionID string, result results.Result) error {
	return s.inTx(ctx, func(tx *sql.Tx, now int64) error {
		if err := s.ensureSession(ctx, tx, sessionID, now); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE match_sessions SET concluded_at = ?, outcome = ? WHERE id = ? AND concluded_at IS NULL`,
			now, outcomeOf(result), sessionID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		for _, p := range result.Participants {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO match_participants (session_id, participant_id, joined_at, score, is_winner)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (session_id, participant_id)
				DO UPDATE SET
					score = CASE WHEN excluded.is_winner OR match_participants.score IS NULL
						THEN excluded.score ELSE match_participants.score END,
					is_winner = COALESCE(match_participants.is_winner, 0) OR excluded.is_winner`,
				sessionID, p.ID, now, p.Score, p.IsWinner); err != nil {
				return err
			}
		}
		return s.insertEvent(ctx, tx, sessionID, EventResult, result, now)
	})
}

func (s *SQLite) ReportAbandonment(ctx context.Context, sessionID, reason string) error {
	return s.inTx(ctx, func(tx *sql.Tx, now int64) error {
		if err := s.ensureSession(ctx, tx, sessionID, now); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE match_sessions SET concluded_at = ?, outcome = 'abandoned', abandon_reason = ? WHERE id = ? AND concluded_at IS NULL`,
			now, reason, sessionID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return s.insertEvent(ctx, tx, sessionID, EventAbandoned, map[string]any{"reason": reason}, now)
	})
}

func (s *SQLite) GetSession(ctx context.Context, sessionID string) (SessionRecord, error) {
	var (
		rec       SessionRecord
		started   int64
		concluded sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, started_at, concluded_at, outcome, abandon_reason FROM match_sessions WHERE id = ?`, sessionID).
		Scan(&rec.ID, &started, &concluded, &rec.Outcome, &rec.AbandonReason)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return SessionRecord{}, err
	}
	rec.StartedAt = fromMillis(started)
	if concluded.Valid {
		t := fromMillis(concluded.Int64)
		rec.ConcludedAt = &t
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT participant_id, joined_at, score, is_winner
		FROM match_participants WHERE session_id = ?
		ORDER BY joined_at, participant_id`, sessionID)
	if err != nil {
		return SessionRecord{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p      ParticipantRecord
			joined int64
			score  sql.NullInt64
			winner sql.NullBool
		)
		if err := rows.Scan(&p.ParticipantID, &joined, &score, &winner); err != nil {
			return SessionRecord{}, err
		}
		p.JoinedAt = fromMillis(joined)
		if score.Valid {
			v := int(score.Int64)
			p.Score = &v
		}
		if winner.Valid {
			v := winner.Bool
			p.IsWinner = &v
		}
		rec.Participants = append(rec.Participants, p)
	}
	return rec, rows.Err()
}

func (s *SQLite) CountEvents(ctx context.Context, sessionID, kind string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM match_events WHERE session_id = ? AND kind = ?`, sessionID, kind).Scan(&n)
	return n, err
}

func (s *SQLite) inTx(ctx context.Context, fn func(tx *sql.Tx, now int64) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx, toMillis(s.now())); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) ensureSession(ctx context.Context, tx *sql.Tx, sessionID string, now int64) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO match_sessions (id, started_at) VALUES (?, ?)`, sessionID, now)
	return err
}

func (s *SQLite) insertEvent(ctx context.Context, tx *sql.Tx, sessionID, kind string, payload any, now int64) error {
	raw := "{}"
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", kind, err)
		}
		raw = string(b)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO match_events (id, session_id, kind, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		NewID("evt"), sessionID, kind, raw, now)
	return err
}
