package match

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"tic-tac-toe-server/internal/game"
	"tic-tac-toe-server/internal/results"

	"github.com/rs/zerolog/log"
)

// Ledger records which one-shot deliveries have been claimed. A false return
// means another caller already owns the delivery.
type Ledger interface {
	Claim(ctx context.Context, key string) (bool, error)
}

type ReportingConfig struct {
	Timeout   time.Duration
	RetryMax  int
	RetryBase time.Duration
}

// Pipeline is the only component that talks to the results service. Every
// call is bounded by a timeout and no failure is returned to the caller:
// local bookkeeping is updated and the failure is logged and counted.
type Pipeline struct {
	reporter results.Reporter
	ledger   Ledger
	cfg      ReportingConfig

	done      chan struct{}
	closeOnce sync.Once
}

func NewPipeline(reporter results.Reporter, ledger Ledger, cfg ReportingConfig) *Pipeline {
	if reporter == nil {
		reporter = results.LogReporter{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultExternalTimeout
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	return &Pipeline{reporter: reporter, ledger: ledger, cfg: cfg, done: make(chan struct{})}
}

// Close abandons pending background retries.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Ping reports the health of the results backend when it supports it.
func (p *Pipeline) Ping(ctx context.Context) error {
	if pinger, ok := p.reporter.(results.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// reportStartLocked fires at most once per session. The start time is
// recorded even when the call fails so gameplay is never blocked on it.
func (p *Pipeline) reportStartLocked(ctx context.Context, s *Session, now time.Time) {
	if !s.startedAt.IsZero() {
		return
	}
	s.startedAt = now
	if !p.claim(ctx, "start:"+s.ID) {
		s.startReported = true
		return
	}
	err := p.call(ctx, s.ID, "", "report_start", func(ctx context.Context) error {
		return p.reporter.ReportStart(ctx, s.ID)
	})
	s.startReported = err == nil
}

func (p *Pipeline) reportJoinLocked(ctx context.Context, s *Session, part *Participant) {
	id := reporterID(s.ID, part.ID)
	err := p.call(ctx, s.ID, part.ID, "report_join", func(ctx context.Context) error {
		return p.reporter.ReportJoin(ctx, s.ID, id)
	})
	part.joinReported = err == nil
}

// reportResultLocked delivers the final outcome. Missing start and join
// reports are retried once first since some backends reject results for
// matches they never saw start.
func (p *Pipeline) reportResultLocked(ctx context.Context, s *Session, res results.Result) {
	s.resultAttempt = true
	if !s.startReported {
		err := p.call(ctx, s.ID, "", "report_start", func(ctx context.Context) error {
			return p.reporter.ReportStart(ctx, s.ID)
		})
		s.startReported = err == nil
	}
	for _, part := range s.orderedLocked() {
		if !part.joinReported {
			p.reportJoinLocked(ctx, s, part)
		}
	}
	if !p.claim(ctx, "result:"+s.ID) {
		return
	}
	err := p.call(ctx, s.ID, "", "report_result", func(ctx context.Context) error {
		return p.reporter.ReportResult(ctx, s.ID, res)
	})
	if err != nil && p.cfg.RetryMax > 0 {
		p.retryResult(s.ID, res, 1)
	}
}

// reportAbandonmentLocked is best effort; the outcome is not tracked.
func (p *Pipeline) reportAbandonmentLocked(ctx context.Context, s *Session, reason string) {
	s.resultAttempt = true
	if !p.claim(ctx, "result:"+s.ID) {
		return
	}
	_ = p.call(ctx, s.ID, "", "report_abandonment", func(ctx context.Context) error {
		return p.reporter.ReportAbandonment(ctx, s.ID, reason)
	})
}

func (p *Pipeline) retryResult(sessionID string, res results.Result, attempt int) {
	delay := p.cfg.RetryBase << (attempt - 1)
	time.AfterFunc(delay, func() {
		select {
		case <-p.done:
			return
		default:
		}
		err := p.call(context.Background(), sessionID, "", "report_result", func(ctx context.Context) error {
			return p.reporter.ReportResult(ctx, sessionID, res)
		})
		if err != nil && attempt < p.cfg.RetryMax {
			p.retryResult(sessionID, res, attempt+1)
		}
	})
}

func (p *Pipeline) call(ctx context.Context, sessionID, participantID, call string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.Timeout)
	defer cancel()
	metricReportAttempts.Add(1)
	err := fn(ctx)
	if err != nil {
		metricReportFailures.Add(1)
		ev := log.Warn().Err(err).Str("session_id", sessionID).Str("call", call)
		if participantID != "" {
			ev = ev.Str("participant_id", participantID)
		}
		ev.Msg("results report failed")
	}
	return err
}

// claim fails open: a ledger outage must not suppress the only delivery attempt.
func (p *Pipeline) claim(ctx context.Context, key string) bool {
	if p.ledger == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.Timeout)
	defer cancel()
	ok, err := p.ledger.Claim(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("ledger claim failed, delivering anyway")
		return true
	}
	if !ok {
		metricReportSkipped.Add(1)
		log.Info().Str("key", key).Msg("report already claimed, skipping")
	}
	return ok
}

// reporterID converts an opaque participant id to the numeric id the results
// service expects. Malformed ids are reported as 0.
func reporterID(sessionID, participantID string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(participantID), 10, 64)
	if err != nil {
		log.Warn().Str("session_id", sessionID).Str("participant_id", participantID).Msg("participant id is not numeric, reporting as 0")
		return 0
	}
	return n
}

func buildResultLocked(s *Session) results.Result {
	ps := s.orderedLocked()
	out := results.Result{Participants: make([]results.ParticipantResult, 0, len(ps))}
	for _, part := range ps {
		won := s.outcome == OutcomeWin && part.Role == s.winner && s.winner != game.RoleNone
		score := 0
		if won {
			score = 1
		}
		out.Participants = append(out.Participants, results.ParticipantResult{
			ID:       reporterID(s.ID, part.ID),
			Score:    score,
			IsWinner: won,
		})
	}
	return out
}
