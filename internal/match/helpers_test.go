package match

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tic-tac-toe-server/internal/game"
	"tic-tac-toe-server/internal/identity"
	"tic-tac-toe-server/internal/protocol"
	"tic-tac-toe-server/internal/results"
)

type fakeConn struct {
	id string

	mu          sync.Mutex
	msgs        []protocol.Message
	closed      bool
	closeReason string
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(msg protocol.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeConn) Close(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeReason = reason
}

func (f *fakeConn) messages() []protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Message, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func (f *fakeConn) types() []string {
	var out []string
	for _, m := range f.messages() {
		out = append(out, m.MessageType())
	}
	return out
}

func (f *fakeConn) last() protocol.Message {
	msgs := f.messages()
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.msgs = nil
	f.mu.Unlock()
}

// testVerifier accepts "tok-<id>" and yields participant <id>.
var testVerifier = identity.VerifierFunc(func(_ context.Context, credential string) (identity.Identity, error) {
	id, ok := strings.CutPrefix(credential, "tok-")
	if !ok || id == "" {
		return identity.Identity{}, identity.ErrInvalidCredential
	}
	return identity.Identity{ParticipantID: id, DisplayName: "Player " + id}, nil
})

type reportCall struct {
	call          string
	sessionID     string
	participantID int64
	result        results.Result
	reason        string
}

type fakeReporter struct {
	mu         sync.Mutex
	calls      []reportCall
	failStart  int
	failJoin   int
	failResult int
}

func (r *fakeReporter) record(c reportCall, fail *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if *fail > 0 {
		*fail--
		return errors.New("results service unavailable")
	}
	return nil
}

func (r *fakeReporter) ReportStart(_ context.Context, sessionID string) error {
	return r.record(reportCall{call: "start", sessionID: sessionID}, &r.failStart)
}

func (r *fakeReporter) ReportJoin(_ context.Context, sessionID string, participantID int64) error {
	return r.record(reportCall{call: "join", sessionID: sessionID, participantID: participantID}, &r.failJoin)
}

func (r *fakeReporter) ReportResult(_ context.Context, sessionID string, res results.Result) error {
	return r.record(reportCall{call: "result", sessionID: sessionID, result: res}, &r.failResult)
}

func (r *fakeReporter) ReportAbandonment(_ context.Context, sessionID, reason string) error {
	never := 0
	return r.record(reportCall{call: "abandon", sessionID: sessionID, reason: reason}, &never)
}

func (r *fakeReporter) count(call string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.call == call {
			n++
		}
	}
	return n
}

func (r *fakeReporter) lastOf(call string) (reportCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].call == call {
			return r.calls[i], true
		}
	}
	return reportCall{}, false
}

type memLedger struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func (l *memLedger) Claim(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.claimed == nil {
		l.claimed = map[string]bool{}
	}
	if l.claimed[key] {
		return false, nil
	}
	l.claimed[key] = true
	return true, nil
}

func testConfig() Config {
	return Config{
		GracePeriod:     time.Hour,
		RetentionWindow: time.Hour,
		IdleTTL:         time.Hour,
		VerifyTimeout:   time.Second,
	}
}

func newTestCoordinator(t *testing.T, rep results.Reporter, led Ledger, cfg Config) *Coordinator {
	t.Helper()
	c := NewCoordinator(NewRegistry(3, nil), testVerifier, NewPipeline(rep, led, ReportingConfig{Timeout: time.Second}), cfg)
	t.Cleanup(c.Close)
	return c
}

func mustJoin(t *testing.T, c *Coordinator, conn Conn, participantID, sessionID string) {
	t.Helper()
	if err := c.Join(context.Background(), conn, "tok-"+participantID, sessionID); err != nil {
		t.Fatalf("join %s to %s: %v", participantID, sessionID, err)
	}
}

func mustMove(t *testing.T, c *Coordinator, conn Conn, row, col int) {
	t.Helper()
	if err := c.SubmitMove(context.Background(), conn, game.Position{Row: row, Col: col}); err != nil {
		t.Fatalf("move (%d,%d) by %s: %v", row, col, conn.ID(), err)
	}
}

// startMatch joins participants "1" and "2" to sessionID and returns their connections.
func startMatch(t *testing.T, c *Coordinator, sessionID string) (*fakeConn, *fakeConn) {
	t.Helper()
	p1 := newFakeConn("c1-" + sessionID)
	p2 := newFakeConn("c2-" + sessionID)
	mustJoin(t, c, p1, "1", sessionID)
	mustJoin(t, c, p2, "2", sessionID)
	return p1, p2
}

func sessionState(t *testing.T, c *Coordinator, id string) (Status, Outcome, bool) {
	t.Helper()
	s, ok := c.registry.Get(id)
	if !ok {
		return "", "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.outcome, true
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
