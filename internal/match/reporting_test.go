package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"tic-tac-toe-server/internal/protocol"
)

func TestReportingFailuresNeverReachPlayers(t *testing.T) {
	rep := &fakeReporter{failStart: 1, failJoin: 1, failResult: 1}
	c := newTestCoordinator(t, rep, nil, testConfig())
	x, o := startMatch(t, c, "m1")

	s, _ := c.registry.Get("m1")
	s.mu.Lock()
	startReported := s.startReported
	started := !s.startedAt.IsZero()
	firstJoinReported := s.participants["1"].joinReported
	secondJoinReported := s.participants["2"].joinReported
	s.mu.Unlock()
	if startReported || !started {
		t.Fatalf("failed start must still record start time: reported=%v started=%v", startReported, started)
	}
	if firstJoinReported || !secondJoinReported {
		t.Fatalf("join reporting flags wrong: first=%v second=%v", firstJoinReported, secondJoinReported)
	}

	playTopRowWin(t, c, x, o)

	for _, conn := range []*fakeConn{x, o} {
		for _, m := range conn.messages() {
			if m.MessageType() == protocol.TypeError {
				t.Fatalf("%s: reporting failure surfaced to player: %+v", conn.ID(), m)
			}
		}
		if _, ok := conn.last().(protocol.GameFinished); !ok {
			t.Fatalf("%s: expected game_finished despite failed report", conn.ID())
		}
	}
	status, _, _ := sessionState(t, c, "m1")
	if status != StatusConcluded {
		t.Fatalf("session must conclude regardless of report outcome, got %s", status)
	}
	if rep.count("start") != 2 {
		t.Fatalf("expected start retried once before result, got %d", rep.count("start"))
	}
	if rep.count("join") != 3 {
		t.Fatalf("expected unregistered participant join retried once, got %d", rep.count("join"))
	}
	if rep.count("result") != 1 {
		t.Fatalf("expected a single result attempt without retry policy, got %d", rep.count("result"))
	}
}

func TestResultReportRetriedInBackground(t *testing.T) {
	rep := &fakeReporter{failResult: 2}
	reg := NewRegistry(3, nil)
	pipe := NewPipeline(rep, nil, ReportingConfig{Timeout: time.Second, RetryMax: 3, RetryBase: 5 * time.Millisecond})
	c := NewCoordinator(reg, testVerifier, pipe, testConfig())
	t.Cleanup(c.Close)

	x, o := startMatch(t, c, "m1")
	playTopRowWin(t, c, x, o)

	waitFor(t, time.Second, "result delivered on third attempt", func() bool {
		return rep.count("result") == 3
	})
	time.Sleep(50 * time.Millisecond)
	if n := rep.count("result"); n != 3 {
		t.Fatalf("retries must stop after success, got %d attempts", n)
	}
}

func TestLedgerClaimSuppressesDuplicateDelivery(t *testing.T) {
	rep := &fakeReporter{}
	led := &memLedger{claimed: map[string]bool{"start:m1": true, "result:m1": true}}
	c := newTestCoordinator(t, rep, led, testConfig())
	x, o := startMatch(t, c, "m1")
	playTopRowWin(t, c, x, o)

	if rep.count("start") != 0 || rep.count("result") != 0 {
		t.Fatalf("claimed deliveries must be skipped: start=%d result=%d", rep.count("start"), rep.count("result"))
	}
	if rep.count("join") != 2 {
		t.Fatalf("joins are not ledger guarded, got %d", rep.count("join"))
	}
	if _, ok := x.last().(protocol.GameFinished); !ok {
		t.Fatal("players still see the outcome")
	}
}

func TestLedgerErrorFailsOpen(t *testing.T) {
	rep := &fakeReporter{}
	led := &memLedger{err: errors.New("redis down")}
	c := newTestCoordinator(t, rep, led, testConfig())
	x, o := startMatch(t, c, "m1")
	playTopRowWin(t, c, x, o)

	if rep.count("start") != 1 || rep.count("result") != 1 {
		t.Fatalf("ledger outage must not block delivery: start=%d result=%d", rep.count("start"), rep.count("result"))
	}
}

func TestNonNumericParticipantReportedAsZero(t *testing.T) {
	rep := &fakeReporter{}
	c := newTestCoordinator(t, rep, nil, testConfig())
	x := newFakeConn("cx")
	o := newFakeConn("co")
	if err := c.Join(context.Background(), x, "tok-alice", "m1"); err != nil {
		t.Fatalf("join alice: %v", err)
	}
	mustJoin(t, c, o, "77", "m1")
	playTopRowWin(t, c, x, o)

	res, ok := rep.lastOf("result")
	if !ok {
		t.Fatal("expected result report")
	}
	if res.result.Participants[0].ID != 0 || !res.result.Participants[0].IsWinner {
		t.Fatalf("malformed id should be reported as 0: %+v", res.result.Participants[0])
	}
	if res.result.Participants[1].ID != 77 {
		t.Fatalf("numeric id should be preserved: %+v", res.result.Participants[1])
	}
	join, _ := rep.lastOf("join")
	if join.participantID != 77 {
		t.Fatalf("unexpected join id %d", join.participantID)
	}
}

func TestReporterIDParsing(t *testing.T) {
	cases := map[string]int64{"42": 42, " 7 ": 7, "-3": -3, "abc": 0, "": 0, "99999999999999999999": 0}
	for in, want := range cases {
		if got := reporterID("m", in); got != want {
			t.Fatalf("reporterID(%q) = %d, want %d", in, got, want)
		}
	}
}
