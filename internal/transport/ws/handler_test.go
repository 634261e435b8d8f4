package wstransport

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"tic-tac-toe-server/internal/identity"
	"tic-tac-toe-server/internal/match"
	"tic-tac-toe-server/internal/protocol"
	"tic-tac-toe-server/internal/results"
)

type frame map[string]any

func (f frame) str(key string) string {
	v, _ := f[key].(string)
	return v
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return startTestServer(t, Options{}, nil)
}

func startTestServer(t *testing.T, opts Options, connState func(net.Conn, http.ConnState)) *httptest.Server {
	t.Helper()
	verifier := identity.VerifierFunc(func(_ context.Context, credential string) (identity.Identity, error) {
		id, ok := strings.CutPrefix(credential, "tok-")
		if !ok {
			return identity.Identity{}, identity.ErrInvalidCredential
		}
		return identity.Identity{ParticipantID: id, DisplayName: "player-" + id}, nil
	})
	coord := match.NewCoordinator(
		match.NewRegistry(3, nil),
		verifier,
		match.NewPipeline(results.LogReporter{}, nil, match.ReportingConfig{}),
		match.Config{GracePeriod: time.Hour, RetentionWindow: time.Hour},
	)
	t.Cleanup(coord.Close)

	srv := httptest.NewUnstartedServer(NewHandler(coord, opts))
	srv.Config.ConnState = connState
	srv.Start()
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.CloseNow() })
	return c
}

func sendJSON(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, c, v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readFrame(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var f frame
	if err := wsjson.Read(ctx, c, &f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

func expectType(t *testing.T, c *websocket.Conn, typ string) frame {
	t.Helper()
	f := readFrame(t, c)
	if f.str("type") != typ {
		t.Fatalf("expected %s frame, got %v", typ, f)
	}
	return f
}

func join(t *testing.T, c *websocket.Conn, id, sessionID string) {
	t.Helper()
	sendJSON(t, c, protocol.JoinMessage{Type: protocol.TypeJoin, Credential: "tok-" + id, SessionID: sessionID})
}

func move(t *testing.T, c *websocket.Conn, row, col int) {
	t.Helper()
	sendJSON(t, c, map[string]any{"type": protocol.TypeMove, "position": map[string]int{"row": row, "col": col}})
}

func TestJoinAndPlayToWin(t *testing.T) {
	srv := newTestServer(t)
	a := dial(t, srv)
	b := dial(t, srv)

	join(t, a, "1", "m1")
	auth := expectType(t, a, protocol.TypeAuthenticated)
	if auth.str("participantId") != "1" || auth.str("sessionStatus") != "forming" || auth.str("role") != "unassigned" {
		t.Fatalf("unexpected authenticated frame: %v", auth)
	}

	join(t, b, "2", "m1")
	expectType(t, b, protocol.TypeAuthenticated)
	startedA := expectType(t, a, protocol.TypeMatchStarted)
	startedB := expectType(t, b, protocol.TypeMatchStarted)
	if startedA.str("yourRole") != "X" || startedB.str("yourRole") != "O" {
		t.Fatalf("unexpected roles: a=%v b=%v", startedA, startedB)
	}
	if startedA.str("currentTurnRole") != "X" {
		t.Fatalf("expected X to move first, got %v", startedA)
	}

	plays := []struct {
		conn     *websocket.Conn
		row, col int
	}{
		{a, 0, 0}, {b, 1, 0}, {a, 0, 1}, {b, 1, 1},
	}
	for _, p := range plays {
		move(t, p.conn, p.row, p.col)
		expectType(t, a, protocol.TypeMoveMade)
		expectType(t, b, protocol.TypeMoveMade)
	}

	move(t, a, 0, 2)
	for _, c := range []*websocket.Conn{a, b} {
		fin := expectType(t, c, protocol.TypeGameFinished)
		if fin.str("winner") != "X" {
			t.Fatalf("expected X to win, got %v", fin)
		}
	}
}

func TestRejectedMoveOnlyReachesMover(t *testing.T) {
	srv := newTestServer(t)
	a := dial(t, srv)
	b := dial(t, srv)
	join(t, a, "1", "m2")
	expectType(t, a, protocol.TypeAuthenticated)
	join(t, b, "2", "m2")
	expectType(t, b, protocol.TypeAuthenticated)
	expectType(t, a, protocol.TypeMatchStarted)
	expectType(t, b, protocol.TypeMatchStarted)

	move(t, b, 0, 0)
	errFrame := expectType(t, b, protocol.TypeError)
	if errFrame.str("message") != "Not your turn" {
		t.Fatalf("unexpected error frame: %v", errFrame)
	}

	move(t, a, 3, 0)
	errFrame = expectType(t, a, protocol.TypeError)
	if errFrame.str("message") != "Invalid position" {
		t.Fatalf("unexpected error frame: %v", errFrame)
	}

	move(t, a, 1, 1)
	made := expectType(t, b, protocol.TypeMoveMade)
	if made.str("moverRole") != "X" {
		t.Fatalf("unexpected move_made: %v", made)
	}
}

func TestAuthErrorClosesConnection(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv)

	sendJSON(t, c, protocol.JoinMessage{Type: protocol.TypeJoin, Credential: "bogus", SessionID: "m3"})
	authErr := expectType(t, c, protocol.TypeAuthError)
	if authErr.str("message") == "" {
		t.Fatalf("expected auth_error message, got %v", authErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, _, err := c.Read(ctx); err == nil {
		t.Fatal("expected connection to be closed after auth_error")
	}
}

func TestMalformedFramesKeepConnectionOpen(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := expectType(t, c, protocol.TypeError); f.str("message") != msgMalformed {
		t.Fatalf("unexpected frame: %v", f)
	}

	sendJSON(t, c, map[string]string{"type": "chat"})
	if f := expectType(t, c, protocol.TypeError); f.str("message") != msgUnknownType {
		t.Fatalf("unexpected frame: %v", f)
	}

	sendJSON(t, c, map[string]string{"type": protocol.TypeMove})
	if f := expectType(t, c, protocol.TypeError); f.str("message") != msgMissingPosition {
		t.Fatalf("unexpected frame: %v", f)
	}

	move(t, c, 0, 0)
	if f := expectType(t, c, protocol.TypeError); f.str("message") != "Not authenticated" {
		t.Fatalf("unexpected frame: %v", f)
	}
}

func TestDisconnectNotifiesOpponentAndRejoinResyncs(t *testing.T) {
	srv := newTestServer(t)
	a := dial(t, srv)
	b := dial(t, srv)
	join(t, a, "1", "m4")
	expectType(t, a, protocol.TypeAuthenticated)
	join(t, b, "2", "m4")
	expectType(t, b, protocol.TypeAuthenticated)
	expectType(t, a, protocol.TypeMatchStarted)
	expectType(t, b, protocol.TypeMatchStarted)

	move(t, a, 1, 1)
	expectType(t, a, protocol.TypeMoveMade)
	expectType(t, b, protocol.TypeMoveMade)

	_ = b.Close(websocket.StatusNormalClosure, "bye")
	gone := expectType(t, a, protocol.TypePlayerDisconnected)
	if gone.str("participantId") != "2" || gone["temporary"] != true {
		t.Fatalf("unexpected player_disconnected: %v", gone)
	}

	b2 := dial(t, srv)
	join(t, b2, "2", "m4")
	auth := expectType(t, b2, protocol.TypeAuthenticated)
	if auth.str("role") != "O" || auth.str("sessionStatus") != "active" {
		t.Fatalf("unexpected authenticated frame: %v", auth)
	}
	state := expectType(t, b2, protocol.TypeGameState)
	raw, _ := json.Marshal(state["board"])
	if !strings.Contains(string(raw), `"X"`) || state.str("currentTurnRole") != "O" {
		t.Fatalf("unexpected game_state: %v", state)
	}
}

func TestStalledReaderIsDisconnected(t *testing.T) {
	// Small socket buffers make the server's writer block on a peer that
	// never reads, so its one-frame queue overflows quickly.
	srv := startTestServer(t, Options{SendBuffer: 1}, func(c net.Conn, state http.ConnState) {
		if tc, ok := c.(*net.TCPConn); ok && state == http.StateNew {
			_ = tc.SetWriteBuffer(1024)
		}
	})
	a := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client := &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			c, err := (&net.Dialer{}).DialContext(ctx, network, addr)
			if tc, ok := c.(*net.TCPConn); ok {
				_ = tc.SetReadBuffer(1024)
			}
			return c, err
		},
	}}
	b, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: client})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = b.CloseNow() })

	join(t, a, "1", "m5")
	expectType(t, a, protocol.TypeAuthenticated)
	join(t, b, "2", "m5")
	expectType(t, a, protocol.TypeMatchStarted)

	// b keeps sending frames that each earn an error reply and reads none.
	flooded := make(chan struct{})
	go func() {
		defer close(flooded)
		payload := []byte(`{"type":"chat","padding":"` + strings.Repeat("x", 512) + `"}`)
		for i := 0; i < 100000; i++ {
			wctx, wcancel := context.WithTimeout(context.Background(), time.Second)
			err := b.Write(wctx, websocket.MessageText, payload)
			wcancel()
			if err != nil {
				return
			}
		}
	}()

	gone := expectType(t, a, protocol.TypePlayerDisconnected)
	if gone.str("participantId") != "2" || gone["temporary"] != true {
		t.Fatalf("unexpected player_disconnected: %v", gone)
	}

	select {
	case <-flooded:
	case <-time.After(5 * time.Second):
		t.Fatal("stalled client's socket was not closed")
	}
}
