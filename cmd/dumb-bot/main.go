package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tic-tac-toe-server/internal/config"
	"tic-tac-toe-server/internal/game"
	"tic-tac-toe-server/internal/logging"
	"tic-tac-toe-server/internal/protocol"
)

// frame is the union of the server frames the bot reads.
type frame struct {
	Type            string     `json:"type"`
	Message         string     `json:"message"`
	YourRole        string     `json:"yourRole"`
	Role            string     `json:"role"`
	CurrentTurnRole string     `json:"currentTurnRole"`
	Board           [][]string `json:"board"`
	Winner          *string    `json:"winner"`
	Reason          string     `json:"reason"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	// Flags still need defaults to register against; a bad environment is
	// reported when the command runs.
	cfg, loadErr := config.LoadBot()
	if loadErr != nil {
		cfg = config.BotConfig{WSURL: "ws://localhost:8080/ws", SessionID: "practice", MoveDelayMS: 250}
	}

	cmd := &cobra.Command{
		Use:   "dumb-bot",
		Short: "Join a match and play random legal moves",
		Long: `dumb-bot connects to the game server over WebSocket, joins a session
with the given credential and answers every turn with a random empty cell.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if loadErr != nil {
				return fmt.Errorf("load bot config: %w", loadErr)
			}
			logCfg, err := config.LoadLog()
			if err != nil {
				return err
			}
			if err := logging.Init(logCfg); err != nil {
				return err
			}
			if cfg.Credential == "" {
				return errors.New("credential is required (--credential or BOT_CREDENTIAL)")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&cfg.WSURL, "url", cfg.WSURL, "WebSocket URL (env: WS_URL)")
	cmd.Flags().StringVar(&cfg.Credential, "credential", cfg.Credential, "Credential presented on join (env: BOT_CREDENTIAL)")
	cmd.Flags().StringVar(&cfg.SessionID, "session", cfg.SessionID, "Session id to join (env: BOT_SESSION_ID)")
	cmd.Flags().IntVar(&cfg.MoveDelayMS, "delay-ms", cfg.MoveDelayMS, "Pause before each move (env: BOT_MOVE_DELAY_MS)")
	return cmd
}

func run(ctx context.Context, cfg config.BotConfig, rnd *rand.Rand) error {
	conn, _, err := websocket.Dial(ctx, cfg.WSURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.WSURL, err)
	}
	defer conn.CloseNow()

	join := protocol.JoinMessage{Type: protocol.TypeJoin, Credential: cfg.Credential, SessionID: cfg.SessionID}
	if err := wsjson.Write(ctx, conn, join); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	var role string
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		switch f.Type {
		case protocol.TypeAuthError:
			return fmt.Errorf("authentication failed: %s", f.Message)
		case protocol.TypeAuthenticated:
			role = f.Role
			log.Info().Str("session_id", cfg.SessionID).Str("role", role).Msg("joined")
			continue
		case protocol.TypeMatchStarted, protocol.TypeGameState:
			role = f.YourRole
		case protocol.TypeMoveMade:
		case protocol.TypeGameFinished:
			winner := "draw"
			if f.Winner != nil {
				winner = *f.Winner
			}
			log.Info().Str("winner", winner).Str("reason", f.Reason).Str("role", role).Msg("game finished")
			_ = conn.Close(websocket.StatusNormalClosure, "game finished")
			return nil
		case protocol.TypeError:
			log.Warn().Str("message", f.Message).Msg("server rejected request")
			continue
		default:
			continue
		}

		if f.CurrentTurnRole != role || f.Board == nil {
			continue
		}
		pos, ok := pickMove(rnd, f.Board)
		if !ok {
			continue
		}
		if cfg.MoveDelayMS > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(cfg.MoveDelayMS) * time.Millisecond):
			}
		}
		if err := wsjson.Write(ctx, conn, protocol.MoveMessage{Type: protocol.TypeMove, Position: pos}); err != nil {
			return fmt.Errorf("send move: %w", err)
		}
		log.Debug().Str("position", pos.String()).Msg("move sent")
	}
}

// pickMove returns a random empty cell.
func pickMove(rnd *rand.Rand, board [][]string) (game.Position, bool) {
	var empty []game.Position
	for r, row := range board {
		for c, cell := range row {
			if cell == "" {
				empty = append(empty, game.Position{Row: r, Col: c})
			}
		}
	}
	if len(empty) == 0 {
		return game.Position{}, false
	}
	return empty[rnd.Intn(len(empty))], true
}
