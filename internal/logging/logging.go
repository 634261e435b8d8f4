package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tic-tac-toe-server/internal/config"
)

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
	file   *sizeLimitedWriter
)

// Init configures the global zerolog logger. When cfg.File is set, log lines
// are also appended to that file, truncated once it grows past cfg.MaxMB.
func Init(cfg config.LogConfig) error {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var sink io.Writer = os.Stdout
	var fw *sizeLimitedWriter
	if path := strings.TrimSpace(cfg.File); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		w, err := newSizeLimitedWriter(path, cfg.MaxMB)
		if err != nil {
			return err
		}
		fw = w
		sink = io.MultiWriter(os.Stdout, w)
	}

	var console io.Writer = sink
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: sink}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(console).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger

	mu.Lock()
	prev := file
	output = sink
	file = fw
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// Writer returns the raw sink used by the global logger, for libraries that
// bring their own log handler.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

// Close releases the log file, if any.
func Close() error {
	mu.Lock()
	fw := file
	file = nil
	output = os.Stdout
	mu.Unlock()
	if fw == nil {
		return nil
	}
	return fw.Close()
}
