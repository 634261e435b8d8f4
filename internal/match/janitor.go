package match

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartJanitor periodically removes sessions with no activity for longer
// than the idle TTL. It stops when ctx is cancelled.
func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := c.sweepIdle(ctx, now); n > 0 {
					log.Info().Int("removed", n).Msg("idle sessions swept")
				}
			}
		}
	}()
}

func (c *Coordinator) sweepIdle(ctx context.Context, now time.Time) int {
	removed := 0
	for _, s := range c.registry.Sessions() {
		s.mu.Lock()
		if !s.removed && now.Sub(s.lastActivityAt) > c.cfg.IdleTTL {
			if s.status == StatusActive {
				c.abandonLocked(ctx, s, "idle_timeout")
				c.broadcastLocked(s, finishedMessage(s), "")
			}
			c.deleteLocked(s, "idle_timeout")
			removed++
		}
		s.mu.Unlock()
	}
	return removed
}
