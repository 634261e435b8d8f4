package match

import (
	"context"
	"time"

	"tic-tac-toe-server/internal/identity"
)

const (
	DefaultGracePeriod     = 30 * time.Second
	DefaultRetentionWindow = 60 * time.Second
	DefaultIdleTTL         = 2 * time.Hour
	DefaultExternalTimeout = 5 * time.Second
)

type Config struct {
	GracePeriod     time.Duration
	RetentionWindow time.Duration
	IdleTTL         time.Duration
	VerifyTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.GracePeriod <= 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.RetentionWindow <= 0 {
		c.RetentionWindow = DefaultRetentionWindow
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = DefaultIdleTTL
	}
	if c.VerifyTimeout <= 0 {
		c.VerifyTimeout = DefaultExternalTimeout
	}
	return c
}

// Coordinator binds connections to sessions and drives every session
// mutation. Operations on one session are serialized by the session lock;
// operations on different sessions only share the registry lock briefly.
type Coordinator struct {
	registry  *Registry
	verifier  identity.Verifier
	reports   *Pipeline
	scheduler *Scheduler
	cfg       Config
	now       func() time.Time
}

func NewCoordinator(reg *Registry, verifier identity.Verifier, reports *Pipeline, cfg Config) *Coordinator {
	if reg == nil {
		reg = NewRegistry(0, nil)
	}
	if reports == nil {
		reports = NewPipeline(nil, nil, ReportingConfig{})
	}
	return &Coordinator{
		registry:  reg,
		verifier:  verifier,
		reports:   reports,
		scheduler: NewScheduler(),
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

func (c *Coordinator) SessionCount() int {
	return c.registry.Len()
}

// Ping checks the results backend.
func (c *Coordinator) Ping(ctx context.Context) error {
	return c.reports.Ping(ctx)
}

// Close cancels all deferred work. Sessions stay in the registry.
func (c *Coordinator) Close() {
	c.scheduler.Stop()
	c.reports.Close()
}
