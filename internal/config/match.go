package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type MatchConfig struct {
	BoardSize         int `env:"MATCH_BOARD_SIZE" envDefault:"3"`
	GracePeriodMS     int `env:"MATCH_GRACE_PERIOD_MS" envDefault:"30000"`
	RetentionMS       int `env:"MATCH_RETENTION_MS" envDefault:"60000"`
	IdleTTLMS         int `env:"MATCH_IDLE_TTL_MS" envDefault:"7200000"`
	JanitorIntervalMS int `env:"MATCH_JANITOR_INTERVAL_MS" envDefault:"60000"`
	ExternalTimeoutMS int `env:"MATCH_EXTERNAL_TIMEOUT_MS" envDefault:"5000"`
	ResultRetryMax    int `env:"MATCH_RESULT_RETRY_MAX" envDefault:"0"`
	ResultRetryBaseMS int `env:"MATCH_RESULT_RETRY_BASE_MS" envDefault:"500"`
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (c MatchConfig) GracePeriod() time.Duration     { return ms(c.GracePeriodMS) }
func (c MatchConfig) Retention() time.Duration       { return ms(c.RetentionMS) }
func (c MatchConfig) IdleTTL() time.Duration         { return ms(c.IdleTTLMS) }
func (c MatchConfig) JanitorInterval() time.Duration { return ms(c.JanitorIntervalMS) }
func (c MatchConfig) ExternalTimeout() time.Duration { return ms(c.ExternalTimeoutMS) }
func (c MatchConfig) ResultRetryBase() time.Duration { return ms(c.ResultRetryBaseMS) }

func LoadMatch() (MatchConfig, error) {
	var cfg MatchConfig
	if err := env.Parse(&cfg); err != nil {
		return MatchConfig{}, err
	}
	if cfg.BoardSize < 3 || cfg.BoardSize > 10 {
		return MatchConfig{}, fmt.Errorf("MATCH_BOARD_SIZE must be between 3 and 10, got %d", cfg.BoardSize)
	}
	if cfg.GracePeriodMS <= 0 || cfg.RetentionMS <= 0 || cfg.ExternalTimeoutMS <= 0 {
		return MatchConfig{}, fmt.Errorf("match timings must be positive")
	}
	if cfg.ResultRetryMax < 0 {
		return MatchConfig{}, fmt.Errorf("MATCH_RESULT_RETRY_MAX must not be negative")
	}
	return cfg, nil
}
