package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`
	File        string `env:"LOG_FILE"`
	MaxMB       int    `env:"LOG_MAX_MB" envDefault:"10"`
}

func LoadLog() (LogConfig, error) {
	var cfg LogConfig
	if err := env.Parse(&cfg); err != nil {
		return LogConfig{}, err
	}
	cfg.Level = strings.ToLower(strings.TrimSpace(cfg.Level))
	if cfg.SampleEvery < 0 {
		return LogConfig{}, fmt.Errorf("LOG_SAMPLE_EVERY must not be negative")
	}
	if cfg.File != "" && cfg.MaxMB <= 0 {
		return LogConfig{}, fmt.Errorf("LOG_MAX_MB must be positive when LOG_FILE is set")
	}
	return cfg, nil
}
