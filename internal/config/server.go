package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr            string   `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeoutMS   int      `env:"SHUTDOWN_TIMEOUT_MS" envDefault:"10000"`
	ReadHeaderTimeoutMS int      `env:"READ_HEADER_TIMEOUT_MS" envDefault:"5000"`
	AllowedOrigins      []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

func (c ServerConfig) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.ReadHeaderTimeoutMS) * time.Millisecond
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
