package config

import "github.com/caarlos0/env/v11"

type TelemetryConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"tic-tac-toe-server"`
}

func LoadTelemetry() (TelemetryConfig, error) {
	var cfg TelemetryConfig
	err := env.Parse(&cfg)
	return cfg, err
}
