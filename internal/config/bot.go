package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	WSURL       string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	Credential  string `env:"BOT_CREDENTIAL"`
	SessionID   string `env:"BOT_SESSION_ID" envDefault:"practice"`
	MoveDelayMS int    `env:"BOT_MOVE_DELAY_MS" envDefault:"250"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
