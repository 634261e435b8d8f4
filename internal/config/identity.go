package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	IdentityModeJWT  = "jwt"
	IdentityModeHTTP = "http"
)

type IdentityConfig struct {
	Mode         string `env:"IDENTITY_MODE" envDefault:"jwt"`
	JWTSecret    string `env:"IDENTITY_JWT_SECRET"`
	JWTPublicKey string `env:"IDENTITY_JWT_PUBLIC_KEY"`
	JWTIssuer    string `env:"IDENTITY_JWT_ISSUER"`
	URL          string `env:"IDENTITY_URL"`
	APIKey       string `env:"IDENTITY_API_KEY"`
}

func LoadIdentity() (IdentityConfig, error) {
	var cfg IdentityConfig
	if err := env.Parse(&cfg); err != nil {
		return IdentityConfig{}, err
	}
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	switch cfg.Mode {
	case IdentityModeJWT:
		if strings.TrimSpace(cfg.JWTSecret) == "" && strings.TrimSpace(cfg.JWTPublicKey) == "" {
			return IdentityConfig{}, fmt.Errorf("IDENTITY_JWT_SECRET or IDENTITY_JWT_PUBLIC_KEY is required")
		}
	case IdentityModeHTTP:
		if strings.TrimSpace(cfg.URL) == "" {
			return IdentityConfig{}, fmt.Errorf("IDENTITY_URL is required")
		}
	default:
		return IdentityConfig{}, fmt.Errorf("unknown IDENTITY_MODE %q", cfg.Mode)
	}
	return cfg, nil
}
