package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"mongo" validate:"oneof=mongo postgres"`
	MongoURI      string `env:"MONGO_URI" validate:"required_if=StoreDriver mongo"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"goosetrack"`
	DatabaseURL   string `env:"DATABASE_URL" validate:"required_if=StoreDriver postgres"`

	AccessSecret  string        `env:"JWT_SECRET_KEY,required"         validate:"required,min=32,nefield=RefreshSecret"`
	RefreshSecret string        `env:"JWT_SECRET_KEY_REFRESH,required" validate:"required,min=32"`
	AccessTTL     time.Duration `env:"ACCESS_TTL" envDefault:"23h"     validate:"min=1m"`
	RefreshTTL    time.Duration `env:"REFRESH_TTL" envDefault:"168h"   validate:"gtfield=AccessTTL"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"     validate:"required_if=Env production"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET" validate:"required_if=Env production"`
	BaseURL            string `env:"BASE_URL"     envDefault:"http://localhost:8080" validate:"required,url"`
	FrontendURL        string `env:"FRONTEND_URL" envDefault:"http://localhost:3000" validate:"required,url"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`

	CORSOrigins         []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	TrustedProxies      []string `env:"TRUSTED_PROXIES" envSeparator:"," validate:"dive,ip|cidr"`
	RateLimitAuthPerMin int      `env:"RATE_LIMIT_AUTH_PER_MINUTE" envDefault:"20" validate:"min=1"`
	SweepCron           string   `env:"SWEEP_CRON" envDefault:"*/15 * * * *" validate:"required"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OAuthRedirectURL is the callback registered with Google.
func (c *Config) OAuthRedirectURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/api/auth/google-redirect"
}
