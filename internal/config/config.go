package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	RiotAPIKey    string  `env:"RIOT_API_KEY"`
	RiotPlatform  string  `env:"RIOT_PLATFORM" envDefault:"euw1"`
	RiotRegion    string  `env:"RIOT_REGION" envDefault:"europe"`
	RiotRateLimit float64 `env:"RIOT_RATE_LIMIT" envDefault:"20"`
	RiotRateBurst int     `env:"RIOT_RATE_BURST" envDefault:"100"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBDSN    string `env:"DB_DSN" envDefault:"tracker.db"`

	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	RedisURL string        `env:"REDIS_URL"`
	RedisTTL time.Duration `env:"REDIS_TTL" envDefault:"30m"`

	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT" envDefault:"tracker.events"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_driver", cfg.DBDriver).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("riot_platform", cfg.RiotPlatform).
		Bool("redis", cfg.RedisURL != "").
		Bool("nats", cfg.NATSURL != "").
		Msg("configuration loaded")

	return cfg, nil
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.RiotAPIKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY is required")
	}
	switch cfg.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.RiotRateLimit <= 0 || cfg.RiotRateBurst <= 0 {
		return nil, fmt.Errorf("RIOT_RATE_LIMIT and RIOT_RATE_BURST must be positive")
	}
	return cfg, nil
}

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var Module = fx.Provide(Load)
