// Package config содержит логику чтения конфигурации сервиса приёма возвратов.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress         string        `env:"RUN_ADDRESS"`
	Port               string        `env:"PORT"`
	DatabaseURI        string        `env:"DATABASE_URI"`
	SessionSecret      string        `env:"SESSION_SECRET"`
	StorePingTimeout   time.Duration `env:"STORE_PING_TIMEOUT"`
	ExposeErrorDetails bool          `env:"EXPOSE_ERROR_DETAILS"`
	AuthRateLimit      float64       `env:"AUTH_RATE_LIMIT"`
	AuthRateBurst      int           `env:"AUTH_RATE_BURST"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами. PORT задаёт порт на всех
// интерфейсах, если RUN_ADDRESS не указан.
func Parse() (*Config, error) {
	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", "localhost:10000", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, in-memory store when empty")
	flag.StringVar(&cfg.SessionSecret, "s", "", "session token signing key")
	flag.DurationVar(&cfg.StorePingTimeout, "p", 2*time.Second, "store health check timeout")
	flag.BoolVar(&cfg.ExposeErrorDetails, "x", true, "include diagnostic details in 5xx responses")
	flag.Float64Var(&cfg.AuthRateLimit, "rl", 5, "auth requests per second")
	flag.IntVar(&cfg.AuthRateBurst, "rb", 10, "auth requests burst")

	flag.Parse()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if _, ok := os.LookupEnv("RUN_ADDRESS"); !ok && cfg.Port != "" {
		cfg.RunAddress = ":" + cfg.Port
	}
	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:10000"
	}
	if cfg.StorePingTimeout <= 0 {
		return nil, fmt.Errorf("store ping timeout must be positive, got %s", cfg.StorePingTimeout)
	}
	if cfg.AuthRateLimit <= 0 || cfg.AuthRateBurst <= 0 {
		return nil, fmt.Errorf("auth rate limit and burst must be positive")
	}

	return cfg, nil
}
