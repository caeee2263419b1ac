package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// SearchConfig tunes the search engine.
type SearchConfig struct {
	// Rows read from the listing repository per round trip. A search reads
	// batches until every matching listing has been fetched.
	BatchSize int `env:"SEARCH_BATCH_SIZE" envDefault:"500"`

	// Each occupancy lookup is cancelled after this long and treated as failed.
	OccupancyTimeout time.Duration `env:"SEARCH_OCCUPANCY_TIMEOUT" envDefault:"3s"`

	// Quiet window before a live session runs the latest filters.
	Debounce time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"500ms"`

	// Live sessions idle longer than this are evicted.
	SessionTTL time.Duration `env:"SEARCH_SESSION_TTL" envDefault:"15m"`

	// Live sessions held at once. Creation fails with 503 beyond this.
	MaxSessions int `env:"SEARCH_MAX_SESSIONS" envDefault:"1000"`

	// Slider maxima. A ceiling equal to these means "no price filter".
	DayPriceMax   float64 `env:"SEARCH_DAY_PRICE_MAX" envDefault:"500"`
	MonthPriceMax float64 `env:"SEARCH_MONTH_PRICE_MAX" envDefault:"5000"`
}

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"dev"`
	ProdOrigins string `env:"PROD_ORIGINS"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DBDSN       string `env:"DB_DSN,required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Create the read model tables on startup when they are missing.
	DBAutoMigrate bool `env:"DB_AUTO_MIGRATE" envDefault:"false"`

	Search SearchConfig
}

// IsProduction reports whether APP_ENV selects the production profile.
func (c *Config) IsProduction() bool {
	return c.AppEnv == PROD_STRING
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config failed: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	// Database DSN is required
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("invalid DB_MAX_CONNS: %d", c.DBMaxConns)
	}
	if c.Search.BatchSize < 1 {
		return fmt.Errorf("invalid SEARCH_BATCH_SIZE: %d", c.Search.BatchSize)
	}
	if c.Search.OccupancyTimeout <= 0 {
		return fmt.Errorf("invalid SEARCH_OCCUPANCY_TIMEOUT: %s", c.Search.OccupancyTimeout)
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("invalid SEARCH_DEBOUNCE: %s", c.Search.Debounce)
	}
	if c.Search.SessionTTL <= 0 {
		return fmt.Errorf("invalid SEARCH_SESSION_TTL: %s", c.Search.SessionTTL)
	}
	if c.Search.MaxSessions < 1 {
		return fmt.Errorf("invalid SEARCH_MAX_SESSIONS: %d", c.Search.MaxSessions)
	}
	if c.Search.DayPriceMax <= 0 || c.Search.MonthPriceMax <= 0 {
		return fmt.Errorf("price slider maxima must be positive")
	}
	return nil
}
