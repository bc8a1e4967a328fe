// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/survivor.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names
// --------------------------------------------------------------------------

const (
	GamesTable        = "survivor_games"
	ParticipantsTable = "survivor_participants"
	PicksTable        = "survivor_picks"
	RemindersTable    = "survivor_reminders"
)

// Fixture providers selectable with FIXTURE_PROVIDER.
const (
	ProviderAPIFootball = "apifootball"
	ProviderSportMonks  = "sportmonks"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Fixture provider
	FixtureProvider           string
	APIFootballKey            string
	APIFootballBaseURL        string
	SportMonksAPIToken        string
	ProviderRequestsPerMinute int
	ProviderTimeout           time.Duration

	// Cache
	CacheEnabled    bool
	FixtureCacheTTL time.Duration

	// Survivor jobs
	EliminationInterval time.Duration
	EliminationWorkers  int
	ReminderInterval    time.Duration
	ReminderWindow      time.Duration
	GameLocation        *time.Location

	// Events
	NATSURL   string
	NATSToken string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	tz := envOr("GAME_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load GAME_TIMEZONE %q: %w", tz, err)
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  envDuration("DB_POOL_MAX_LIFE_MINUTES", 30, time.Minute),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", 60, time.Second),

		FixtureProvider:           strings.ToLower(envOr("FIXTURE_PROVIDER", ProviderAPIFootball)),
		APIFootballKey:            envOr("API_FOOTBALL_KEY", ""),
		APIFootballBaseURL:        envOr("API_FOOTBALL_BASE_URL", ""),
		SportMonksAPIToken:        envOr("SPORTMONKS_API_TOKEN", ""),
		ProviderRequestsPerMinute: envInt("PROVIDER_REQUESTS_PER_MINUTE", 30),
		ProviderTimeout:           envDuration("PROVIDER_TIMEOUT_SECONDS", 15, time.Second),

		CacheEnabled:    envBool("CACHE_ENABLED", true),
		FixtureCacheTTL: envDuration("FIXTURE_CACHE_TTL_MINUTES", 30, time.Minute),

		EliminationInterval: envDuration("ELIMINATION_INTERVAL_MINUTES", 60, time.Minute),
		EliminationWorkers:  envInt("ELIMINATION_WORKERS", 4),
		ReminderInterval:    envDuration("REMINDER_INTERVAL_MINUTES", 60, time.Minute),
		ReminderWindow:      envDuration("REMINDER_WINDOW_HOURS", 24, time.Hour),
		GameLocation:        loc,

		NATSURL:   envOr("NATS_URL", ""),
		NATSToken: envOr("NATS_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.FixtureProvider {
	case ProviderAPIFootball, ProviderSportMonks:
	default:
		return fmt.Errorf("FIXTURE_PROVIDER must be %q or %q, got %q",
			ProviderAPIFootball, ProviderSportMonks, c.FixtureProvider)
	}
	if c.EliminationWorkers < 1 {
		return fmt.Errorf("ELIMINATION_WORKERS must be at least 1")
	}
	// A fixture result older than one elimination cycle would let the job
	// write from stale data twice.
	if c.EliminationInterval < c.FixtureCacheTTL {
		return fmt.Errorf("ELIMINATION_INTERVAL_MINUTES (%s) must not be shorter than FIXTURE_CACHE_TTL_MINUTES (%s)",
			c.EliminationInterval, c.FixtureCacheTTL)
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ProviderKey returns the credential of the selected fixture provider.
func (c *Config) ProviderKey() string {
	if c.FixtureProvider == ProviderSportMonks {
		return c.SportMonksAPIToken
	}
	return c.APIFootballKey
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration reads an integer count of unit.
func envDuration(key string, fallback int, unit time.Duration) time.Duration {
	return time.Duration(envInt(key, fallback)) * unit
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
