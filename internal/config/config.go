package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Scrape    ScrapeConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection parameters. An empty URL means
// run with in-memory storage.
type DatabaseConfig struct {
	URL            string
	MigrationsDir  string
	RunMigrations  bool
	MaxConnections int
}

// AuthConfig holds admin authentication parameters.
type AuthConfig struct {
	JWTSecret         string
	AdminPasswordHash string
	TokenTTL          time.Duration
}

// ScrapeConfig holds collector parameters.
type ScrapeConfig struct {
	Year          int
	GitHubBaseURL string
	SearchBaseURL string
	SearchAPIKey  string
	ActorBaseURL  string
	ActorToken    string
	DayFirstDates bool
}

// SchedulerConfig holds the periodic scrape schedule.
type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultMigrationsDir  = "./migrations"
	defaultMaxConnections = 25

	defaultTokenTTL = 24 * time.Hour

	defaultSearchBaseURL = "https://api.firecrawl.dev"
	defaultActorBaseURL  = "https://api.apify.com"

	defaultScrapeInterval = 24 * time.Hour

	defaultLogFormat = "json"
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			URL:            os.Getenv("DATABASE_URL"),
			MigrationsDir:  getEnv("MIGRATIONS_DIR", defaultMigrationsDir),
			RunMigrations:  getEnvBool("RUN_MIGRATIONS", true),
			MaxConnections: defaultMaxConnections,
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTL:          defaultTokenTTL,
		},
		Scrape: ScrapeConfig{
			Year:          time.Now().UTC().Year(),
			GitHubBaseURL: os.Getenv("CONFERENCE_DATA_BASE_URL"),
			SearchBaseURL: getEnv("SEARCH_BASE_URL", defaultSearchBaseURL),
			SearchAPIKey:  os.Getenv("SEARCH_API_KEY"),
			ActorBaseURL:  getEnv("ACTOR_BASE_URL", defaultActorBaseURL),
			ActorToken:    os.Getenv("ACTOR_TOKEN"),
			DayFirstDates: getEnvBool("DATES_DAY_FIRST", false),
		},
		Scheduler: SchedulerConfig{
			Enabled:  getEnvBool("SCHEDULER_ENABLED", true),
			Interval: defaultScrapeInterval,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("DATABASE_MAX_CONNECTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid DATABASE_MAX_CONNECTIONS: must be a positive integer")
		}
		cfg.Database.MaxConnections = n
	}

	if v := os.Getenv("SCRAPE_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year < 2000 || year > 2100 {
			return Config{}, fmt.Errorf("invalid SCRAPE_YEAR: must be a four-digit year")
		}
		cfg.Scrape.Year = year
	}

	if v := os.Getenv("SCRAPE_INTERVAL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 1 {
			return Config{}, fmt.Errorf("invalid SCRAPE_INTERVAL_HOURS: must be a positive integer")
		}
		cfg.Scheduler.Interval = time.Duration(hours) * time.Hour
	}

	if v := os.Getenv("AUTH_TOKEN_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 1 {
			return Config{}, fmt.Errorf("invalid AUTH_TOKEN_TTL_HOURS: must be a positive integer")
		}
		cfg.Auth.TokenTTL = time.Duration(hours) * time.Hour
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return fallback
	}
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
