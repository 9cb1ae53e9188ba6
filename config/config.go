package config

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DASHBOARD"

var identRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Data     DataConfig     `envconfig:"DATA"`
	Postgres PostgresConfig `envconfig:"POSTGRES"`
	Server   ServerConfig   `envconfig:"SERVER"`
	Session  SessionConfig  `envconfig:"SESSION"`
	Snapshot SnapshotConfig `envconfig:"SNAPSHOT"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
}

// DataConfig selects where listings are read from.
type DataConfig struct {
	Path string `envconfig:"PATH" default:"listings.csv"`
	// Source is csv, xlsx or postgres. Empty means infer from Path.
	Source string `envconfig:"SOURCE" validate:"omitempty,oneof=csv xlsx postgres"`
}

// PostgresConfig holds the connection settings for the postgres source.
type PostgresConfig struct {
	Host       string `envconfig:"HOST" default:"localhost"`
	Port       int    `envconfig:"PORT" default:"5432" validate:"min=1,max=65535"`
	User       string `envconfig:"USER" default:"dashboard"`
	Password   string `envconfig:"PASSWORD" default:"dashboard"`
	DB         string `envconfig:"DB" default:"rental_db"`
	SSLMode    string `envconfig:"SSLMODE" default:"disable"`
	Table      string `envconfig:"TABLE" default:"listings" validate:"required"`
	MaxRetries int    `envconfig:"MAX_RETRIES" default:"5" validate:"min=1"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" default:"8501" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CorsOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
}

// SessionConfig controls per-browser selection state.
type SessionConfig struct {
	TTL           time.Duration `envconfig:"TTL" default:"30m" validate:"gt=0"`
	PruneInterval time.Duration `envconfig:"PRUNE_INTERVAL" default:"1m" validate:"gt=0"`
}

// SnapshotConfig controls headless-browser PNG capture of the dashboard.
type SnapshotConfig struct {
	ChromeBin      string        `envconfig:"CHROME_BIN"`
	MaxConcurrency int           `envconfig:"MAX_CONCURRENCY" default:"2" validate:"min=1"`
	RateLimitMs    int           `envconfig:"RATE_LIMIT_MS" default:"500" validate:"min=0"`
	MaxRetries     int           `envconfig:"MAX_RETRIES" default:"3" validate:"min=1"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

// Load reads the optional .env file, then the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	if c.SourceKind() != "postgres" && strings.TrimSpace(c.Data.Path) == "" {
		return fmt.Errorf("config: invalid: %s_DATA_PATH is required for file sources", EnvPrefix)
	}
	if !identRegexp.MatchString(c.Postgres.Table) {
		return fmt.Errorf("config: invalid: postgres table %q is not a plain identifier", c.Postgres.Table)
	}
	return nil
}

// SourceKind returns the configured source, inferring it from the data path
// extension when unset.
func (c *Config) SourceKind() string {
	if c.Data.Source != "" {
		return c.Data.Source
	}
	if strings.HasSuffix(strings.ToLower(c.Data.Path), ".xlsx") {
		return "xlsx"
	}
	return "csv"
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	p := c.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Server.Addr()
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
