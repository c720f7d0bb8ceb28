package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultIdentityRule rejects empty, overlong and whitespace/control-character identities
const DefaultIdentityRule = `size(identity) > 0 && size(identity) <= 128 && identity.matches('^[^\\x00-\\x20\\x7f]+$')`

// Config holds all service configuration
type Config struct {
	Service    ServiceConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Validation ValidationConfig
	Telemetry  TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name           string
	Port           int
	Environment    string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// TrustProxyHeaders takes the client IP from X-Forwarded-For sent by a private-network proxy
	TrustProxyHeaders bool
}

// DatabaseConfig holds relational store settings.
// Driver selects between the Postgres pool and the embedded SQLite file.
type DatabaseConfig struct {
	Driver      string
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	SQLitePath  string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RateLimitConfig holds per-client request limits for the public endpoint
type RateLimitConfig struct {
	Enabled       bool
	Requests      int64
	WindowSeconds int
}

// ValidationConfig holds the identity acceptance policy
type ValidationConfig struct {
	IdentityRule string // CEL expression over `identity`
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:           serviceName,
			Port:           getEnvInt("PORT", 8080),
			Environment:    getEnv("ENVIRONMENT", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "text"),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),

			TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
		},
		Database: DatabaseConfig{
			Driver:      getEnv("DB_DRIVER", DriverPostgres),
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "eligibility"),
			User:        getEnv("POSTGRES_USER", "eligibility"),
			Password:    getEnv("POSTGRES_PASSWORD", "eligibility"),
			SQLitePath:  getEnv("SQLITE_PATH", "contracts.db"),
			MaxConns:    getEnvInt("DB_MAX_CONNS", 20),
			MinConns:    getEnvInt("DB_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("DB_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("DB_MAX_LIFETIME", 1*time.Hour),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvBool("RATE_LIMIT_ENABLED", true),
			Requests:      int64(getEnvInt("RATE_LIMIT_REQUESTS", 120)),
			WindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		Validation: ValidationConfig{
			IdentityRule: getEnv("IDENTITY_RULE", DefaultIdentityRule),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Service.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	if c.Database.MaxConns < 1 {
		return fmt.Errorf("max_conns must be >= 1")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests < 1 || c.RateLimit.WindowSeconds < 1) {
		return fmt.Errorf("rate limit requires positive requests and window")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// SQLiteDSN returns the go-sqlite3 data source name.
// Without AutoMigrate the file is opened read-only and must already exist.
// The journal mode is left as the file's own so a read-only open never needs to create WAL files.
func (c *Config) SQLiteDSN() string {
	if !c.Database.AutoMigrate {
		return fmt.Sprintf("file:%s?mode=ro&_foreign_keys=on&_busy_timeout=5000", c.Database.SQLitePath)
	}
	return fmt.Sprintf("file:%s?mode=rwc&_foreign_keys=on&_busy_timeout=5000", c.Database.SQLitePath)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
