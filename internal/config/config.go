// Package config loads service settings from environment variables.
// Every setting has a default except where noted, and the result is
// validated on startup so a bad value stops the process before it serves.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including waiting for
	// in-flight import runs (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the optional PostgreSQL target. When URL is empty
// the apply endpoint is disabled and the service only generates SQL.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Schema qualifies target tables on apply (default: unqualified)
	Schema string `env:"DB_SCHEMA"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// ImportConfig holds pipeline settings.
type ImportConfig struct {
	// Workers bounds row-level parallelism per run; 0 uses GOMAXPROCS
	Workers int `env:"IMPORT_WORKERS" default:"0"`

	// MaxRows rejects larger datasets (default: 100000)
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"100000"`

	// MaxBodyBytes caps request bodies on import endpoints (default: 32MB)
	MaxBodyBytes int64 `env:"IMPORT_MAX_BODY_BYTES" default:"33554432"`

	// MaxConcurrent is the number of runs allowed at once (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a run waits for a slot (default: 10s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"10s"`

	// Timeout bounds a single run (default: 2m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"2m"`

	// Dialect is the default identifier quoting: mysql or postgresql
	Dialect string `env:"IMPORT_DIALECT" default:"mysql"`

	// Strict fails runs on transform errors and mapping conflicts
	Strict bool `env:"IMPORT_STRICT" default:"false"`

	// KeepUnsafeRows emits unrenderable cells as NULL instead of dropping the row
	KeepUnsafeRows bool `env:"IMPORT_KEEP_UNSAFE_ROWS" default:"false"`

	// BatchSize is rows per generated INSERT; 0 emits one statement
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"1000"`

	// SchemaFiles are DDL files parsed into the catalog at startup
	SchemaFiles []string `env:"IMPORT_SCHEMA_FILES"`

	// SchemaReloadInterval re-reads changed SchemaFiles; 0 disables
	SchemaReloadInterval time.Duration `env:"IMPORT_SCHEMA_RELOAD_INTERVAL" default:"0s"`
}

// RateLimitConfig holds per-client rate limiting.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per client IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// Burst is the bucket size (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Forwarded-For header is believed for rate limiting.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys, when set, are required in the X-API-Key header of /api requests
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
