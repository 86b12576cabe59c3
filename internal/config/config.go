// Package config provides centralized configuration management for the
// server and the CLI. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Preview  PreviewConfig
	Diff     DiffConfig
	Output   OutputConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 60s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is the maximum duration for writing response (default: 120s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"120s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// UploadConfig bounds the files a request may send and the work it may start.
type UploadConfig struct {
	// MaxFileSize is the maximum request body size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of operations running at once (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for an operation slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// MaxRows caps rows read per file; 0 reads everything (default: 0)
	MaxRows int `env:"UPLOAD_MAX_ROWS" default:"0"`

	// Timeout is the maximum duration of a single operation (default: 5m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"5m"`
}

// PreviewConfig holds preview row limits.
type PreviewConfig struct {
	// DefaultRows is used when a request gives no row count (default: 10)
	DefaultRows int `env:"PREVIEW_DEFAULT_ROWS" default:"10"`

	// MaxRows is the largest row count a preview returns (default: 2000)
	MaxRows int `env:"PREVIEW_MAX_ROWS" default:"2000"`
}

// DiffConfig holds comparison defaults.
type DiffConfig struct {
	// Tolerance is the largest numeric difference treated as equal (default: 1e-9)
	Tolerance float64 `env:"DIFF_TOLERANCE" default:"1e-9"`
}

// OutputConfig holds settings for created files.
type OutputConfig struct {
	// Dir is where created files are written (default: ./output)
	Dir string `env:"OUTPUT_DIR" default:"./output"`

	// TTL is how long created files are kept; 0 keeps them forever (default: 24h)
	TTL time.Duration `env:"OUTPUT_TTL" default:"24h"`

	// SweepInterval is how often expired files are removed (default: 10m)
	SweepInterval time.Duration `env:"OUTPUT_SWEEP_INTERVAL" default:"10m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// OperationLimit is requests per minute for the file endpoints (default: 30)
	OperationLimit int `env:"RATE_LIMIT_OPERATIONS" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
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
