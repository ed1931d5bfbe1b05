// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Export   ExportConfig
	Scratch  ScratchConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	// PORT is honoured as a fallback for PaaS deployments.
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, archives can be large)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds spreadsheet upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 32MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"33554432"`

	// MaxConcurrent is the maximum number of parallel cleaning jobs (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a job slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// ExportConfig holds number validation and chunked export settings.
type ExportConfig struct {
	// MaxRows is the number of records per exported file (default: 240)
	MaxRows int `env:"EXPORT_MAX_ROWS" default:"240"`

	// Format is the chunk file format: xlsx or csv (default: xlsx)
	Format string `env:"EXPORT_FORMAT" default:"xlsx"`

	// CompressionLevel is the deflate level for the archive, -1..9 (default: 6)
	CompressionLevel int `env:"EXPORT_COMPRESSION_LEVEL" default:"6"`

	// CountryCodes lists accepted dial codes as prefix:length, in match order.
	CountryCodes []string `env:"EXPORT_COUNTRY_CODES" default:"20:12,966:12,971:12,962:12,965:11,212:12,213:12,216:12,1:11"`

	// LocalPrefix replaces the leading 0 of 11-digit local numbers starting with 01 (default: 20)
	LocalPrefix string `env:"EXPORT_LOCAL_PREFIX" default:"20"`
}

// ScratchConfig holds temporary file settings.
type ScratchConfig struct {
	// Dir is the root for per-request scratch directories (default: $TMPDIR/clientclean)
	Dir string `env:"SCRATCH_DIR"`

	// CleanupDelay is the age after which an abandoned scratch directory is removed (default: 10s)
	CleanupDelay time.Duration `env:"SCRATCH_CLEANUP_DELAY" default:"10s"`

	// SweepInterval is how often abandoned scratch directories are looked for (default: 1m)
	SweepInterval time.Duration `env:"SCRATCH_SWEEP_INTERVAL" default:"1m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
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
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// ScratchRoot returns the configured scratch root, or a directory under the OS temp dir.
func (c *ScratchConfig) ScratchRoot() string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(os.TempDir(), "clientclean")
}
