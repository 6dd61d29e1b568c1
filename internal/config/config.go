// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	History  HistoryConfig
	Layout   LayoutConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the optional run-history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty keeps history in memory.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 5)
	MaxConns int `env:"DB_MAX_CONNS" default:"5"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a history database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// UploadConfig holds spreadsheet upload and run settings.
type UploadConfig struct {
	// MaxFileSize is the maximum size of one uploaded workbook in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxFiles is the maximum number of workbooks in one merge request (default: 20)
	MaxFiles int `env:"UPLOAD_MAX_FILES" default:"20"`

	// MaxConcurrent is the maximum number of parallel runs (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a run slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single run (default: 2m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`

	// ResultTTL is how long finished results stay downloadable (default: 15m)
	ResultTTL time.Duration `env:"UPLOAD_RESULT_TTL" default:"15m"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// Burst is the number of requests allowed at once (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
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

// CORSConfig holds cross-origin settings for the API.
type CORSConfig struct {
	// AllowedOrigins is a comma-separated list of allowed origins
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"http://localhost:8080"`

	// MaxAge is the preflight cache duration in seconds (default: 300)
	MaxAge int `env:"CORS_MAX_AGE" default:"300"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds run history retention settings.
type HistoryConfig struct {
	// RetentionDays is how long run records are kept (default: 30)
	RetentionDays int `env:"HISTORY_RETENTION_DAYS" default:"30"`

	// CheckInterval is how often expired records are pruned (default: 6h)
	CheckInterval time.Duration `env:"HISTORY_CHECK_INTERVAL" default:"6h"`

	// ListLimit is the maximum number of records returned by the history API (default: 50)
	ListLimit int `env:"HISTORY_LIST_LIMIT" default:"50"`
}

// LayoutConfig holds the column offsets of the target and source workbooks.
// All indexes are 0-based.
type LayoutConfig struct {
	TargetIDColumn int    `env:"RECON_TARGET_ID_COLUMN" default:"7"`
	TargetStartRow int    `env:"RECON_TARGET_START_ROW" default:"5"`
	TargetIDPrefix string `env:"RECON_TARGET_ID_PREFIX" default:"8308"`

	CoerceStartRow int `env:"RECON_COERCE_START_ROW" default:"5"`
	CoerceColStart int `env:"RECON_COERCE_COL_START" default:"9"`
	CoerceColEnd   int `env:"RECON_COERCE_COL_END" default:"16"`

	SourcePrimaryColumn   int `env:"RECON_SOURCE_PRIMARY_COLUMN" default:"28"`
	SourceSecondaryColumn int `env:"RECON_SOURCE_SECONDARY_COLUMN" default:"44"`
	SourceStartRow        int `env:"RECON_SOURCE_START_ROW" default:"3"`

	RowWidth         int    `env:"RECON_ROW_WIDTH" default:"18"`
	TagColumn        int    `env:"RECON_TAG_COLUMN" default:"0"`
	Tag              string `env:"RECON_TAG" default:"NEW"`
	ReferenceColumn  int    `env:"RECON_REFERENCE_COLUMN" default:"1"`
	IdentifierColumn int    `env:"RECON_IDENTIFIER_COLUMN" default:"7"`
	CarryColumns     []int  `env:"RECON_CARRY_COLUMNS" default:"2,3,4,5"`
	SecondaryColumn  int    `env:"RECON_SECONDARY_COLUMN" default:"6"`
	ZeroStart        int    `env:"RECON_ZERO_START" default:"9"`
	ZeroEnd          int    `env:"RECON_ZERO_END" default:"16"`
	TrailerColumn    int    `env:"RECON_TRAILER_COLUMN" default:"17"`
	TrailerTag       string `env:"RECON_TRAILER_TAG" default:"RECONCILED"`

	// MergeFirstSkip is the number of banner rows dropped from the first merged file (default: 3)
	MergeFirstSkip int `env:"MERGE_FIRST_SKIP" default:"3"`

	// MergeRestSkip is the number of banner rows dropped from every later file (default: 4)
	MergeRestSkip int `env:"MERGE_REST_SKIP" default:"4"`

	// SheetName is the name of the sheet written to result workbooks (default: Merged)
	SheetName string `env:"RECON_SHEET_NAME" default:"Merged"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
