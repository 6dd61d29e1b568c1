package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		parts := splitList(value)
		switch field.Type().Elem().Kind() {
		case reflect.String:
			field.Set(reflect.ValueOf(parts))
		case reflect.Int:
			result := make([]int, 0, len(parts))
			for _, p := range parts {
				n, err := strconv.Atoi(p)
				if err != nil {
					return fmt.Errorf("invalid integer list: %w", err)
				}
				result = append(result, n)
			}
			field.Set(reflect.ValueOf(result))
		default:
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// splitList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.Database.validate()...)
	errs = append(errs, c.Server.validate()...)
	errs = append(errs, c.Upload.validate()...)
	errs = append(errs, c.Rate.validate()...)
	errs = append(errs, c.History.validate()...)
	errs = append(errs, c.Security.validate()...)
	errs = append(errs, c.Layout.validate()...)
	errs = append(errs, c.Logging.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// validate checks pool sizes. Nothing is checked when history is kept in memory.
func (d *DatabaseConfig) validate() []string {
	if !d.Enabled() {
		return nil
	}
	var errs []string
	if d.MaxConns < d.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns))
	}
	if d.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if d.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	return errs
}

func (s *ServerConfig) validate() []string {
	var errs []string
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", s.Port))
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if s.RequestTimeout < 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return errs
}

func (u *UploadConfig) validate() []string {
	positive := []struct {
		env string
		ok  bool
	}{
		{"UPLOAD_MAX_FILE_SIZE", u.MaxFileSize > 0},
		{"UPLOAD_MAX_FILES", u.MaxFiles > 0},
		{"UPLOAD_MAX_CONCURRENT", u.MaxConcurrent > 0},
		{"UPLOAD_MAX_WAIT_TIME", u.MaxWaitTime > 0},
		{"UPLOAD_TIMEOUT", u.Timeout > 0},
		{"UPLOAD_RESULT_TTL", u.ResultTTL > 0},
	}

	var errs []string
	for _, p := range positive {
		if !p.ok {
			errs = append(errs, p.env+" must be positive")
		}
	}
	return errs
}

func (r *RateLimitConfig) validate() []string {
	if !r.Enabled {
		return nil
	}
	var errs []string
	if r.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if r.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	return errs
}

func (h *HistoryConfig) validate() []string {
	var errs []string
	if h.RetentionDays <= 0 {
		errs = append(errs, "HISTORY_RETENTION_DAYS must be positive")
	}
	if h.CheckInterval <= 0 {
		errs = append(errs, "HISTORY_CHECK_INTERVAL must be positive")
	}
	if h.ListLimit <= 0 {
		errs = append(errs, "HISTORY_LIST_LIMIT must be positive")
	}
	return errs
}

func (s *SecurityConfig) validate() []string {
	if s.RequireAPIKey && len(s.APIKeys) == 0 {
		return []string{"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth"}
	}
	return nil
}

func (l *LoggingConfig) validate() []string {
	var errs []string
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", l.Format))
	}
	return errs
}

// validate reports layout settings that cannot address a cell.
func (l *LayoutConfig) validate() []string {
	var errs []string

	indexes := []struct {
		env string
		v   int
	}{
		{"RECON_TARGET_ID_COLUMN", l.TargetIDColumn},
		{"RECON_TARGET_START_ROW", l.TargetStartRow},
		{"RECON_COERCE_START_ROW", l.CoerceStartRow},
		{"RECON_COERCE_COL_START", l.CoerceColStart},
		{"RECON_SOURCE_PRIMARY_COLUMN", l.SourcePrimaryColumn},
		{"RECON_SOURCE_SECONDARY_COLUMN", l.SourceSecondaryColumn},
		{"RECON_SOURCE_START_ROW", l.SourceStartRow},
		{"RECON_TAG_COLUMN", l.TagColumn},
		{"RECON_REFERENCE_COLUMN", l.ReferenceColumn},
		{"RECON_IDENTIFIER_COLUMN", l.IdentifierColumn},
		{"RECON_SECONDARY_COLUMN", l.SecondaryColumn},
		{"RECON_ZERO_START", l.ZeroStart},
		{"RECON_TRAILER_COLUMN", l.TrailerColumn},
		{"MERGE_FIRST_SKIP", l.MergeFirstSkip},
		{"MERGE_REST_SKIP", l.MergeRestSkip},
	}
	for _, ix := range indexes {
		if ix.v < 0 {
			errs = append(errs, fmt.Sprintf("%s (%d) must be non-negative", ix.env, ix.v))
		}
	}
	for _, c := range l.CarryColumns {
		if c < 0 {
			errs = append(errs, fmt.Sprintf("RECON_CARRY_COLUMNS entry (%d) must be non-negative", c))
		}
	}
	if l.CoerceColEnd < l.CoerceColStart {
		errs = append(errs, fmt.Sprintf("RECON_COERCE_COL_END (%d) must be >= RECON_COERCE_COL_START (%d)",
			l.CoerceColEnd, l.CoerceColStart))
	}
	if l.ZeroEnd < l.ZeroStart {
		errs = append(errs, fmt.Sprintf("RECON_ZERO_END (%d) must be >= RECON_ZERO_START (%d)",
			l.ZeroEnd, l.ZeroStart))
	}
	if l.SheetName == "" {
		errs = append(errs, "RECON_SHEET_NAME must not be empty")
	}

	return errs
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	if c.Database.Enabled() {
		b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
			c.Database.MaxConns, c.Database.MinConns))
	} else {
		b.WriteString("Database: {disabled}, ")
	}
	b.WriteString(fmt.Sprintf("Upload: {MaxFileSize: %d, MaxConcurrent: %d, ResultTTL: %s}, ",
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent, c.Upload.ResultTTL))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d configured}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Layout: {TargetID: %d@%d, Source: %d/%d@%d}, ",
		c.Layout.TargetIDColumn, c.Layout.TargetStartRow,
		c.Layout.SourcePrimaryColumn, c.Layout.SourceSecondaryColumn, c.Layout.SourceStartRow))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
