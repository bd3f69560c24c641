// Package config loads the cleanse settings from the environment. Every
// field has an env tag; defaults live in the default tag and Validate runs
// after loading so a bad deployment fails at startup.
package config

import (
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Upload    UploadConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Pipeline  PipelineConfig
	LLM       LLMConfig
	Retention RetentionConfig
}

type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds the drain of running stages plus http.Server.Shutdown.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	// RequestTimeout is applied per request by chi's Timeout middleware.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds run-history database settings.
// Leaving URL empty keeps run history in memory only.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a history database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// UploadConfig limits uploads and stage execution in the web service.
type UploadConfig struct {
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"` // bytes

	// MaxConcurrent stages across all runs; further requests queue for up
	// to MaxWaitTime.
	MaxConcurrent int           `env:"UPLOAD_MAX_CONCURRENT" default:"4"`
	MaxWaitTime   time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout caps one stage invocation.
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"5m"`
}

// RateLimitConfig is a per-client fixed window of one minute.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

type SecurityConfig struct {
	// TrustedProxies are CIDRs or bare addresses whose X-Forwarded-For and
	// X-Real-IP headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
	EnableCSP      bool     `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards /api with X-API-Key or a bearer token.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig selects the slog level (debug, info, warn, error) and
// handler (text or json).
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// PipelineConfig holds the cleaning pipeline's file locations and tuning.
type PipelineConfig struct {
	// CountriesFile lists one canonical country name per line (required to exist at startup)
	CountriesFile string `env:"PIPELINE_COUNTRIES_FILE" default:"data/valid_countries.txt"`

	// AliasesFile is an optional YAML map of country aliases to canonical names
	AliasesFile string `env:"PIPELINE_ALIASES_FILE" default:"data/country_aliases.yaml"`

	// LogDir receives detection_log.txt, correction_log.txt and enrichment_log.txt
	LogDir string `env:"PIPELINE_LOG_DIR" default:"data/logs"`

	// OutputDir is where the CLI writes cleaned files by default
	OutputDir string `env:"PIPELINE_OUTPUT_DIR" default:"data/output"`

	// MatchThreshold is the minimum fuzzy score (0-100) for a country match (default: 80)
	MatchThreshold int `env:"PIPELINE_MATCH_THRESHOLD" default:"80"`

	// EmailDomain is appended to synthesized addresses (default: example.com)
	EmailDomain string `env:"PIPELINE_EMAIL_DOMAIN" default:"example.com"`
}

// LLMConfig holds the optional Azure OpenAI settings for email suggestions.
// The suggester is enabled only when Endpoint, APIKey and Deployment are all set.
type LLMConfig struct {
	Endpoint   string        `env:"AZURE_OPENAI_ENDPOINT"`
	APIKey     string        `env:"AZURE_OPENAI_KEY"`
	Deployment string        `env:"AZURE_OPENAI_DEPLOYMENT_ID"`
	Timeout    time.Duration `env:"AZURE_OPENAI_TIMEOUT" default:"10s"`
}

// Enabled reports whether every LLM setting is present.
func (c LLMConfig) Enabled() bool {
	return c.Endpoint != "" && c.APIKey != "" && c.Deployment != ""
}

// RetentionConfig controls eviction of finished runs and history.
type RetentionConfig struct {
	// RunTTL is how long an idle run stays addressable in the web UI (default: 1h)
	RunTTL time.Duration `env:"RETENTION_RUN_TTL" default:"1h"`

	// HistoryDays is how many days of run history are kept (default: 30)
	HistoryDays int `env:"RETENTION_HISTORY_DAYS" default:"30"`

	// CheckInterval is how often the sweeper runs (default: 10m)
	CheckInterval time.Duration `env:"RETENTION_CHECK_INTERVAL" default:"10m"`
}

// Addr is host:port for http.Server.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
