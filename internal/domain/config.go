package domain

import "time"

// Config is the complete service configuration.
type Config struct {
	Environment string            `mapstructure:"environment"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Gather      GatherConfig      `mapstructure:"gather"`
	ExternalAPI ExternalAPIConfig `mapstructure:"external_api"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds audit store configuration. Driver selects the
// backend: "sqlite" (default) or "postgres".
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"` // sqlite file path
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// CacheConfig holds gather cache configuration. RedisURL is optional; when
// empty the cache runs memory-only.
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MemorySize  int           `mapstructure:"memory_size"`
	MemoryTTL   time.Duration `mapstructure:"memory_ttl"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// GatherConfig bounds the evidence gathering pass.
type GatherConfig struct {
	// OverallTimeout is the caller-imposed deadline on a full gather pass,
	// fallback included.
	OverallTimeout time.Duration `mapstructure:"overall_timeout"`
	// FallbackEnabled disables the web-search fallback entirely when false,
	// regardless of the sufficiency gate.
	FallbackEnabled bool `mapstructure:"fallback_enabled"`
	// MaxConcurrency caps concurrent source adapter calls.
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// ProviderConfig is the per-provider client configuration. APIKey is
// individually optional: an absent credential degrades that provider to
// "always returns empty", never a startup failure.
type ProviderConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Email      string        `mapstructure:"email"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit"`
	MaxResults int           `mapstructure:"max_results"`
}

// ExternalAPIConfig groups all evidence provider configurations.
type ExternalAPIConfig struct {
	PubMed         ProviderConfig `mapstructure:"pubmed"`
	EuropePMC      ProviderConfig `mapstructure:"europepmc"`
	Cochrane       ProviderConfig `mapstructure:"cochrane"`
	ClinicalTrials ProviderConfig `mapstructure:"clinicaltrials"`
	DailyMed       ProviderConfig `mapstructure:"dailymed"`
	OpenFDA        ProviderConfig `mapstructure:"openfda"`
	WHO            ProviderConfig `mapstructure:"who"`
	CDC            ProviderConfig `mapstructure:"cdc"`
	NICE           ProviderConfig `mapstructure:"nice"`
	USPSTF         ProviderConfig `mapstructure:"uspstf"`
	WebSearch      ProviderConfig `mapstructure:"websearch"`
}

// LLMConfig selects and configures the answer-generator collaborator.
// Backend is "anthropic" or "noop".
type LLMConfig struct {
	Backend   string        `mapstructure:"backend"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig selects and configures the embedding capability.
// Backend is "genai" or "noop".
type EmbeddingConfig struct {
	Backend string `mapstructure:"backend"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
