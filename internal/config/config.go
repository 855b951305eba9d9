package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/clinical-evidence-server/internal/domain"
)

// Manager loads and holds the service configuration using Viper.
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment and defaults.
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/clinical-evidence-server/")

	viper.SetEnvPrefix("CLINEVID")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and environment variables suffice.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Audit store defaults. The sqlite backend needs no external service.
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", "clinical_evidence_audit.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "clinical_evidence")
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "30m")
	viper.SetDefault("database.migrations_path", "migrations")

	// Cache defaults. Redis is optional; the memory tier always runs.
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.default_ttl", "1h")
	viper.SetDefault("cache.memory_size", 256)
	viper.SetDefault("cache.memory_ttl", "30m")
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.pool_timeout", "4s")
	viper.SetDefault("cache.max_retries", 3)

	// Gather defaults
	viper.SetDefault("gather.overall_timeout", "45s")
	viper.SetDefault("gather.fallback_enabled", true)
	viper.SetDefault("gather.max_concurrency", 8)

	// Evidence provider defaults
	viper.SetDefault("external_api.pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/")
	viper.SetDefault("external_api.pubmed.timeout", "15s")
	viper.SetDefault("external_api.pubmed.rate_limit", 3)
	viper.SetDefault("external_api.pubmed.max_results", 10)

	viper.SetDefault("external_api.europepmc.base_url", "https://www.ebi.ac.uk/europepmc/webservices/rest/")
	viper.SetDefault("external_api.europepmc.timeout", "15s")
	viper.SetDefault("external_api.europepmc.rate_limit", 5)
	viper.SetDefault("external_api.europepmc.max_results", 10)

	viper.SetDefault("external_api.cochrane.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/")
	viper.SetDefault("external_api.cochrane.timeout", "15s")
	viper.SetDefault("external_api.cochrane.rate_limit", 3)
	viper.SetDefault("external_api.cochrane.max_results", 5)

	viper.SetDefault("external_api.clinicaltrials.base_url", "https://clinicaltrials.gov/api/v2/")
	viper.SetDefault("external_api.clinicaltrials.timeout", "15s")
	viper.SetDefault("external_api.clinicaltrials.rate_limit", 5)
	viper.SetDefault("external_api.clinicaltrials.max_results", 10)

	viper.SetDefault("external_api.dailymed.base_url", "https://dailymed.nlm.nih.gov/dailymed/services/v2/")
	viper.SetDefault("external_api.dailymed.timeout", "15s")
	viper.SetDefault("external_api.dailymed.rate_limit", 5)
	viper.SetDefault("external_api.dailymed.max_results", 3)

	viper.SetDefault("external_api.openfda.base_url", "https://api.fda.gov/")
	viper.SetDefault("external_api.openfda.timeout", "15s")
	viper.SetDefault("external_api.openfda.rate_limit", 4)
	viper.SetDefault("external_api.openfda.max_results", 3)

	// Guideline publishers have no public search API; each needs an
	// explicitly configured gateway URL to activate.
	viper.SetDefault("external_api.who.base_url", "")
	viper.SetDefault("external_api.who.timeout", "15s")
	viper.SetDefault("external_api.cdc.base_url", "")
	viper.SetDefault("external_api.cdc.timeout", "15s")
	viper.SetDefault("external_api.nice.base_url", "")
	viper.SetDefault("external_api.nice.timeout", "15s")
	viper.SetDefault("external_api.uspstf.base_url", "")
	viper.SetDefault("external_api.uspstf.timeout", "15s")

	viper.SetDefault("external_api.websearch.base_url", "https://api.search.brave.com/res/v1/web/search")
	viper.SetDefault("external_api.websearch.timeout", "10s")
	viper.SetDefault("external_api.websearch.rate_limit", 1)
	viper.SetDefault("external_api.websearch.max_results", 5)

	// LLM defaults
	viper.SetDefault("llm.backend", "anthropic")
	viper.SetDefault("llm.model", "claude-sonnet-4-5")
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout", "120s")

	// Embedding defaults
	viper.SetDefault("embedding.backend", "noop")
	viper.SetDefault("embedding.model", "gemini-embedding-001")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns the audit store configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetExternalAPIConfig returns the evidence provider configuration
func (m *Manager) GetExternalAPIConfig() *domain.ExternalAPIConfig {
	return &m.config.ExternalAPI
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Database.Driver {
	case "sqlite":
		if config.Database.Path == "" {
			return fmt.Errorf("sqlite database path is required")
		}
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if config.ExternalAPI.PubMed.BaseURL == "" {
		return fmt.Errorf("PubMed base URL is required")
	}
	if config.ExternalAPI.EuropePMC.BaseURL == "" {
		return fmt.Errorf("Europe PMC base URL is required")
	}
	if config.ExternalAPI.ClinicalTrials.BaseURL == "" {
		return fmt.Errorf("ClinicalTrials.gov base URL is required")
	}

	switch config.LLM.Backend {
	case "anthropic", "noop":
	default:
		return fmt.Errorf("unsupported llm backend: %s", config.LLM.Backend)
	}
	switch config.Embedding.Backend {
	case "genai", "noop":
	default:
		return fmt.Errorf("unsupported embedding backend: %s", config.Embedding.Backend)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
