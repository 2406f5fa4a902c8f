// Package config loads engine configuration from config.yaml with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for ethos-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL entity store)
	Database DatabaseConfig `yaml:"database"`

	// AI inference endpoint configuration
	AI AIConfig `yaml:"ai"`

	// Domain configuration directory and default domain code
	Domain DomainConfig `yaml:"domain"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ethos"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ethos_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// AIConfig holds inference endpoint settings. An empty BaseURL (openai) or
// APIKey (anthropic) means no AI client is available and fallback branches
// are disabled.
type AIConfig struct {
	// Provider selects the client implementation: "openai" (any
	// OpenAI-compatible endpoint) or "anthropic".
	Provider  string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	BaseURL   string `yaml:"base_url" env:"AI_BASE_URL" env-default:""`
	Model     string `yaml:"model" env:"AI_MODEL" env-default:""`
	APIKey    string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	MaxTokens int    `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"2000"`
}

// IsAvailable returns true if an inference client can be constructed.
func (c *AIConfig) IsAvailable() bool {
	switch c.Provider {
	case "anthropic":
		return c.APIKey != "" && c.Model != ""
	default:
		return c.BaseURL != "" && c.Model != ""
	}
}

// DomainConfig holds domain-configuration loading settings.
type DomainConfig struct {
	// Dir is the directory containing per-domain YAML files ("<code>.yaml").
	Dir string `yaml:"dir" env:"DOMAIN_DIR" env-default:"domains"`
	// DefaultCode is the domain used when a caller does not specify one.
	DefaultCode string `yaml:"default_code" env:"DOMAIN_DEFAULT_CODE" env-default:"engineering"`
	// CacheSize bounds the number of domain configs kept in memory.
	CacheSize int `yaml:"cache_size" env:"DOMAIN_CACHE_SIZE" env-default:"8"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. If config.yaml does not exist, configuration comes from
// environment variables and defaults alone.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
