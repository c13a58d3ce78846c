// Package config provides configuration management with hot-reload support.
// It uses fsnotify to watch for file changes and atomic pointer swaps for zero-downtime updates.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete gateway configuration.
type Config struct {
	Providers []ProviderConfig `yaml:"providers"`
	Cache     CacheConfig      `yaml:"cache"`
	RateLimit RateLimitConfig  `yaml:"rate_limit"`
	Secrets   SecretsConfig    `yaml:"secrets"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// ProviderConfig defines a single embedding provider configuration.
// APIKey may be a secret reference ("env:NAME", "vault:path#key") resolved
// at client construction.
type ProviderConfig struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"`
	APIKey   string            `yaml:"api_key"`
	BaseURL  string            `yaml:"base_url"`
	Models   []string          `yaml:"models"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
	Metadata map[string]string `yaml:"metadata"`
}

// CacheConfig selects and tunes the embedding cache backend.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Type      string        `yaml:"type"` // local, redis
	TTL       time.Duration `yaml:"ttl"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	RedisPass string        `yaml:"redis_password"`
	Namespace string        `yaml:"namespace"`
}

// RateLimitConfig defines per-provider rate limiting parameters.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	BurstSize         int  `yaml:"burst_size"`
}

// SecretsConfig selects the secret resolution backend.
type SecretsConfig struct {
	Backend       string        `yaml:"backend"` // env, vault
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	VaultAddress  string        `yaml:"vault_address"`
	VaultRoleID   string        `yaml:"vault_role_id"`
	VaultSecretID string        `yaml:"vault_secret_id"`
	VaultCACert   string        `yaml:"vault_ca_cert"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled: false,
			Type:    "local",
			TTL:     24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 600,
			BurstSize:         20,
		},
		Secrets: SecretsConfig{
			Backend:  "env",
			CacheTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFromFile reads and parses a YAML configuration file.
// Environment variables in the format ${VAR_NAME} are expanded.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}

	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider[%d]: name is required", i)
		}
		if p.Type == "" {
			return fmt.Errorf("provider[%d]: type is required", i)
		}
		if p.Timeout < 0 {
			return fmt.Errorf("provider[%d] %q: timeout cannot be negative", i, p.Name)
		}
	}

	switch c.Cache.Type {
	case "", "local", "redis":
	default:
		return fmt.Errorf("cache.type must be local or redis, got %q", c.Cache.Type)
	}
	if c.Cache.Type == "redis" && c.Cache.Enabled && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis cache")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive")
	}

	switch c.Secrets.Backend {
	case "", "env", "vault":
	default:
		return fmt.Errorf("secrets.backend must be env or vault, got %q", c.Secrets.Backend)
	}
	if c.Secrets.Backend == "vault" && c.Secrets.VaultAddress == "" {
		return fmt.Errorf("secrets.vault_address is required for the vault backend")
	}

	return nil
}
