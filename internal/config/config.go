// Package config loads sceneforge configuration: defaults first, then
// the optional .sceneforge.yaml file, then environment overrides, then
// validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aeon-video/sceneforge/internal/provider"
)

// PollConfig controls the prediction poll loop
type PollConfig struct {
	// Interval is how often a pending prediction is polled
	Interval string `yaml:"interval"`

	// MaxAttempts caps polls per prediction before giving up
	MaxAttempts int `yaml:"max_attempts"`
}

// ProviderEntry declares one generation backend. Order in the config
// file is the fallback order.
type ProviderEntry struct {
	// ID is the short provider name used in plans and preferences
	ID string `yaml:"id"`

	// Model is the upstream model identifier submitted to the API
	Model string `yaml:"model"`

	// MaxDuration is the longest scene this backend accepts, in
	// seconds (0 = no provider-specific limit)
	MaxDuration int `yaml:"max_duration,omitempty"`

	// PricePerUnit is the cost of one generated scene in USD
	PricePerUnit float64 `yaml:"price_per_unit,omitempty"`

	// Capabilities tags this backend (e.g. "fast", "stable")
	Capabilities []string `yaml:"capabilities,omitempty"`

	// DefaultParams are merged under every scene's params
	DefaultParams map[string]any `yaml:"default_params,omitempty"`
}

// ReplicateConfig holds API connection settings
type ReplicateConfig struct {
	// BaseURL is the API root
	BaseURL string `yaml:"base_url"`

	// TokenEnv names the environment variable holding the API token
	TokenEnv string `yaml:"token_env"`
}

// NotifyConfig controls failure notifications
type NotifyConfig struct {
	// Backends lists notification backends ("terminal", "webhook")
	Backends []string `yaml:"backends,omitempty"`

	// WebhookURL is the webhook endpoint, required for the webhook
	// backend
	WebhookURL string `yaml:"webhook_url,omitempty"`
}

// StoreConfig controls run-history persistence
type StoreConfig struct {
	// Path is the SQLite database file. Relative paths resolve from
	// the config directory.
	Path string `yaml:"path"`
}

// Config holds all configuration for sceneforge.
// It is immutable after creation via Load().
type Config struct {
	// WorkerCount is the number of concurrent generation workers
	WorkerCount int `yaml:"worker_count"`

	// UnitsPerWorker is the number of scenes each worker owns
	UnitsPerWorker int `yaml:"units_per_worker"`

	// Poll controls the prediction poll loop
	Poll PollConfig `yaml:"poll"`

	// Providers is the ordered backend registry; file order is
	// fallback order
	Providers []ProviderEntry `yaml:"providers"`

	// Replicate holds API connection settings
	Replicate ReplicateConfig `yaml:"replicate"`

	// Notify controls failure notifications
	Notify NotifyConfig `yaml:"notify"`

	// Store controls run-history persistence
	Store StoreConfig `yaml:"store"`

	// LogLevel controls log verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// PollInterval parses the poll interval as a Duration.
func (c *Config) PollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Poll.Interval)
}

// PollPolicy builds the poll policy from the validated config.
func (c *Config) PollPolicy() provider.PollPolicy {
	d, err := c.PollInterval()
	if err != nil {
		return provider.DefaultPollPolicy
	}
	return provider.PollPolicy{Interval: d, MaxAttempts: c.Poll.MaxAttempts}
}

// Token reads the API token from the configured environment variable.
func (c *Config) Token() string {
	return os.Getenv(c.Replicate.TokenEnv)
}

// Registry builds the provider registry in config declaration order.
func (c *Config) Registry() (*provider.Registry, error) {
	descs := make([]provider.Descriptor, len(c.Providers))
	for i, p := range c.Providers {
		caps := make(map[string]bool, len(p.Capabilities))
		for _, tag := range p.Capabilities {
			caps[tag] = true
		}
		descs[i] = provider.Descriptor{
			ID:                 p.ID,
			UpstreamModel:      p.Model,
			Capabilities:       caps,
			MaxUnitDurationSec: p.MaxDuration,
			DefaultParams:      p.DefaultParams,
			PricePerUnit:       p.PricePerUnit,
		}
	}
	return provider.NewRegistry(descs)
}

// Load loads configuration from dir. It applies defaults, then file
// values, then environment overrides, then validates.
//
// A .env file in dir is loaded first so token variables set there are
// visible; a missing .env or config file is not an error.
func Load(dir string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	cfg := DefaultConfig()

	configPath := filepath.Join(dir, ".sceneforge.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Store.Path != "" && !filepath.IsAbs(cfg.Store.Path) {
		cfg.Store.Path = filepath.Join(dir, cfg.Store.Path)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
