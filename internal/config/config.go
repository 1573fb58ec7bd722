// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all service configuration.
// Environment determines whether settings load from env vars (development)
// or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	DeployID   string

	// Store-specific configuration (loaded from secrets in production)
	Store StoreConfig
}

// StoreConfig contains backend and client settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type StoreConfig struct {
	BackendURL string `json:"backend_url"`
	// SessionPath is the SQLite file holding the persisted session.
	// Empty means the per-user default under the home directory.
	SessionPath string `json:"session_path,omitempty"`
	// RequestTimeout for backend calls, e.g. "30s".
	RequestTimeout string `json:"request_timeout,omitempty"`
	// MinAgentVersion gates Shopping-Agent callers on the gateway.
	// Empty disables the version gate.
	MinAgentVersion string `json:"min_agent_version,omitempty"`
	// SearchDebounce for interactive search, e.g. "500ms".
	SearchDebounce string `json:"search_debounce,omitempty"`
	// ExactDebit keeps paise precision when debiting the wallet after
	// checkout instead of truncating to whole rupees.
	ExactDebit bool `json:"exact_debit,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) -> ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		DeployID:    os.Getenv("DEPLOY_ID"),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.DeployID == "" {
			return nil, fmt.Errorf("DEPLOY_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string      `json:"port"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		Store       StoreConfig `json:"store"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		Store:       fileConfig.Store,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{deploy_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.DeployID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		BackendURL:      os.Getenv("QKART_BACKEND_URL"),
		SessionPath:     os.Getenv("QKART_SESSION_PATH"),
		RequestTimeout:  os.Getenv("QKART_REQUEST_TIMEOUT"),
		MinAgentVersion: os.Getenv("QKART_MIN_AGENT_VERSION"),
		SearchDebounce:  os.Getenv("QKART_SEARCH_DEBOUNCE"),
	}
	if os.Getenv("QKART_EXACT_DEBIT") == "true" {
		c.Store.ExactDebit = true
	}
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Store.BackendURL == "" {
		return fmt.Errorf("backend_url is required")
	}
	u, err := url.Parse(c.Store.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_url must be http or https")
	}

	if c.Store.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.Store.RequestTimeout); err != nil {
			return fmt.Errorf("invalid request_timeout: %w", err)
		}
	}
	if c.Store.SearchDebounce != "" {
		if _, err := time.ParseDuration(c.Store.SearchDebounce); err != nil {
			return fmt.Errorf("invalid search_debounce: %w", err)
		}
	}

	return nil
}

// RequestTimeout returns the parsed backend timeout, or zero when unset
// so the client applies its own default.
func (c *Config) RequestTimeout() time.Duration {
	if c.Store.RequestTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Store.RequestTimeout)
	if err != nil {
		return 0
	}
	return d
}

// SearchDebounce returns the parsed debounce window, or zero when unset
// so the debouncer applies its own default.
func (c *Config) SearchDebounce() time.Duration {
	if c.Store.SearchDebounce == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Store.SearchDebounce)
	if err != nil {
		return 0
	}
	return d
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
