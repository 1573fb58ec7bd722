package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "ENVIRONMENT", "LOG_LEVEL",
		"GCP_PROJECT", "DEPLOY_ID",
		"QKART_BACKEND_URL", "QKART_SESSION_PATH", "QKART_REQUEST_TIMEOUT",
		"QKART_MIN_AGENT_VERSION", "QKART_SEARCH_DEBOUNCE", "QKART_EXACT_DEBIT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("QKART_BACKEND_URL", "http://localhost:8082/api/v1")
	t.Setenv("QKART_REQUEST_TIMEOUT", "10s")
	t.Setenv("QKART_EXACT_DEBIT", "true")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want default 8080", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Store.BackendURL != "http://localhost:8082/api/v1" {
		t.Errorf("BackendURL = %q", cfg.Store.BackendURL)
	}
	if got := cfg.RequestTimeout(); got != 10*time.Second {
		t.Errorf("RequestTimeout() = %v, want 10s", got)
	}
	if !cfg.Store.ExactDebit {
		t.Error("ExactDebit = false, want true")
	}
}

func TestLoadMissingBackendURL(t *testing.T) {
	clearEnv(t)

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for missing backend_url")
	}
}

func TestLoadRejectsBadScheme(t *testing.T) {
	clearEnv(t)
	t.Setenv("QKART_BACKEND_URL", "ftp://example.com")

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for non-http backend_url")
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("QKART_BACKEND_URL", "http://localhost:8082/api/v1")
	t.Setenv("QKART_REQUEST_TIMEOUT", "soon")

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for unparseable request_timeout")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"port": "9090",
		"log_level": "debug",
		"store": {
			"backend_url": "https://qkart.example.com/api/v1",
			"min_agent_version": "1.2.0",
			"search_debounce": "250ms"
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Store.MinAgentVersion != "1.2.0" {
		t.Errorf("MinAgentVersion = %q, want 1.2.0", cfg.Store.MinAgentVersion)
	}
	if got := cfg.SearchDebounce(); got != 250*time.Millisecond {
		t.Errorf("SearchDebounce() = %v, want 250ms", got)
	}
}

func TestLoadFromFileValidates(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"store": {}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected validation error for empty store config")
	}
}

func TestProductionRequiresGCPSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for missing GCP_PROJECT")
	}

	t.Setenv("GCP_PROJECT", "demo-project")
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for missing DEPLOY_ID")
	}
}
