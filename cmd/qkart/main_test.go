package main

import (
	"testing"
	"time"

	"qkart/internal/search"
)

func TestDefaultDebounceFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("QKART_BACKEND_URL", "http://localhost:8082/api/v1")
	t.Setenv("QKART_SEARCH_DEBOUNCE", "250ms")

	if got := defaultDebounce(); got != 250*time.Millisecond {
		t.Fatalf("defaultDebounce() = %v, want 250ms", got)
	}
}

func TestDefaultDebounceFallsBackWithoutConfig(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("QKART_BACKEND_URL", "")
	t.Setenv("QKART_SEARCH_DEBOUNCE", "")

	if got := defaultDebounce(); got != search.DefaultDelay {
		t.Fatalf("defaultDebounce() = %v, want %v", got, search.DefaultDelay)
	}
}
