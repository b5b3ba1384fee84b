package config

import (
	"os"
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Setenv("TANDEM_ADMIN_TOKEN_SECRET", "secret")
		t.Setenv("TANDEM_DB_PATH", "/tmp/test.db")
		t.Setenv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "/tmp/test.db" {
			t.Errorf("Expected DatabasePath '/tmp/test.db', got '%s'", cfg.DatabasePath)
		}
		if cfg.AdminTokenSecret != "secret" {
			t.Errorf("Expected AdminTokenSecret 'secret', got '%s'", cfg.AdminTokenSecret)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("TANDEM_ADMIN_TOKEN_SECRET", "secret")
		os.Unsetenv("TANDEM_DB_PATH")
		os.Unsetenv("TANDEM_SKU_CACHE_TTL")
		os.Unsetenv("TANDEM_SOLVE_TIME_LIMIT")
		os.Unsetenv("TANDEM_BATCH_PENALTY")
		os.Unsetenv("TANDEM_DEFAULT_POSTAL_CODE")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "tandem.db" {
			t.Errorf("Expected default DatabasePath 'tandem.db', got '%s'", cfg.DatabasePath)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("Expected default HTTPAddr ':8080', got '%s'", cfg.HTTPAddr)
		}
		if cfg.DefaultPostalCode != "10001" {
			t.Errorf("Expected default postal code '10001', got '%s'", cfg.DefaultPostalCode)
		}
		if cfg.SKUCacheTTL != 24*time.Hour {
			t.Errorf("Expected default SKU cache TTL 24h, got %v", cfg.SKUCacheTTL)
		}
		if cfg.SolveTimeLimit != 10*time.Second {
			t.Errorf("Expected default solve time limit 10s, got %v", cfg.SolveTimeLimit)
		}
		if cfg.BatchPenalty != 1e-4 {
			t.Errorf("Expected default batch penalty 1e-4, got %v", cfg.BatchPenalty)
		}
	})

	t.Run("MissingAdminSecret", func(t *testing.T) {
		os.Unsetenv("TANDEM_ADMIN_TOKEN_SECRET")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing TANDEM_ADMIN_TOKEN_SECRET, got nil")
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("TANDEM_ADMIN_TOKEN_SECRET", "secret")
		t.Setenv("TANDEM_SKU_CACHE_TTL", "1h")
		t.Setenv("TANDEM_SOLVE_TIME_LIMIT", "30s")
		t.Setenv("TANDEM_BATCH_PENALTY", "0.001")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.SKUCacheTTL != time.Hour {
			t.Errorf("Expected SKU cache TTL 1h, got %v", cfg.SKUCacheTTL)
		}
		if cfg.SolveTimeLimit != 30*time.Second {
			t.Errorf("Expected solve time limit 30s, got %v", cfg.SolveTimeLimit)
		}
		if cfg.BatchPenalty != 0.001 {
			t.Errorf("Expected batch penalty 0.001, got %v", cfg.BatchPenalty)
		}
	})

	t.Run("BadDuration", func(t *testing.T) {
		t.Setenv("TANDEM_ADMIN_TOKEN_SECRET", "secret")
		t.Setenv("TANDEM_SKU_CACHE_TTL", "tomorrow")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for a bad duration, got nil")
		}
	})
}
