package cfg

import (
	"os"
	"testing"
	"time"
)

// unsetEnv removes keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "CONFIG_DIR", "DB_PATH", "CACHE_TTL", "PORT", "WORKER_COUNT", "FORMAT", "TZ")

	cfg, rest, err := Load([]string{"compare", "scope.pdf", "RE"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.ConfigDir != "./config" {
		t.Errorf("Expected config dir './config', got '%s'", cfg.ConfigDir)
	}
	if cfg.CacheTTL != 86400 {
		t.Errorf("Expected cache TTL 86400, got %d", cfg.CacheTTL)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.Format != "table" {
		t.Errorf("Expected format 'table', got '%s'", cfg.Format)
	}
	if cfg.Version == "" {
		t.Error("Expected version to be set")
	}

	if len(rest) != 3 || rest[0] != "compare" || rest[2] != "RE" {
		t.Errorf("Expected command arguments to be returned, got %v", rest)
	}

	if Get() != cfg {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestLoad_FlagsAndEnv(t *testing.T) {
	unsetEnv(t, "FORMAT", "DB_PATH", "ARTICLES")
	t.Setenv("CACHE_TTL", "60")
	t.Setenv("API_ACCESS_KEY", "secret")

	cfg, _, err := Load([]string{"--format", "json", "--db-path", ":memory:", "--articles", "journal", "RE"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Format != "json" {
		t.Errorf("Expected format 'json', got '%s'", cfg.Format)
	}
	if cfg.DBPath != ":memory:" {
		t.Errorf("Expected in-memory database, got '%s'", cfg.DBPath)
	}
	if !cfg.Articles {
		t.Error("Expected articles to be enabled")
	}
	if cfg.GetCacheTTL() != time.Minute {
		t.Errorf("Expected cache TTL of one minute, got %v", cfg.GetCacheTTL())
	}
	if cfg.APIAccessKey != "secret" {
		t.Errorf("Expected API key from environment, got '%s'", cfg.APIAccessKey)
	}
}

func TestLoad_InvalidFormat(t *testing.T) {
	if _, _, err := Load([]string{"--format", "xml", "official", "RE"}); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestCfg_GetTimeout(t *testing.T) {
	cfg := &Cfg{}
	if cfg.GetTimeout() != 30*time.Second {
		t.Errorf("Expected default timeout of 30s, got %v", cfg.GetTimeout())
	}

	cfg.Timeout = 5
	if cfg.GetTimeout() != 5*time.Second {
		t.Errorf("Expected timeout of 5s, got %v", cfg.GetTimeout())
	}
}
