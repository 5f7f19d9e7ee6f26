package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadFullConfig(t *testing.T) {
	yamlContent := []byte(`
storage:
  data_dir: "/tmp/tradewind/data"
  sqlite_path: "/tmp/tradewind/tradewind.db"
  archive_interval: 5m
  reconcile_interval: 30s
server:
  host: "0.0.0.0"
  port: 8080
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
  data_url: "https://data.alpaca.markets"
logging:
  level: "info"
  format: "json"
risk:
  max_adv_pct: 0.05
  max_drawdown_pct: 0.03
  max_concentration_pct: 0.15
  disable_fat_finger: false
execution:
  workers: 8
  max_retries: 5
  retry_delay: 100ms
  iceberg_poll: 250ms
  paper_mode: true
  simulator_latency: 10ms
  rate_limit_per_min: 200
  start_of_day_nav: 1000000
portfolio:
  min_qty: 10
  twap_threshold: 1000
  iceberg_threshold: 500
  twap_slices: 10
  twap_duration: 5m
  iceberg_visible: 100
`)

	tmpFile, err := os.CreateTemp("", "tradewind-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	// Clear any environment overrides that might interfere.
	os.Unsetenv("ALPACA_API_KEY")
	os.Unsetenv("ALPACA_API_SECRET")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/tradewind/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/tradewind/data")
	}
	if cfg.Storage.SQLitePath != "/tmp/tradewind/tradewind.db" {
		t.Errorf("Storage.SQLitePath = %q, want %q", cfg.Storage.SQLitePath, "/tmp/tradewind/tradewind.db")
	}
	if cfg.Storage.ArchiveInterval != 5*time.Minute {
		t.Errorf("Storage.ArchiveInterval = %v, want 5m", cfg.Storage.ArchiveInterval)
	}
	if cfg.Storage.ReconcileInterval != 30*time.Second {
		t.Errorf("Storage.ReconcileInterval = %v, want 30s", cfg.Storage.ReconcileInterval)
	}

	// -- Server --
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}

	// -- Alpaca --
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if cfg.Alpaca.BaseURL != "https://paper-api.alpaca.markets" {
		t.Errorf("Alpaca.BaseURL = %q, want %q", cfg.Alpaca.BaseURL, "https://paper-api.alpaca.markets")
	}

	// -- Logging --
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}

	// -- Risk --
	if cfg.Risk.MaxDrawdownPct != 0.03 {
		t.Errorf("Risk.MaxDrawdownPct = %f, want %f", cfg.Risk.MaxDrawdownPct, 0.03)
	}
	if cfg.Risk.MaxConcentrationPct != 0.15 {
		t.Errorf("Risk.MaxConcentrationPct = %f, want %f", cfg.Risk.MaxConcentrationPct, 0.15)
	}

	// -- Execution --
	if cfg.Execution.Workers != 8 {
		t.Errorf("Execution.Workers = %d, want %d", cfg.Execution.Workers, 8)
	}
	if cfg.Execution.MaxRetries != 5 {
		t.Errorf("Execution.MaxRetries = %d, want %d", cfg.Execution.MaxRetries, 5)
	}
	if cfg.Execution.RetryDelay != 100*time.Millisecond {
		t.Errorf("Execution.RetryDelay = %v, want 100ms", cfg.Execution.RetryDelay)
	}
	if !cfg.Execution.PaperMode {
		t.Error("Execution.PaperMode = false, want true")
	}
	if cfg.Execution.StartOfDayNAV != 1000000 {
		t.Errorf("Execution.StartOfDayNAV = %f, want 1000000", cfg.Execution.StartOfDayNAV)
	}

	// -- Portfolio --
	if cfg.Portfolio.TWAPThreshold != 1000 {
		t.Errorf("Portfolio.TWAPThreshold = %f, want 1000", cfg.Portfolio.TWAPThreshold)
	}
	if cfg.Portfolio.TWAPDuration != 5*time.Minute {
		t.Errorf("Portfolio.TWAPDuration = %v, want 5m", cfg.Portfolio.TWAPDuration)
	}
	if cfg.Portfolio.IcebergVisible != 100 {
		t.Errorf("Portfolio.IcebergVisible = %f, want 100", cfg.Portfolio.IcebergVisible)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	yamlContent := []byte(`
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	tmpFile, err := os.CreateTemp("", "tradewind-config-env-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	// Set environment overrides.
	os.Setenv("ALPACA_API_KEY", "env-key")
	os.Setenv("DATA_DIR", "/env/data")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	defer os.Unsetenv("ALPACA_API_KEY")
	defer os.Unsetenv("DATA_DIR")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/tradewind.yaml"); err == nil {
		t.Error("Load of a missing file should return an error")
	}
}
