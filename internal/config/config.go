package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tradewind/internal/exec"
	"tradewind/internal/risk"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the tradewind platform.
type Config struct {
	Storage   Storage         `yaml:"storage"`
	Server    Server          `yaml:"server"`
	Alpaca    Alpaca          `yaml:"alpaca"`
	Logging   Logging         `yaml:"logging"`
	Risk      risk.Config     `yaml:"risk"`
	Execution Execution       `yaml:"execution"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`

	// ArchiveInterval controls how often executions are archived to
	// Parquet; zero disables archiving.
	ArchiveInterval time.Duration `yaml:"archive_interval"`

	// ReconcileInterval controls the background state reconciliation pass;
	// zero disables it.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca broker API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Execution tunes the execution core and broker selection.
type Execution struct {
	exec.Config `yaml:",inline"`

	// PaperMode selects the simulator broker instead of the live venue.
	PaperMode bool `yaml:"paper_mode"`

	// SimulatorLatency is the artificial fill latency in paper mode.
	SimulatorLatency time.Duration `yaml:"simulator_latency"`

	// RateLimitPerMin bounds live broker requests per minute.
	RateLimitPerMin int `yaml:"rate_limit_per_min"`

	// StartOfDayNAV seeds the risk context's drawdown baseline.
	StartOfDayNAV float64 `yaml:"start_of_day_nav"`
}

// PortfolioConfig defines rebalance slicing thresholds and parameters.
type PortfolioConfig struct {
	MinQty           float64       `yaml:"min_qty"`
	TWAPThreshold    float64       `yaml:"twap_threshold"`
	IcebergThreshold float64       `yaml:"iceberg_threshold"`
	TWAPSlices       int           `yaml:"twap_slices"`
	TWAPDuration     time.Duration `yaml:"twap_duration"`
	IcebergVisible   float64       `yaml:"iceberg_visible"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
