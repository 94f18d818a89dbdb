package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Ledger        LedgerConfig        `yaml:"ledger"`
	Excel         ExcelConfig         `yaml:"excel"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the read-surface listener configuration.
type HTTPConfig struct {
	Address string `yaml:"address"`
}

// LedgerConfig holds the counting rules.
type LedgerConfig struct {
	// CompletionThreshold is the running count at which a cycle completes.
	CompletionThreshold int `yaml:"completion_threshold"`
	// MaxBatchSize caps how many increments one request may add.
	MaxBatchSize int `yaml:"max_batch_size"`
}

// ExcelConfig holds workbook import/export configuration.
type ExcelConfig struct {
	// Folder is where import workbooks are looked up.
	Folder string `yaml:"folder"`
	// ExportSubfolder, relative to Folder, receives generated exports.
	ExportSubfolder string `yaml:"export_subfolder"`
	// RowHeight and NameColumnWidth control export sheet layout.
	RowHeight       float64 `yaml:"row_height"`
	NameColumnWidth float64 `yaml:"name_column_width"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	Environment    string `yaml:"environment"`
}

const (
	defaultCompletionThreshold = 30
	defaultMaxBatchSize        = 100
	defaultRowHeight           = 50
	defaultNameColumnWidth     = 20
	defaultExportSubfolder     = "exports"
	defaultHTTPAddress         = ":8080"
)

// ExportDir is the directory generated exports are written to.
func (c *Config) ExportDir() string {
	return filepath.Join(c.Excel.Folder, c.Excel.ExportSubfolder)
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("EXCEL_FOLDER"); v != "" {
		cfg.Excel.Folder = v
	}
	if v := os.Getenv("EXPORT_SUBFOLDER"); v != "" {
		cfg.Excel.ExportSubfolder = v
	}
	if v := os.Getenv("COMPLETION_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ledger.CompletionThreshold = n
		}
	}
	if v := os.Getenv("MAX_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ledger.MaxBatchSize = n
		}
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.Observability.MetricsEnabled = v == "true"
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	// Load Postgres DSN
	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	// Load NATS URL
	cfg.NATS.URL = os.Getenv("NATS_URL")
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	cfg.HTTP.Address = os.Getenv("HTTP_ADDRESS")
	cfg.Excel.Folder = os.Getenv("EXCEL_FOLDER")
	cfg.Excel.ExportSubfolder = os.Getenv("EXPORT_SUBFOLDER")
	cfg.Observability.MetricsEnabled = os.Getenv("METRICS_ENABLED") == "true"
	cfg.Observability.Environment = os.Getenv("ENV")

	if v := os.Getenv("COMPLETION_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid COMPLETION_THRESHOLD value: %v", err)
		}
		cfg.Ledger.CompletionThreshold = n
	}
	if v := os.Getenv("MAX_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_BATCH_SIZE value: %v", err)
		}
		cfg.Ledger.MaxBatchSize = n
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Ledger.CompletionThreshold == 0 {
		cfg.Ledger.CompletionThreshold = defaultCompletionThreshold
	}
	if cfg.Ledger.MaxBatchSize == 0 {
		cfg.Ledger.MaxBatchSize = defaultMaxBatchSize
	}
	if cfg.Excel.RowHeight == 0 {
		cfg.Excel.RowHeight = defaultRowHeight
	}
	if cfg.Excel.NameColumnWidth == 0 {
		cfg.Excel.NameColumnWidth = defaultNameColumnWidth
	}
	if cfg.Excel.ExportSubfolder == "" {
		cfg.Excel.ExportSubfolder = defaultExportSubfolder
	}
	if cfg.Excel.Folder == "" {
		cfg.Excel.Folder = "."
	}
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = defaultHTTPAddress
	}
}

func validate(cfg *Config) error {
	if cfg.Ledger.CompletionThreshold < 1 {
		return fmt.Errorf("completion threshold must be positive, got %d", cfg.Ledger.CompletionThreshold)
	}
	if cfg.Ledger.MaxBatchSize < 1 {
		return fmt.Errorf("max batch size must be positive, got %d", cfg.Ledger.MaxBatchSize)
	}
	return nil
}
