// Package config resolves the pipeline's directory layout and credentials.
// An optional litpipe.yaml sets explicit values; environment variables and
// built-in defaults fill whatever it leaves blank (pdfs/, reviews/, duckdb/).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultModel is used when GEMINI_MODEL is not set.
const DefaultModel = "gemini-2.0-flash"

// ConfigFileName is the optional per-workspace config file.
const ConfigFileName = "litpipe.yaml"

// Config holds everything the three stages need. The loader never touches
// APIKey; only the extractor and the query assistant require it.
type Config struct {
	BaseDir     string `yaml:"base_dir"`
	PDFDir      string `yaml:"pdf_dir"`
	ReviewDir   string `yaml:"review_dir"`
	DBPath      string `yaml:"db_path"`
	ParquetPath string `yaml:"parquet_path"`
	Model       string `yaml:"model"`

	APIKey string `yaml:"-"`
}

// Load resolves the configuration for baseDir. An empty baseDir falls back to
// LITPIPE_BASE_DIR, then the current directory.
func Load(baseDir string) (*Config, error) {
	if baseDir == "" {
		baseDir = os.Getenv("LITPIPE_BASE_DIR")
	}
	if baseDir == "" {
		baseDir = "."
	}

	cfg := &Config{BaseDir: baseDir}

	// Optional file overrides.
	data, err := os.ReadFile(filepath.Join(baseDir, ConfigFileName))
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
		}
		cfg.BaseDir = baseDir
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFileName, err)
	}

	if cfg.PDFDir == "" {
		cfg.PDFDir = filepath.Join(baseDir, "pdfs")
	}
	if cfg.ReviewDir == "" {
		cfg.ReviewDir = filepath.Join(baseDir, "reviews")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(baseDir, "duckdb", "reviews.duckdb")
	}
	if cfg.ParquetPath == "" {
		cfg.ParquetPath = filepath.Join(baseDir, "duckdb", "reviews.parquet")
	}
	if cfg.Model == "" {
		cfg.Model = os.Getenv("GEMINI_MODEL")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	return cfg, nil
}

// RequireAPIKey fails fast for the stages that talk to the model.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY not set (export it or add it to your .env)")
	}
	return nil
}
