package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_MODEL", "")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.PDFDir != filepath.Join(dir, "pdfs") {
		t.Errorf("PDFDir: got %q", cfg.PDFDir)
	}
	if cfg.ReviewDir != filepath.Join(dir, "reviews") {
		t.Errorf("ReviewDir: got %q", cfg.ReviewDir)
	}
	if cfg.DBPath != filepath.Join(dir, "duckdb", "reviews.duckdb") {
		t.Errorf("DBPath: got %q", cfg.DBPath)
	}
	if cfg.ParquetPath != filepath.Join(dir, "duckdb", "reviews.parquet") {
		t.Errorf("ParquetPath: got %q", cfg.ParquetPath)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model: got %q", cfg.Model)
	}
	if err := cfg.RequireAPIKey(); err == nil {
		t.Error("expected RequireAPIKey to fail without GEMINI_API_KEY")
	}
}

func TestLoadFileOverrides(t *testing.T) {
	dir := t.TempDir()
	content := "pdf_dir: /data/papers\nmodel: gemini-2.5-pro\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEMINI_MODEL", "")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PDFDir != "/data/papers" {
		t.Errorf("PDFDir override: got %q", cfg.PDFDir)
	}
	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("Model override: got %q", cfg.Model)
	}
	// Unset fields still get defaults.
	if cfg.DBPath != filepath.Join(dir, "duckdb", "reviews.duckdb") {
		t.Errorf("DBPath: got %q", cfg.DBPath)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "gemini-env-model")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "test-key" {
		t.Errorf("APIKey: got %q", cfg.APIKey)
	}
	if cfg.Model != "gemini-env-model" {
		t.Errorf("Model from env: got %q", cfg.Model)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("RequireAPIKey: %v", err)
	}
}

func TestLoadBadConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(":\tnot yaml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for malformed config file")
	}
}
