package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

library:
  root: "` + filepath.ToSlash(tmpDir) + `/data"

content:
  type: "filesystem"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Manifest.Type != "sqlite" {
		t.Errorf("Expected default manifest type 'sqlite', got %q", cfg.Manifest.Type)
	}
	if cfg.Views.Type != "mmap" {
		t.Errorf("Expected default views type 'mmap' for filesystem content, got %q", cfg.Views.Type)
	}

	wantItems := filepath.Join(tmpDir, "data", "items")
	if got := cfg.Content.Filesystem["path"]; got != wantItems {
		t.Errorf("Expected content path derived from root %q, got %v", wantItems, got)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Point every XDG directory at a temp dir so the user's own config is
	// never picked up.
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error when config file missing, got: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Library.Root != filepath.Join(tmpDir, "data", "dittophotos") {
		t.Errorf("Expected library root under XDG_DATA_HOME, got %q", cfg.Library.Root)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[logging]
level = "DEBUG"

[library]
root = "` + filepath.ToSlash(tmpDir) + `"
workers = 4

[content]
type = "filesystem"

[manifest]
type = "badger"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Library.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Library.Workers)
	}
	if cfg.Manifest.Type != "badger" {
		t.Errorf("Expected manifest type 'badger', got %q", cfg.Manifest.Type)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
content:
  type: "s3"
views:
  type: "mmap"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for mmap views on s3 content")
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg == nil {
		t.Fatal("GetDefaultConfig returned nil")
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Content.Type != "filesystem" {
		t.Errorf("Expected default content type 'filesystem', got %q", cfg.Content.Type)
	}
	if cfg.Codec.Compression != "zstd" {
		t.Errorf("Expected default compression 'zstd', got %q", cfg.Codec.Compression)
	}
	if !cfg.API.Enabled {
		t.Error("Expected API enabled in default config")
	}
	if cfg.API.Address != "127.0.0.1:8420" {
		t.Errorf("Expected loopback API address, got %q", cfg.API.Address)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if path == "" {
		t.Error("GetDefaultConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if dir == "" {
		t.Error("GetConfigDir returned empty string")
	}
	if filepath.Base(dir) != "dittophotos" {
		t.Errorf("Expected directory name 'dittophotos', got %q", filepath.Base(dir))
	}
}

func TestConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if ConfigExists() {
		t.Fatal("Expected no config in a fresh directory")
	}
	if _, err := InitConfig(false); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if !ConfigExists() {
		t.Error("Expected config to exist after InitConfig")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DITTOPHOTOS_LOGGING_LEVEL", "ERROR")
	t.Setenv("DITTOPHOTOS_LIBRARY_ROOT", filepath.Join(tmpDir, "env-root"))
	t.Setenv("DITTOPHOTOS_METRICS_PORT", "9191")

	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
logging:
  level: "INFO"

content:
  type: "filesystem"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Metrics.Port != 9191 {
		t.Errorf("Expected metrics port 9191 from env var, got %d", cfg.Metrics.Port)
	}

	// Keys absent from the file are still picked up, and derived paths follow.
	wantDB := filepath.Join(tmpDir, "env-root", "library.db")
	if got := cfg.Manifest.SQLite["path"]; got != wantDB {
		t.Errorf("Expected sqlite path %q, got %v", wantDB, got)
	}
}
