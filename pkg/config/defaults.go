package config

import (
	"path/filepath"
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Store paths are derived from library.root, so relocating the root
//     relocates everything that was not configured explicitly
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyLibraryDefaults(&cfg.Library)
	applyContentDefaults(&cfg.Content, cfg.Library.Root)
	applyManifestDefaults(&cfg.Manifest, cfg.Library.Root)
	applyCodecDefaults(&cfg.Codec)
	applyViewsDefaults(&cfg.Views, cfg.Content.Type)
	applyAPIDefaults(&cfg.API)
	applyMetricsDefaults(&cfg.Metrics)
	applyGCDefaults(&cfg.GC)
	applyServerDefaults(&cfg.Server)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyLibraryDefaults(cfg *LibraryConfig) {
	if cfg.Root == "" {
		cfg.Root = getDataDir()
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{"png", "jpeg", "jpg", "webp", "tiff", "tif", "gif", "bmp"}
	}
}

// applyContentDefaults sets content store defaults.
func applyContentDefaults(cfg *ContentConfig, root string) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = filepath.Join(root, "items")
	}

	if cfg.Type == "s3" && cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
}

// applyManifestDefaults sets manifest store defaults.
func applyManifestDefaults(cfg *ManifestConfig, root string) {
	if cfg.Type == "" {
		cfg.Type = "sqlite"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.SQLite == nil {
		cfg.SQLite = make(map[string]any)
	}

	// Apply defaults for all store types (for config file generation)
	if _, ok := cfg.Badger["path"]; !ok {
		cfg.Badger["path"] = filepath.Join(root, "manifest.badger")
	}
	if _, ok := cfg.SQLite["path"]; !ok {
		cfg.SQLite["path"] = filepath.Join(root, "library.db")
	}
}

func applyCodecDefaults(cfg *CodecConfig) {
	if cfg.Compression == "" {
		cfg.Compression = "zstd"
	}
	if cfg.JPEGQuality == 0 {
		cfg.JPEGQuality = 90
	}
	if cfg.MaxPixels == 0 {
		cfg.MaxPixels = 100_000_000
	}
}

// applyViewsDefaults prefers memory mappings when items live on local disk.
func applyViewsDefaults(cfg *ViewsConfig, contentType string) {
	if cfg.Type != "" {
		return
	}
	if contentType == "filesystem" {
		cfg.Type = "mmap"
	} else {
		cfg.Type = "memory"
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8420"
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 8
	}
	if cfg.RequestsPerSecond > 0 && cfg.Burst == 0 {
		cfg.Burst = cfg.RequestsPerSecond * 2
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyGCDefaults(cfg *GCConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		API: APIConfig{
			Enabled: true,
		},
		GC: GCConfig{
			Enabled: true,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
