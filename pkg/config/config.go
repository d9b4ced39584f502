package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete DittoPhotos configuration.
//
// This structure captures all configurable aspects of the media library:
//   - Logging configuration
//   - Library settings (root directory, ingest workers, accepted extensions)
//   - Content store selection and configuration (store-specific)
//   - Manifest store selection and configuration (store-specific)
//   - Codec, view handle, HTTP API and metrics settings
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOPHOTOS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type and factory function.
// The Config struct contains type-specific sections (e.g., content.filesystem, content.s3)
// and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Library contains library-wide settings
	Library LibraryConfig `mapstructure:"library" yaml:"library"`

	// Content specifies the content store type and type-specific configuration
	Content ContentConfig `mapstructure:"content" yaml:"content"`

	// Manifest specifies the manifest store type and type-specific configuration
	Manifest ManifestConfig `mapstructure:"manifest" yaml:"manifest"`

	// Codec tunes the canonical encoder
	Codec CodecConfig `mapstructure:"codec" yaml:"codec"`

	// Views selects how live view handles hold item bytes
	Views ViewsConfig `mapstructure:"views" yaml:"views"`

	// API configures the local HTTP API
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// GC configures background orphan collection during serve
	GC GCConfig `mapstructure:"gc" yaml:"gc"`

	// Server contains process-wide settings for the serve command
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// LibraryConfig contains library-wide settings.
type LibraryConfig struct {
	// Root is the application-owned data directory. Store and manifest
	// paths default to locations below it.
	Root string `mapstructure:"root" yaml:"root" validate:"required"`

	// Workers is the number of files ingested concurrently (1 = sequential)
	Workers int `mapstructure:"workers" yaml:"workers" validate:"gte=1,lte=64"`

	// Extensions lists the accepted source file extensions
	Extensions []string `mapstructure:"extensions" yaml:"extensions" validate:"min=1,dive,required"`
}

// ContentConfig specifies content store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type ContentConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: filesystem, memory, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// ManifestConfig specifies manifest store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type ManifestConfig struct {
	// Type specifies which manifest implementation to use
	// Valid values: memory, badger, sqlite
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger sqlite"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// SQLite contains SQLite-specific configuration
	// Only used when Type = "sqlite"
	SQLite map[string]any `mapstructure:"sqlite" yaml:"sqlite"`
}

// CodecConfig tunes the canonical encoder.
type CodecConfig struct {
	// Compression of the pixel payload: zstd, lz4 or none
	Compression string `mapstructure:"compression" yaml:"compression" validate:"required,oneof=zstd lz4 none"`

	// Level is the zstd level; 0 selects the library default
	Level int `mapstructure:"level" yaml:"level" validate:"gte=0,lte=22"`

	// JPEGQuality is used when exporting to JPEG
	JPEGQuality int `mapstructure:"jpeg_quality" yaml:"jpeg_quality" validate:"gte=1,lte=100"`

	// MaxPixels bounds width*height of accepted sources
	MaxPixels int `mapstructure:"max_pixels" yaml:"max_pixels" validate:"gte=1"`
}

// ViewsConfig selects the view handle factory.
type ViewsConfig struct {
	// Type is memory (private copy) or mmap (read-only mapping, filesystem store only)
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory mmap"`
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	// Enabled controls whether serve exposes the API
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Address is the listen address; loopback by default
	Address string `mapstructure:"address" yaml:"address" validate:"omitempty,hostname_port"`

	// RequestsPerSecond caps the sustained request rate; 0 disables limiting
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the number of requests allowed above the sustained rate
	Burst uint `mapstructure:"burst" yaml:"burst" validate:"omitempty,gtefield=RequestsPerSecond"`

	// MaxWorkers caps the ingest concurrency a single import request may ask for
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers" validate:"gte=1,lte=64"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Host to bind; empty binds every interface
	Host string `mapstructure:"host" yaml:"host"`

	// Port for the /metrics endpoint
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// GCConfig configures background removal of orphaned content.
type GCConfig struct {
	// Enabled controls whether serve collects orphans periodically
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval between collections
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"omitempty,min=1m"`

	// DryRun logs orphans without deleting them
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// ServerConfig contains settings of the long-running serve command.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// envKeys are bound explicitly so environment variables apply even when the
// config file does not mention the key.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"library.root",
	"library.workers",
	"content.type",
	"manifest.type",
	"codec.compression",
	"codec.level",
	"views.type",
	"api.enabled",
	"api.address",
	"api.requests_per_second",
	"api.burst",
	"metrics.enabled",
	"metrics.port",
	"gc.enabled",
	"gc.interval",
	"gc.dry_run",
	"server.shutdown_timeout",
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOPHOTOS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use DITTOPHOTOS_ prefix and underscores
	// Example: DITTOPHOTOS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOPHOTOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/dittophotos/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittophotos")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittophotos")
}

// getDataDir returns the default library root.
//
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func getDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "dittophotos")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "dittophotos-data")
	}

	return filepath.Join(home, ".local", "share", "dittophotos")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
