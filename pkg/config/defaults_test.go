package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_LogLevelNormalized(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Library(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/var/lib/xdg")
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Library.Root != filepath.Join("/var/lib/xdg", "dittophotos") {
		t.Errorf("Expected root under XDG_DATA_HOME, got %q", cfg.Library.Root)
	}
	if cfg.Library.Workers != 1 {
		t.Errorf("Expected sequential ingest by default, got %d workers", cfg.Library.Workers)
	}
	if len(cfg.Library.Extensions) == 0 {
		t.Error("Expected default extensions")
	}
}

func TestApplyDefaults_StorePathsFollowRoot(t *testing.T) {
	cfg := &Config{Library: LibraryConfig{Root: "/photos"}}
	ApplyDefaults(cfg)

	if cfg.Content.Type != "filesystem" {
		t.Errorf("Expected default content type 'filesystem', got %q", cfg.Content.Type)
	}
	if got := cfg.Content.Filesystem["path"]; got != filepath.Join("/photos", "items") {
		t.Errorf("Unexpected content path %v", got)
	}
	if got := cfg.Manifest.SQLite["path"]; got != filepath.Join("/photos", "library.db") {
		t.Errorf("Unexpected sqlite path %v", got)
	}
	if got := cfg.Manifest.Badger["path"]; got != filepath.Join("/photos", "manifest.badger") {
		t.Errorf("Unexpected badger path %v", got)
	}
}

func TestApplyDefaults_Codec(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Codec.Compression != "zstd" {
		t.Errorf("Expected default compression 'zstd', got %q", cfg.Codec.Compression)
	}
	if cfg.Codec.JPEGQuality != 90 {
		t.Errorf("Expected default JPEG quality 90, got %d", cfg.Codec.JPEGQuality)
	}
	if cfg.Codec.MaxPixels != 100_000_000 {
		t.Errorf("Expected default max pixels 100M, got %d", cfg.Codec.MaxPixels)
	}
}

func TestApplyDefaults_ViewsFollowContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"filesystem", "mmap"},
		{"memory", "memory"},
		{"s3", "memory"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			cfg := &Config{Content: ContentConfig{Type: tt.contentType}}
			ApplyDefaults(cfg)

			if cfg.Views.Type != tt.want {
				t.Errorf("Expected views type %q, got %q", tt.want, cfg.Views.Type)
			}
		})
	}
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.API.Address != "127.0.0.1:8420" {
		t.Errorf("Expected default API address, got %q", cfg.API.Address)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_GC(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.GC.Interval != time.Hour {
		t.Errorf("Expected default GC interval 1h, got %v", cfg.GC.Interval)
	}
	if cfg.GC.Enabled {
		t.Error("ApplyDefaults should not enable GC on its own")
	}

	if !GetDefaultConfig().GC.Enabled {
		t.Error("Expected GC enabled in default config")
	}
}

func TestApplyDefaults_APIRateLimit(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.API.RequestsPerSecond != 0 || cfg.API.Burst != 0 {
		t.Errorf("Expected rate limiting disabled by default, got %d/%d", cfg.API.RequestsPerSecond, cfg.API.Burst)
	}

	cfg = &Config{API: APIConfig{RequestsPerSecond: 50}}
	ApplyDefaults(cfg)
	if cfg.API.Burst != 100 {
		t.Errorf("Expected burst to default to twice the rate, got %d", cfg.API.Burst)
	}
}

func TestApplyDefaults_APIMaxWorkers(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.API.MaxWorkers != 8 {
		t.Errorf("Expected 8 max import workers by default, got %d", cfg.API.MaxWorkers)
	}

	cfg = &Config{API: APIConfig{MaxWorkers: 32}}
	ApplyDefaults(cfg)
	if cfg.API.MaxWorkers != 32 {
		t.Errorf("Explicit max workers overridden: %d", cfg.API.MaxWorkers)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "WARN", Format: "json", Output: "stderr"},
		Library: LibraryConfig{Root: "/data", Workers: 8, Extensions: []string{"png"}},
		Content: ContentConfig{
			Type:       "filesystem",
			Filesystem: map[string]any{"path": "/mnt/items"},
		},
		Manifest: ManifestConfig{
			Type:   "badger",
			Badger: map[string]any{"path": "/mnt/index"},
		},
		Codec:  CodecConfig{Compression: "lz4", JPEGQuality: 75, MaxPixels: 1000},
		Views:  ViewsConfig{Type: "memory"},
		API:    APIConfig{Address: "127.0.0.1:9999"},
		Server: ServerConfig{ShutdownTimeout: 5 * time.Second},
	}

	ApplyDefaults(cfg)

	if cfg.Logging.Format != "json" || cfg.Logging.Output != "stderr" {
		t.Errorf("Logging overridden: %+v", cfg.Logging)
	}
	if cfg.Library.Workers != 8 || len(cfg.Library.Extensions) != 1 {
		t.Errorf("Library overridden: %+v", cfg.Library)
	}
	if cfg.Content.Filesystem["path"] != "/mnt/items" {
		t.Errorf("Content path overridden: %v", cfg.Content.Filesystem["path"])
	}
	if cfg.Manifest.Badger["path"] != "/mnt/index" {
		t.Errorf("Badger path overridden: %v", cfg.Manifest.Badger["path"])
	}
	if cfg.Codec.Compression != "lz4" || cfg.Codec.JPEGQuality != 75 {
		t.Errorf("Codec overridden: %+v", cfg.Codec)
	}
	if cfg.Views.Type != "memory" {
		t.Errorf("Views overridden: %q", cfg.Views.Type)
	}
	if cfg.API.Address != "127.0.0.1:9999" {
		t.Errorf("API address overridden: %q", cfg.API.Address)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Shutdown timeout overridden: %v", cfg.Server.ShutdownTimeout)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}
