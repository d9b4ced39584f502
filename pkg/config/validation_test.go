package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Library.Root = "/tmp/dittophotos-validation"
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "Level") {
		t.Errorf("Expected error mentioning Level, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for invalid log format")
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "INFO", "WARN", "ERROR"} {
		cfg := validConfig()
		cfg.Logging.Level = level

		if err := Validate(cfg); err != nil {
			t.Errorf("Level %q should be valid, got: %v", level, err)
		}
	}
}

func TestValidate_InvalidContentType(t *testing.T) {
	cfg := validConfig()
	cfg.Content.Type = "ftp"

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for invalid content type")
	}
}

func TestValidate_InvalidManifestType(t *testing.T) {
	cfg := validConfig()
	cfg.Manifest.Type = "postgres"

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for invalid manifest type")
	}
}

func TestValidate_InvalidCompression(t *testing.T) {
	cfg := validConfig()
	cfg.Codec.Compression = "brotli"

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for invalid compression")
	}
}

func TestValidate_ZstdLevelRange(t *testing.T) {
	cfg := validConfig()
	cfg.Codec.Level = 23

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for zstd level above 22")
	}
}

func TestValidate_JPEGQualityRange(t *testing.T) {
	cfg := validConfig()
	cfg.Codec.JPEGQuality = 101

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for JPEG quality above 100")
	}
}

func TestValidate_WorkersRange(t *testing.T) {
	cfg := validConfig()
	cfg.Library.Workers = 0

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for zero workers")
	}
}

func TestValidate_EmptyRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Library.Root = ""

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for empty library root")
	}
}

func TestValidate_UnknownExtension(t *testing.T) {
	cfg := validConfig()
	cfg.Library.Extensions = []string{"png", "heic"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for unsupported extension")
	}
	if !strings.Contains(err.Error(), "extensions[1]") {
		t.Errorf("Expected error to name the offending entry, got: %v", err)
	}
}

func TestValidate_MmapRequiresFilesystem(t *testing.T) {
	cfg := validConfig()
	cfg.Content.Type = "s3"
	cfg.Views.Type = "mmap"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for mmap views on s3 content")
	}
	if !strings.Contains(err.Error(), "mmap") {
		t.Errorf("Expected error mentioning mmap, got: %v", err)
	}
}

func TestValidate_MemoryContentNeedsMemoryManifest(t *testing.T) {
	cfg := validConfig()
	cfg.Content.Type = "memory"
	cfg.Views.Type = "memory"
	cfg.Manifest.Type = "sqlite"

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for memory content with persistent manifest")
	}

	cfg.Manifest.Type = "memory"
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected memory/memory to be valid, got: %v", err)
	}
}

func TestValidate_InvalidAPIAddress(t *testing.T) {
	cfg := validConfig()
	cfg.API.Address = "not an address"

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for invalid API address")
	}
}

func TestValidate_APIBurstBelowRate(t *testing.T) {
	cfg := validConfig()
	cfg.API.RequestsPerSecond = 10
	cfg.API.Burst = 5

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for burst below the sustained rate")
	}

	cfg.API.Burst = 10
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected burst equal to rate to be valid, got: %v", err)
	}
}

func TestValidate_InvalidMetricsPort(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for metrics port above 65535")
	}
}

func TestValidate_InvalidShutdownTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ShutdownTimeout = 0

	if err := Validate(cfg); err == nil {
		t.Error("Expected error for zero shutdown timeout")
	}

	cfg.Server.ShutdownTimeout = -1 * time.Second
	if err := Validate(cfg); err == nil {
		t.Error("Expected error for negative shutdown timeout")
	}
}

func TestValidate_APIMaxWorkersRange(t *testing.T) {
	cfg := validConfig()
	cfg.API.MaxWorkers = 65

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for more than 64 import workers")
	}
	if !strings.Contains(err.Error(), "MaxWorkers") {
		t.Errorf("Expected error mentioning MaxWorkers, got: %v", err)
	}
}
