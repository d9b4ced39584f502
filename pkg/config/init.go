package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const configHeader = `# DittoPhotos Configuration File
#
# Every value below is the built-in default. Any key can be overridden with an
# environment variable: DITTOPHOTOS_<SECTION>_<KEY>, e.g.
# DITTOPHOTOS_LOGGING_LEVEL=DEBUG or DITTOPHOTOS_LIBRARY_ROOT=/srv/photos.
`

// section is one top-level block of the generated file.
type section struct {
	key     string
	comment string
	value   any
}

// InitConfig writes a default configuration file to the default location and
// returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg section by section, each preceded by
// a short explanation.
func generateYAMLWithComments(cfg *Config) (string, error) {
	sections := []section{
		{"logging", "Log level (DEBUG, INFO, WARN, ERROR), format (text, json) and output (stdout, stderr or a file path)", cfg.Logging},
		{"library", "Application-owned data directory, ingest concurrency and accepted source extensions", cfg.Library},
		{"content", "Where encoded items are stored: filesystem, memory or s3\n" +
			"s3 options: region, bucket, key_prefix, endpoint, access_key_id, secret_access_key, max_retries", cfg.Content},
		{"manifest", "Persistent index of stored items: sqlite, badger or memory", cfg.Manifest},
		{"codec", "Canonical encoding: pixel compression (zstd, lz4, none), zstd level, JPEG export quality and source size limit", cfg.Codec},
		{"views", "Live view handles: mmap (filesystem content only) or memory", cfg.Views},
		{"api", "Local HTTP API started by 'dittophotos serve'", cfg.API},
		{"metrics", "Prometheus /metrics endpoint", cfg.Metrics},
		{"gc", "Periodic removal of stored files that no catalog entry refers to", map[string]any{
			"enabled":  cfg.GC.Enabled,
			"interval": cfg.GC.Interval.String(),
			"dry_run":  cfg.GC.DryRun,
		}},
		{"server", "Graceful shutdown budget of 'dittophotos serve'", map[string]string{
			"shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
		}},
	}

	var b strings.Builder
	b.WriteString(configHeader)

	for _, s := range sections {
		out, err := yaml.Marshal(map[string]any{s.key: s.value})
		if err != nil {
			return "", fmt.Errorf("failed to render %s section: %w", s.key, err)
		}

		b.WriteString("\n")
		for _, line := range strings.Split(s.comment, "\n") {
			b.WriteString("# ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.Write(out)
	}

	return b.String(), nil
}
