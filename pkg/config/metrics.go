package config

import (
	"github.com/marmos91/dittophotos/pkg/metrics"
	promMetrics "github.com/marmos91/dittophotos/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// Library is the collector for library operations (never nil, uses noop if disabled)
	Library metrics.LibraryMetrics

	// Store is the collector for content store operations (never nil, uses noop if disabled)
	Store metrics.StoreMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			Library: metrics.NewNoopLibraryMetrics(),
			Store:   metrics.NewNoopStoreMetrics(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Host:            cfg.Metrics.Host,
		Port:            cfg.Metrics.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	return &MetricsResult{
		Server:  server,
		Library: promMetrics.NewLibraryMetrics(),
		Store:   promMetrics.NewStoreMetrics(),
	}
}
