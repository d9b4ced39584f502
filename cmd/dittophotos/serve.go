package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/api"
	"github.com/marmos91/dittophotos/pkg/config"
	"github.com/marmos91/dittophotos/pkg/gc"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *globalOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if !cfg.API.Enabled && !cfg.Metrics.Enabled {
		return errors.New("nothing to serve: both api.enabled and metrics.enabled are false")
	}

	metricsResult := config.InitializeMetrics(cfg)

	lib, err := config.CreateLibrary(ctx, cfg, metricsResult)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer func() {
		if err := lib.Close(); err != nil {
			logger.Error("Failed to close library: %v", err)
		}
	}()

	stats := lib.CurrentStats()
	logger.Info("Server configuration:")
	logger.Info("  Library root: %s", cfg.Library.Root)
	logger.Info("  Items: %d (%d bytes)", stats.ItemCount, stats.TotalBytes)
	if cfg.API.Enabled {
		logger.Info("  API address: %s", cfg.API.Address)
	} else {
		logger.Info("  API: disabled")
	}
	if cfg.Metrics.Enabled {
		logger.Info("  Metrics port: %d", cfg.Metrics.Port)
	}
	if cfg.GC.Enabled {
		logger.Info("  GC interval: %v (dry run: %v)", cfg.GC.Interval, cfg.GC.DryRun)
	}
	logger.Info("  Shutdown timeout: %v", cfg.Server.ShutdownTimeout)

	collector := gc.NewCollector(lib, gc.Config{
		Enabled:  cfg.GC.Enabled,
		Interval: cfg.GC.Interval,
		DryRun:   cfg.GC.DryRun,
	})
	collector.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := collector.Stop(stopCtx); err != nil {
			logger.Warn("Garbage collector did not stop cleanly: %v", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	// A metrics endpoint configured on the API address is served by the
	// API router instead of a second listener.
	var mounted http.Handler
	if metricsResult.Server != nil && cfg.API.Enabled && metricsResult.Server.Addr() == cfg.API.Address {
		mounted = metricsResult.Server.Handler()
		logger.Info("  Metrics mounted on the API at %s/metrics", cfg.API.Address)
	}

	if cfg.API.Enabled {
		apiServer := api.New(lib, api.Config{
			Address:           cfg.API.Address,
			ShutdownTimeout:   cfg.Server.ShutdownTimeout,
			RequestsPerSecond: cfg.API.RequestsPerSecond,
			Burst:             cfg.API.Burst,
			MaxWorkers:        cfg.API.MaxWorkers,
			Metrics:           mounted,
		})
		g.Go(func() error {
			return apiServer.Start(gctx)
		})
	}

	if metricsResult.Server != nil && mounted == nil {
		g.Go(func() error {
			err := metricsResult.Server.Start(gctx)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")

	if err := g.Wait(); err != nil {
		logger.Error("Server error: %v", err)
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}
