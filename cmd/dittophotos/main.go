package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/config"
	"github.com/marmos91/dittophotos/pkg/library"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "dittophotos",
		Short: "A local media library with a single canonical on-disk encoding",
		Long: `dittophotos imports images into an application-owned directory, stores each one
in a canonical lossless encoding under a fresh identifier, and exports them back
into common formats on demand.

Usage examples:

1. Create a configuration file:

	dittophotos init

2. Import a few pictures and list the library:

	dittophotos import ~/Pictures/*.jpg
	dittophotos list

3. Export the newest item as PNG, then delete it:

	dittophotos export #0 ~/Desktop/latest.png
	dittophotos delete #0
`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/dittophotos/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (DEBUG, INFO, WARN, ERROR)")

	root.AddCommand(
		newInitCommand(),
		newImportCommand(opts),
		newExportCommand(opts),
		newDeleteCommand(opts),
		newListCommand(opts),
		newStatsCommand(opts),
		newCheckCommand(opts),
		newServeCommand(opts),
		newConfigCommand(opts),
	)

	return root
}

// loadConfig loads the configuration and applies the logging section.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		return nil, fmt.Errorf("failed to configure log output: %w", err)
	}

	return cfg, nil
}

// openLibrary loads the configuration and opens the library without metrics.
func openLibrary(ctx context.Context, opts *globalOptions) (*library.Library, *config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	lib, err := config.CreateLibrary(ctx, cfg, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open library: %w", err)
	}
	return lib, cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
