// Package gc periodically removes orphaned content: stored files that no
// catalog entry or manifest row refers to. Orphans are left behind when a
// compensating cleanup fails after an ingest step, or when the process dies
// between persisting a file and committing its manifest entry.
package gc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/library"
)

// Library is the subset of *library.Library the collector needs.
type Library interface {
	Check(ctx context.Context) (*library.Report, error)
	PruneOrphans(ctx context.Context) (int, error)
}

var _ Library = (*library.Library)(nil)

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether background collection runs.
	Enabled bool

	// Interval is how often to collect (default: 1h).
	Interval time.Duration

	// Timeout bounds a single run (default: 10m).
	Timeout time.Duration

	// DryRun reports orphans without deleting them.
	DryRun bool
}

// Collector runs orphan collection in the background.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	lib    Library
	config Config

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewCollector creates a collector for lib. Call Start to begin collecting.
func NewCollector(lib Library, config Config) *Collector {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}

	return &Collector{
		lib:    lib,
		config: config,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins background collection. Subsequent calls are no-ops.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		return
	}

	c.startOnce.Do(func() {
		logger.Info("Starting garbage collector: interval=%s dry_run=%v", c.config.Interval, c.config.DryRun)
		go c.worker()
	})
}

// Stop signals the worker to exit and waits for an in-progress run to finish
// or ctx to expire. Safe to call multiple times.
func (c *Collector) Stop(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	// A collector that was never started has no worker to wait for.
	c.startOnce.Do(func() { close(c.doneCh) })

	first := false
	c.stopOnce.Do(func() {
		first = true
		close(c.stopCh)
	})
	if !first {
		return nil
	}

	select {
	case <-c.doneCh:
		logger.Info("Garbage collector stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow performs one collection synchronously.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	return c.collect(ctx)
}

func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			return
		}
	}
}

// collect finds orphans with a consistency check and, unless in dry-run
// mode, prunes them.
func (c *Collector) collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	report, err := c.lib.Check(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to check library: %w", err)
	}
	stats.OrphanedCount = len(report.Orphans)
	stats.MissingCount = len(report.Missing)

	if stats.MissingCount > 0 {
		logger.Warn("GC: %d cataloged items have no stored file", stats.MissingCount)
	}

	if stats.OrphanedCount == 0 || c.config.DryRun {
		if c.config.DryRun && stats.OrphanedCount > 0 {
			logger.Info("GC: DRY RUN - would delete %d orphaned files", stats.OrphanedCount)
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	deleted, err := c.lib.PruneOrphans(ctx)
	stats.DeletedCount = deleted
	stats.EndTime = time.Now()
	if err != nil {
		return stats, fmt.Errorf("failed to prune orphans: %w", err)
	}
	return stats, nil
}

// Stats contains statistics from a collection run.
type Stats struct {
	StartTime     time.Time
	EndTime       time.Time
	OrphanedCount int // orphans found by the check
	MissingCount  int // cataloged items whose file is gone
	DeletedCount  int
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("orphaned=%d missing=%d deleted=%d duration=%s",
		s.OrphanedCount, s.MissingCount, s.DeletedCount, s.Duration())
}
