// Package library wires the encoder, content store, manifest, view factory
// and catalog into the caller-facing operations: Ingest, Export, Delete and
// Check.
//
// The catalog is the in-memory truth of what the user sees; the content store
// is the durable truth of what exists. Every operation keeps the two in step,
// and New reconciles them at startup.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/catalog"
	"github.com/marmos91/dittophotos/pkg/codec"
	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/manifest"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/marmos91/dittophotos/pkg/metrics"
	"github.com/marmos91/dittophotos/pkg/view"
	viewmemory "github.com/marmos91/dittophotos/pkg/view/memory"
)

// DefaultExtensions are the source extensions Ingest accepts by default.
var DefaultExtensions = []string{"png", "jpeg", "jpg", "webp", "tiff", "tif", "gif", "bmp"}

// ErrClosed is returned by operations on a closed library.
var ErrClosed = errors.New("library closed")

// Config holds the collaborators of a Library. Store, Encoder and Manifest
// are required.
type Config struct {
	Store    content.ContentStore
	Encoder  codec.Encoder
	Manifest manifest.Manifest

	// Views creates view handles. Defaults to copying the stored bytes.
	Views view.Factory

	// Metrics defaults to the no-op implementation.
	Metrics metrics.LibraryMetrics

	// Workers is the default ingest concurrency. Defaults to 1 (sequential).
	Workers int

	// Extensions restricts accepted source files. Defaults to DefaultExtensions.
	Extensions []string

	// Clock stamps manifest entries. Defaults to time.Now.
	Clock func() time.Time
}

// Library is safe for concurrent use.
type Library struct {
	store      content.ContentStore
	encoder    codec.Encoder
	manifest   manifest.Manifest
	views      view.Factory
	metrics    metrics.LibraryMetrics
	catalog    *catalog.Catalog
	workers    int
	extensions map[string]bool
	now        func() time.Time

	// inflight is held shared by every running operation and exclusively by
	// PruneOrphans and Close, so a file between Put and Insert is never
	// pruned and Close waits for running items before emptying the catalog.
	inflight sync.RWMutex

	closed atomic.Bool
}

// New validates cfg, opens the library and reconciles the catalog with the
// content store and manifest.
func New(ctx context.Context, cfg Config) (*Library, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("library: content store is required")
	}
	if cfg.Encoder == nil {
		return nil, fmt.Errorf("library: encoder is required")
	}
	if cfg.Manifest == nil {
		return nil, fmt.Errorf("library: manifest is required")
	}
	if want := cfg.Encoder.Format().Extension(); cfg.Store.Extension() != want {
		return nil, fmt.Errorf("library: store extension %q does not match encoder format %q",
			cfg.Store.Extension(), want)
	}

	if cfg.Views == nil {
		cfg.Views = viewmemory.New(cfg.Store)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoopLibraryMetrics()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	l := &Library{
		store:      cfg.Store,
		encoder:    cfg.Encoder,
		manifest:   cfg.Manifest,
		views:      cfg.Views,
		metrics:    cfg.Metrics,
		workers:    cfg.Workers,
		extensions: extensionSet(cfg.Extensions),
		now:        cfg.Clock,
	}
	l.catalog = catalog.New(catalog.WithObserver(func(s catalog.Stats) {
		l.metrics.SetCatalog(s.ItemCount, s.TotalBytes)
		l.metrics.SetLiveViews(view.Live())
	}))

	if err := l.reconcile(ctx); err != nil {
		return nil, err
	}

	return l, nil
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return set
}

// reconcile rebuilds the catalog from the manifest entries whose file is
// present in the store. Entries without a file are pruned; files without an
// entry stay invisible and are reported by Check.
func (l *Library) reconcile(ctx context.Context) error {
	stored, err := l.store.List(ctx)
	if err != nil {
		return fmt.Errorf("library: list content store: %w", err)
	}
	present := make(map[media.ContentID]bool, len(stored))
	for _, id := range stored {
		present[id] = true
	}

	entries, err := l.manifest.List(ctx)
	if err != nil {
		return fmt.Errorf("library: list manifest: %w", err)
	}

	items := make([]catalog.Item, 0, len(entries))
	indexed := make(map[media.ContentID]bool, len(entries))
	for _, e := range entries {
		indexed[e.ID] = true

		if !present[e.ID] {
			logger.Warn("library: pruning manifest entry %s: stored file is missing", e.ID)
			if err := l.manifest.Remove(ctx, e.ID); err != nil {
				logger.Warn("library: failed to prune manifest entry %s: %v", e.ID, err)
			}
			continue
		}

		size, err := l.store.Size(ctx, e.ID)
		if err != nil {
			logger.Warn("library: skipping %s: %v", e.ID, err)
			continue
		}
		h, err := l.views.Create(ctx, e.ID)
		if err != nil {
			logger.Warn("library: skipping %s: failed to create view handle: %v", e.ID, err)
			continue
		}
		items = append(items, catalog.Item{ID: e.ID, Size: size, Handle: h})
	}

	if err := l.catalog.Reconcile(items); err != nil {
		return fmt.Errorf("library: reconcile catalog: %w", err)
	}

	orphans := 0
	for _, id := range stored {
		if !indexed[id] {
			orphans++
		}
	}
	if orphans > 0 {
		logger.Warn("library: %d stored files have no manifest entry and are hidden; run check for details", orphans)
	}

	stats := l.catalog.Stats()
	logger.Info("library: loaded %d items (%d bytes)", stats.ItemCount, stats.TotalBytes)
	return nil
}

// CurrentCatalog returns a snapshot of the current catalog, newest first.
func (l *Library) CurrentCatalog() []catalog.Entry {
	return l.catalog.Snapshot()
}

// CurrentStats returns the current aggregate counters.
func (l *Library) CurrentStats() catalog.Stats {
	return l.catalog.Stats()
}

// Extension returns the stored item extension.
func (l *Library) Extension() string {
	return l.store.Extension()
}

// acquire keeps the library open until the returned release is called.
// Callers must not acquire twice on the same goroutine.
func (l *Library) acquire() (release func(), err error) {
	l.inflight.RLock()
	if l.closed.Load() {
		l.inflight.RUnlock()
		return nil, ErrClosed
	}
	return l.inflight.RUnlock, nil
}

// Entry returns the manifest entry of a cataloged item.
func (l *Library) Entry(ctx context.Context, id media.ContentID) (manifest.Entry, error) {
	release, err := l.acquire()
	if err != nil {
		return manifest.Entry{}, err
	}
	defer release()

	if !l.catalog.Contains(id) {
		return manifest.Entry{}, media.E(media.ErrNotFound, "entry", nil).WithID(id)
	}
	e, err := l.manifest.Get(ctx, id)
	if err != nil {
		return manifest.Entry{}, media.E(media.ErrIO, "entry", err).WithID(id)
	}
	return e, nil
}

// Close waits for running operations, releases every view handle and
// closes the manifest and encoder. Operations started afterwards fail with
// ErrClosed; items of a running batch that have not started yet are
// reported as failures.
func (l *Library) Close() error {
	if l.closed.Swap(true) {
		return nil
	}

	l.inflight.Lock()
	l.catalog.Close()
	l.inflight.Unlock()

	var errs []error
	if err := l.manifest.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close manifest: %w", err))
	}
	if c, ok := l.encoder.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close encoder: %w", err))
		}
	}
	return errors.Join(errs...)
}
