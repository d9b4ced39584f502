package library_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittophotos/pkg/codec/raster"
	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/content/fs"
	"github.com/marmos91/dittophotos/pkg/library"
	"github.com/marmos91/dittophotos/pkg/manifest"
	"github.com/marmos91/dittophotos/pkg/manifest/memory"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/marmos91/dittophotos/pkg/view"
)

type fixture struct {
	lib      *library.Library
	store    *fs.FSContentStore
	manifest manifest.Manifest
	srcDir   string
}

type fixtureOption func(*library.Config)

func withManifest(m manifest.Manifest) fixtureOption {
	return func(c *library.Config) { c.Manifest = m }
}

func withViews(f view.Factory) fixtureOption {
	return func(c *library.Config) { c.Views = f }
}

// withStore wraps the fixture's filesystem store.
func withStore(wrap func(content.ContentStore) content.ContentStore) fixtureOption {
	return func(c *library.Config) { c.Store = wrap(c.Store) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	return newFixtureAt(t, t.TempDir(), memory.New(), opts...)
}

func newFixtureAt(t *testing.T, root string, m manifest.Manifest, opts ...fixtureOption) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := fs.NewFSContentStore(ctx, fs.FSContentStoreConfig{Path: root, NoSync: true})
	require.NoError(t, err)

	enc, err := raster.New(raster.Options{})
	require.NoError(t, err)

	cfg := library.Config{
		Store:    store,
		Encoder:  enc,
		Manifest: m,
		Clock:    newClock(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	lib, err := library.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })

	return &fixture{lib: lib, store: store, manifest: cfg.Manifest, srcDir: t.TempDir()}
}

// newClock returns a strictly increasing clock so catalog order after a
// reload is deterministic.
func newClock() func() time.Time {
	var (
		mu   sync.Mutex
		tick = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}
}

// writePNG writes a w x h gradient so different sizes encode to different
// lengths.
func (f *fixture) writePNG(t *testing.T, name string, w, h int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x ^ y), A: 255})
		}
	}

	path := filepath.Join(f.srcDir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
	return path
}

func (f *fixture) writeGarbage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.srcDir, name)
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0644))
	return path
}

func (f *fixture) ingest(t *testing.T, paths ...string) *library.IngestResult {
	t.Helper()
	res, err := f.lib.Ingest(context.Background(), paths)
	require.NoError(t, err)
	return res
}

// diskBytes sums the sizes of every stored item.
func (f *fixture) diskBytes(t *testing.T) (int, int64) {
	t.Helper()
	ctx := context.Background()

	ids, err := f.store.List(ctx)
	require.NoError(t, err)

	var total int64
	for _, id := range ids {
		size, err := f.store.Size(ctx, id)
		require.NoError(t, err)
		total += size
	}
	return len(ids), total
}

// requireConsistent asserts the catalog, its counters and the store agree.
func (f *fixture) requireConsistent(t *testing.T) {
	t.Helper()

	entries := f.lib.CurrentCatalog()
	stats := f.lib.CurrentStats()
	count, total := f.diskBytes(t)

	require.Equal(t, len(entries), stats.ItemCount)
	require.Equal(t, count, stats.ItemCount)
	require.Equal(t, total, stats.TotalBytes)

	report, err := f.lib.Check(context.Background())
	require.NoError(t, err)
	require.True(t, report.Consistent, "check report: %+v", report)
}

// failingManifest fails Commit or Remove on demand.
type failingManifest struct {
	manifest.Manifest
	failCommit bool
	failRemove bool
}

var errInjected = errors.New("injected failure")

func (m *failingManifest) Commit(ctx context.Context, e manifest.Entry) error {
	if m.failCommit {
		return fmt.Errorf("commit %s: %w", e.ID, errInjected)
	}
	return m.Manifest.Commit(ctx, e)
}

func (m *failingManifest) Remove(ctx context.Context, id media.ContentID) error {
	if m.failRemove {
		return fmt.Errorf("remove %s: %w", id, errInjected)
	}
	return m.Manifest.Remove(ctx, id)
}

type failingViews struct{}

func (failingViews) Create(context.Context, media.ContentID) (*view.Handle, error) {
	return nil, errInjected
}

// failingStore fails the failOn-th Put (1-based) without writing anything.
type failingStore struct {
	content.ContentStore

	mu     sync.Mutex
	puts   int
	failOn int
}

func (s *failingStore) Put(ctx context.Context, id media.ContentID, data []byte) error {
	s.mu.Lock()
	s.puts++
	fail := s.puts == s.failOn
	s.mu.Unlock()

	if fail {
		return fmt.Errorf("put %s: %w", id, errInjected)
	}
	return s.ContentStore.Put(ctx, id, data)
}
