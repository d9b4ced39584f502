package library

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/manifest"
	"github.com/marmos91/dittophotos/pkg/media"
)

// Failure describes one source path that could not be ingested.
type Failure struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`

	Err error `json:"-"`
}

// IngestResult is the outcome of a batch. Every input path appears exactly
// once, either in Succeeded (as the identifier it was stored under) or in
// Failures.
type IngestResult struct {
	Succeeded []media.ContentID `json:"succeeded"`
	Failures  []Failure         `json:"failures"`
}

// Progress is reported after each item of a batch completes.
type Progress struct {
	Done  int
	Total int
	Path  string
	ID    media.ContentID
	Err   error
}

// ProgressFunc receives batch progress. Calls never overlap.
type ProgressFunc func(Progress)

// IngestOption configures a single Ingest call.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	progress   ProgressFunc
	workers    int
	extensions map[string]bool
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) IngestOption {
	return func(o *ingestOptions) {
		o.progress = fn
	}
}

// WithWorkers overrides the library's ingest concurrency for this batch.
// With n > 1 progress is reported in completion order.
func WithWorkers(n int) IngestOption {
	return func(o *ingestOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithExtensions overrides the accepted source extensions for this batch.
func WithExtensions(exts ...string) IngestOption {
	return func(o *ingestOptions) {
		if len(exts) > 0 {
			o.extensions = extensionSet(exts)
		}
	}
}

// outcome is the per-path result slot; exactly one of id or err is set.
type outcome struct {
	id   media.ContentID
	size int64
	err  error
}

// Ingest encodes and stores every source path.
//
// A failure on one path never aborts the batch: it is recorded in the
// result's Failures and the next path is processed. The context is checked
// between items only; once it is cancelled the remaining paths are reported
// as SourceReadError carrying the context error.
//
// The returned error is non-nil only if the library is closed.
func (l *Library) Ingest(ctx context.Context, paths []string, opts ...IngestOption) (*IngestResult, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}

	o := ingestOptions{workers: l.workers, extensions: l.extensions}
	for _, opt := range opts {
		opt(&o)
	}

	result := &IngestResult{
		Succeeded: []media.ContentID{},
		Failures:  []Failure{},
	}
	if len(paths) == 0 {
		return result, nil
	}

	start := time.Now()
	outcomes := make([]outcome, len(paths))

	var (
		progressMu sync.Mutex
		done       int
	)
	report := func(i int) {
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		if o.progress != nil {
			o.progress(Progress{
				Done:  done,
				Total: len(paths),
				Path:  paths[i],
				ID:    outcomes[i].id,
				Err:   outcomes[i].err,
			})
		}
	}

	if o.workers <= 1 {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				outcomes[i] = outcome{err: cancelled(path, err)}
			} else {
				outcomes[i] = l.ingestOne(ctx, path, o.extensions)
			}
			report(i)
		}
	} else {
		g := new(errgroup.Group)
		g.SetLimit(o.workers)
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				outcomes[i] = outcome{err: cancelled(path, err)}
				report(i)
				continue
			}
			g.Go(func() error {
				outcomes[i] = l.ingestOne(ctx, path, o.extensions)
				report(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	var storedBytes int64
	for i, oc := range outcomes {
		if oc.err != nil {
			result.Failures = append(result.Failures, Failure{
				Path:    paths[i],
				Kind:    media.KindOf(oc.err),
				Message: oc.err.Error(),
				Err:     oc.err,
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, oc.id)
		storedBytes += oc.size
	}

	logger.Info("ingest: batch of %d finished in %s: %d stored (%d bytes), %d failed",
		len(paths), time.Since(start).Round(time.Millisecond),
		len(result.Succeeded), storedBytes, len(result.Failures))

	return result, nil
}

func cancelled(path string, err error) error {
	return media.E(media.ErrSourceRead, "ingest", err).WithPath(path)
}

// ingestOne runs the pipeline for a single path. Once started an item runs
// to completion regardless of cancellation, so ctx is detached here.
func (l *Library) ingestOne(ctx context.Context, path string, extensions map[string]bool) outcome {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	id, size, err := l.runLocked(ctx, path, extensions)
	if err != nil {
		l.metrics.ObserveIngest(media.KindOf(err), time.Since(start), 0)
		logger.Warn("ingest: %s failed: %v", path, err)
		return outcome{err: err}
	}

	l.metrics.ObserveIngest("success", time.Since(start), size)
	logger.Info("ingest: %s stored as %s (%d bytes)", path, id, size)
	return outcome{id: id, size: size}
}

// runLocked runs the pipeline while holding the library open. Items that
// start after Close fail as IOError wrapping ErrClosed.
func (l *Library) runLocked(ctx context.Context, path string, extensions map[string]bool) (media.ContentID, int64, error) {
	release, err := l.acquire()
	if err != nil {
		return "", 0, media.E(media.ErrIO, "ingest", err).WithPath(path)
	}
	defer release()
	return l.runPipeline(ctx, path, extensions)
}

func (l *Library) runPipeline(ctx context.Context, path string, extensions map[string]bool) (media.ContentID, int64, error) {
	// ===== Step 1: read source =====
	raw, err := readSource(path, extensions)
	if err != nil {
		return "", 0, media.E(media.ErrSourceRead, "ingest", err).WithPath(path)
	}

	// ===== Step 2: encode =====
	encoded, err := l.encoder.Encode(ctx, raw)
	if err != nil {
		return "", 0, media.E(media.ErrEncode, "ingest", err).WithPath(path)
	}

	// ===== Step 3: persist =====
	id := media.NewContentID()
	if err := l.store.Put(ctx, id, encoded); err != nil {
		return "", 0, media.E(media.ErrPersist, "ingest", err).WithID(id).WithPath(path)
	}
	size := int64(len(encoded))
	logger.Debug("ingest: wrote %s (%d bytes)", id, size)

	// ===== Step 4: commit to manifest =====
	sum := blake3.Sum256(encoded)
	entry := manifest.Entry{
		ID:         id,
		AddedAt:    l.now().UTC(),
		Size:       size,
		SourceName: filepath.Base(path),
		Checksum:   hex.EncodeToString(sum[:]),
	}
	if err := l.manifest.Commit(ctx, entry); err != nil {
		l.compensate(ctx, id, false)
		return "", 0, media.E(media.ErrIndexCommit, "ingest", err).WithID(id).WithPath(path)
	}

	// ===== Step 5: view handle + catalog =====
	h, err := l.views.Create(ctx, id)
	if err != nil {
		l.compensate(ctx, id, true)
		return "", 0, media.E(media.ErrIO, "ingest", fmt.Errorf("create view: %w", err)).WithID(id).WithPath(path)
	}
	if err := l.catalog.Insert(id, size, h); err != nil {
		if rerr := h.Release(); rerr != nil {
			logger.Warn("ingest: failed to release view of %s: %v", id, rerr)
		}
		l.compensate(ctx, id, true)
		return "", 0, media.E(media.ErrIO, "ingest", err).WithID(id).WithPath(path)
	}

	return id, size, nil
}

func readSource(path string, extensions map[string]bool) ([]byte, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !extensions[ext] {
		return nil, fmt.Errorf("extension %q not accepted: %w", ext, media.ErrUnsupportedFormat)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("is a directory")
	}

	return os.ReadFile(path)
}

// compensate undoes a partially ingested item so no file outlives a failed
// ingest. A failed cleanup leaves an orphan that Check reports.
func (l *Library) compensate(ctx context.Context, id media.ContentID, committed bool) {
	if committed {
		if err := l.manifest.Remove(ctx, id); err != nil {
			logger.Warn("ingest: failed to remove manifest entry %s during cleanup: %v", id, err)
		}
	}
	if err := l.store.Delete(ctx, id); err != nil {
		logger.Warn("ingest: failed to remove %s during cleanup, leaving an orphan: %v", id, err)
		return
	}
	logger.Warn("ingest: removed %s after failed ingest", id)
}
