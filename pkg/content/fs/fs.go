// Package fs implements the local-directory content store.
//
// Every item lives at <root>/<ContentID><ext>. Writes go through a temp file
// under <root>/.tmp which is fsynced and renamed into place, so a crash or a
// full disk never leaves a truncated item under its final name.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/media"
)

const tempDirName = ".tmp"

// FSContentStoreConfig configures a filesystem content store.
type FSContentStoreConfig struct {
	// Path is the root directory. It is created with 0755 if missing.
	Path string

	// Extension is appended to every item's file name, including the dot.
	// Defaults to the canonical format extension.
	Extension string

	// NoSync skips fsync before rename. Only meant for tests.
	NoSync bool
}

// FSContentStore implements content.ContentStore on a local directory.
//
// Thread Safety:
// Concurrent Puts for different identifiers use distinct temp files and
// never interfere. The store holds no in-memory state besides its config.
type FSContentStore struct {
	root      string
	tempDir   string
	extension string
	noSync    bool
}

// NewFSContentStore opens (creating if needed) a store rooted at cfg.Path.
//
// Temp files left behind by an interrupted Put are removed on open.
//
// Context Cancellation:
// This operation checks the context before creating the directory structure.
func NewFSContentStore(ctx context.Context, cfg FSContentStoreConfig) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("content root path is required")
	}

	root, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content root: %w", err)
	}

	ext := cfg.Extension
	if ext == "" {
		ext = media.FormatCanonical.Extension()
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	tempDir := filepath.Join(root, tempDirName)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	s := &FSContentStore{
		root:      root,
		tempDir:   tempDir,
		extension: ext,
		noSync:    cfg.NoSync,
	}
	s.cleanTemp()

	return s, nil
}

// Root returns the absolute store directory.
func (s *FSContentStore) Root() string {
	return s.root
}

func (s *FSContentStore) Extension() string {
	return s.extension
}

// Path implements content.PathResolver.
func (s *FSContentStore) Path(id media.ContentID) (string, error) {
	if err := content.ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.root, string(id)+s.extension), nil
}

func (s *FSContentStore) cleanTemp() {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(s.tempDir, e.Name())); err != nil {
			logger.Warn("content: failed to remove stale temp file %s: %v", e.Name(), err)
			continue
		}
		logger.Debug("content: removed stale temp file %s", e.Name())
	}
}

// Put writes data under id via temp file, fsync and rename.
func (s *FSContentStore) Put(ctx context.Context, id media.ContentID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	finalPath, err := s.Path(id)
	if err != nil {
		return err
	}

	if _, err := os.Stat(finalPath); err == nil {
		return fmt.Errorf("content %s: %w", id, content.ErrContentExists)
	}

	// ========================================================================
	// Step 1: Write the temp file
	// ========================================================================

	tmp, err := os.CreateTemp(s.tempDir, string(id)+"-*")
	if err != nil {
		return wrapWriteErr(id, "create temp file", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return wrapWriteErr(id, "write temp file", err)
	}
	if !s.noSync {
		if err := tmp.Sync(); err != nil {
			return wrapWriteErr(id, "sync temp file", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return wrapWriteErr(id, "close temp file", err)
	}

	// ========================================================================
	// Step 2: Publish under the final name
	// ========================================================================

	if err := os.Chmod(tmpName, 0644); err != nil {
		return wrapWriteErr(id, "chmod temp file", err)
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		return wrapWriteErr(id, "rename into place", err)
	}
	committed = true

	logger.Debug("content: stored %s (%d bytes)", id, len(data))
	return nil
}

func wrapWriteErr(id media.ContentID, step string, err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("content %s: %s: %w: %w", id, step, content.ErrStorageFull, err)
	}
	return fmt.Errorf("content %s: failed to %s: %w", id, step, err)
}

// Get reads the whole item.
func (s *FSContentStore) Get(ctx context.Context, id media.ContentID) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	path, err := s.Path(id)
	if err != nil {
		return nil, 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, 0, fmt.Errorf("failed to read content: %w", err)
	}

	return data, int64(len(data)), nil
}

// Size stats the item file.
func (s *FSContentStore) Size(ctx context.Context, id media.ContentID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path, err := s.Path(id)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to stat content: %w", err)
	}

	return info.Size(), nil
}

func (s *FSContentStore) Exists(ctx context.Context, id media.ContentID) (bool, error) {
	if _, err := s.Size(ctx, id); err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete unlinks the item file.
//
// On Unix an item that is currently memory-mapped by a view handle stays
// readable through the mapping until the handle is released. On Windows the
// unlink fails while the mapping is open; the error is returned and the
// catalog entry is kept.
func (s *FSContentStore) Delete(ctx context.Context, id media.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.Path(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return fmt.Errorf("failed to delete content: %w", err)
	}

	logger.Debug("content: deleted %s", id)
	return nil
}

// List returns the identifiers of every item file in the root directory.
// Files that do not carry the store extension or a valid identifier stem
// are ignored.
func (s *FSContentStore) List(ctx context.Context) ([]media.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	ids := make([]media.ContentID, 0, len(entries))
	for i, entry := range entries {
		// Check context periodically for large directories
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if !entry.Type().IsRegular() {
			continue
		}
		stem, ok := strings.CutSuffix(entry.Name(), s.extension)
		if !ok {
			continue
		}
		id, err := media.ParseContentID(stem)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// GetStorageStats scans the root directory for item sizes and asks the
// operating system for capacity where supported.
func (s *FSContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var used uint64
	for _, id := range ids {
		size, err := s.Size(ctx, id)
		if err != nil {
			if errors.Is(err, content.ErrContentNotFound) {
				continue
			}
			return nil, err
		}
		used += uint64(size)
	}

	total, avail := diskUsage(s.root)
	count := uint64(len(ids))

	return &content.StorageStats{
		TotalSize:     total,
		UsedSize:      used,
		AvailableSize: avail,
		ContentCount:  count,
		AverageSize:   content.AverageOf(used, count),
	}, nil
}
