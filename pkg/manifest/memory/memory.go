package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/dittophotos/pkg/manifest"
	"github.com/marmos91/dittophotos/pkg/media"
)

// Manifest keeps entries in a map. Nothing survives a restart, which makes
// it suitable for tests and for sessions backed by the memory content store.
type Manifest struct {
	mu      sync.RWMutex
	entries map[media.ContentID]manifest.Entry
}

func New() *Manifest {
	return &Manifest{entries: make(map[media.ContentID]manifest.Entry)}
}

func (m *Manifest) Commit(ctx context.Context, e manifest.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[e.ID]; ok {
		return fmt.Errorf("entry %s: %w", e.ID, manifest.ErrEntryExists)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *Manifest) Remove(ctx context.Context, id media.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return fmt.Errorf("entry %s: %w", id, manifest.ErrEntryNotFound)
	}
	delete(m.entries, id)
	return nil
}

func (m *Manifest) Get(ctx context.Context, id media.ContentID) (manifest.Entry, error) {
	if err := ctx.Err(); err != nil {
		return manifest.Entry{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return manifest.Entry{}, fmt.Errorf("entry %s: %w", id, manifest.ErrEntryNotFound)
	}
	return e, nil
}

func (m *Manifest) List(ctx context.Context) ([]manifest.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	entries := make([]manifest.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	manifest.SortNewestFirst(entries)
	return entries, nil
}

func (m *Manifest) Close() error {
	return nil
}
