package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/media"
)

// MemoryContentStore implements ContentStore using in-memory storage.
//
// It is designed for tests and ephemeral sessions: all data is lost when the
// process exits.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Data is copied on the way
// in and out so callers can never alias stored bytes.
type MemoryContentStore struct {
	// data stores the item bytes keyed by ContentID
	data map[media.ContentID][]byte

	extension string

	// mu protects concurrent access to data map
	mu sync.RWMutex
}

// NewMemoryContentStore creates a new, empty in-memory content store.
//
// Parameters:
//   - ctx: Context for cancellation (checked before initialization)
//   - extension: reported by Extension(); defaults to the canonical one
func NewMemoryContentStore(ctx context.Context, extension string) (*MemoryContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if extension == "" {
		extension = media.FormatCanonical.Extension()
	}

	return &MemoryContentStore{
		data:      make(map[media.ContentID][]byte),
		extension: extension,
	}, nil
}

func (s *MemoryContentStore) Extension() string {
	return s.extension
}

func (s *MemoryContentStore) Put(ctx context.Context, id media.ContentID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := content.ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; exists {
		return fmt.Errorf("content %s: %w", id, content.ErrContentExists)
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	s.data[id] = stored

	return nil
}

func (s *MemoryContentStore) Get(ctx context.Context, id media.ContentID) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if err := content.ValidateID(id); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.data[id]
	if !exists {
		return nil, 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, int64(len(out)), nil
}

func (s *MemoryContentStore) Size(ctx context.Context, id media.ContentID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := content.ValidateID(id); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.data[id]
	if !exists {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	return int64(len(data)), nil
}

func (s *MemoryContentStore) Exists(ctx context.Context, id media.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := content.ValidateID(id); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[id]
	return exists, nil
}

func (s *MemoryContentStore) Delete(ctx context.Context, id media.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := content.ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	delete(s.data, id)

	return nil
}

func (s *MemoryContentStore) List(ctx context.Context) ([]media.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]media.ContentID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// GetStorageStats reports usage. Capacity is limited only by RAM, so total
// and available sizes are reported as MaxUint64.
func (s *MemoryContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var used uint64
	for _, data := range s.data {
		used += uint64(len(data))
	}
	count := uint64(len(s.data))

	const maxUint64 = ^uint64(0)

	return &content.StorageStats{
		TotalSize:     maxUint64,
		UsedSize:      used,
		AvailableSize: maxUint64,
		ContentCount:  count,
		AverageSize:   content.AverageOf(used, count),
	}, nil
}
