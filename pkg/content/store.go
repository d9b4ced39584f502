// Package content defines the storage contract for encoded media items.
//
// A ContentStore owns the bytes of every stored item, one immutable blob per
// ContentID. It does not know about ordering, sizes in aggregate, or what the
// user currently sees: that is the catalog's job. The store is the durable
// truth the catalog is reconciled against at startup.
package content

import (
	"context"

	"github.com/marmos91/dittophotos/pkg/media"
)

// ============================================================================
// ContentStore Interface
// ============================================================================

// ContentStore persists encoded items keyed by ContentID.
//
// Items are written once and never modified. Every method validates the
// identifier before touching storage, so an identifier can never address
// anything outside the store's root.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Concurrent Put calls for different identifiers never interfere with each
// other. At most one writer per identifier is expected.
type ContentStore interface {
	// Put stores data under id.
	//
	// The write is all-or-nothing: either the complete item becomes visible
	// under its final name or nothing does. A failed Put leaves no partial
	// item behind.
	//
	// Returns:
	//   - ErrContentExists if id is already stored
	//   - ErrStorageFull when the backend is out of space
	//   - ErrInvalidContentID for malformed identifiers
	//   - context or I/O errors otherwise
	Put(ctx context.Context, id media.ContentID, data []byte) error

	// Get returns a copy of the stored bytes and their length.
	//
	// Returns ErrContentNotFound if id is not stored.
	Get(ctx context.Context, id media.ContentID) ([]byte, int64, error)

	// Size returns the stored size in bytes without reading the item.
	//
	// Returns ErrContentNotFound if id is not stored.
	Size(ctx context.Context, id media.ContentID) (int64, error)

	// Exists reports whether id is stored. A missing item is not an error.
	Exists(ctx context.Context, id media.ContentID) (bool, error)

	// Delete removes the item.
	//
	// Unlike a garbage-collecting store, Delete is not idempotent: deleting
	// an absent item returns ErrContentNotFound so that callers never drop
	// catalog entries for items they did not actually remove.
	Delete(ctx context.Context, id media.ContentID) error

	// List enumerates every stored identifier in no particular order.
	//
	// Entries whose names are not valid identifiers (temp files, foreign
	// files) are skipped. Intended for startup reconciliation and
	// consistency checks, not for hot paths.
	List(ctx context.Context) ([]media.ContentID, error)

	// Extension returns the file extension items are stored with, including
	// the leading dot (".dpic").
	Extension() string

	// GetStorageStats returns statistics about the content storage.
	GetStorageStats(ctx context.Context) (*StorageStats, error)
}

// PathResolver is implemented by stores that keep every item as a local
// file. It lets view factories map items directly instead of copying them.
type PathResolver interface {
	// Path returns the absolute path of the stored item. It performs no I/O
	// and does not check existence.
	Path(id media.ContentID) (string, error)
}

// StorageStats contains statistics about content storage.
//
// Different backends may support different fields (unsupported fields
// should be set to 0).
type StorageStats struct {
	// TotalSize is the total storage capacity in bytes.
	// For cloud storage (S3), this is unlimited (set to MaxUint64).
	TotalSize uint64

	// UsedSize is the sum of all stored item sizes.
	UsedSize uint64

	// AvailableSize is the remaining available space in bytes.
	AvailableSize uint64

	// ContentCount is the total number of stored items.
	ContentCount uint64

	// AverageSize is UsedSize / ContentCount, or 0 for an empty store.
	AverageSize uint64
}

// AverageOf returns used/count, or 0 when count is 0.
func AverageOf(used, count uint64) uint64 {
	if count == 0 {
		return 0
	}
	return used / count
}
