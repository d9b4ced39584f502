// Package manifest is the secondary index of stored items.
//
// The content store knows which items exist; the manifest knows when each
// was added and where it came from. Startup reconciliation joins the two and
// uses AddedAt to restore the newest-first catalog order.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/marmos91/dittophotos/pkg/media"
)

var (
	// ErrEntryNotFound is returned by Get and Remove for unknown identifiers.
	ErrEntryNotFound = fmt.Errorf("manifest entry not found: %w", media.ErrNotFound)

	// ErrEntryExists is returned by Commit when the identifier is already indexed.
	ErrEntryExists = errors.New("manifest entry already exists")
)

// Entry is one indexed item.
type Entry struct {
	ID media.ContentID

	// AddedAt is the ingest time; it orders the catalog.
	AddedAt time.Time

	// Size is the stored size at ingest time.
	Size int64

	// SourceName is the base name of the imported file.
	SourceName string

	// Checksum is the hex BLAKE3 digest of the stored bytes.
	Checksum string
}

// Manifest persists entries.
//
// Implementations must be safe for concurrent use.
type Manifest interface {
	// Commit records a new entry. It fails with ErrEntryExists if the
	// identifier is already present.
	Commit(ctx context.Context, e Entry) error

	// Remove deletes the entry for id, or returns ErrEntryNotFound.
	Remove(ctx context.Context, id media.ContentID) error

	// Get returns the entry for id, or ErrEntryNotFound.
	Get(ctx context.Context, id media.ContentID) (Entry, error)

	// List returns every entry, newest first. Ties on AddedAt are broken by
	// identifier so the order is total.
	List(ctx context.Context) ([]Entry, error)

	Close() error
}

// SortNewestFirst orders entries by AddedAt descending, then ID ascending.
func SortNewestFirst(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.AddedAt.Equal(b.AddedAt) {
			return a.AddedAt.After(b.AddedAt)
		}
		return a.ID < b.ID
	})
}
