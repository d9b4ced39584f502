package content

import (
	"errors"
	"fmt"

	"github.com/marmos91/dittophotos/pkg/media"
)

// ============================================================================
// Standard Content Store Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure conditions
// across all content store implementations. They wrap the media error kinds
// so that callers can check either the store-level sentinel or the kind:
//
//	data, _, err := store.Get(ctx, id)
//	if errors.Is(err, media.ErrNotFound) {
//	    // same as errors.Is(err, content.ErrContentNotFound)
//	}
//
// Implementations wrap them with the item identifier:
//
//	return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)

var (
	// ErrContentNotFound indicates the requested content does not exist.
	//
	// Returned by Get, Size and Delete.
	ErrContentNotFound = fmt.Errorf("content not found: %w", media.ErrNotFound)

	// ErrContentExists indicates content with this ID already exists.
	//
	// Put never overwrites: identifiers are fresh per ingest, so a collision
	// means a caller bug and the existing bytes are kept.
	ErrContentExists = errors.New("content already exists")

	// ErrStorageFull indicates the storage backend has no available space.
	//
	// This is a transient error - it may succeed after cleanup.
	ErrStorageFull = fmt.Errorf("storage full: %w", media.ErrIO)

	// ErrInvalidContentID indicates the ContentID format is invalid.
	//
	// Every backend validates identifiers before building a path or key
	// from them.
	ErrInvalidContentID = fmt.Errorf("content store: %w", media.ErrInvalidContentID)
)

// ValidateID checks id at a store boundary.
func ValidateID(id media.ContentID) error {
	if err := id.Validate(); err != nil {
		return fmt.Errorf("content %q: %w", id, ErrInvalidContentID)
	}
	return nil
}
