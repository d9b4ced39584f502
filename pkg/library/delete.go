package library

import (
	"context"
	"time"

	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/media"
)

// Delete removes the item currently at index.
//
// The index is resolved to an identifier once; removal from the catalog is
// by identifier, so a concurrent ingest that shifts positions cannot remove
// the wrong item. If the stored file cannot be deleted the catalog is left
// untouched and the error is returned.
func (l *Library) Delete(ctx context.Context, index int) error {
	release, err := l.acquire()
	if err != nil {
		return err
	}
	defer release()

	item, err := l.catalog.At(index)
	if err != nil {
		return err
	}
	return l.remove(ctx, "delete", item.ID)
}

// DeleteID removes the item with the given identifier.
func (l *Library) DeleteID(ctx context.Context, id media.ContentID) error {
	release, err := l.acquire()
	if err != nil {
		return err
	}
	defer release()

	if !l.catalog.Contains(id) {
		return media.E(media.ErrNotFound, "delete", nil).WithID(id)
	}
	return l.remove(ctx, "delete", id)
}

func (l *Library) remove(ctx context.Context, op string, id media.ContentID) (err error) {
	start := time.Now()
	defer func() {
		l.metrics.ObserveDelete(time.Since(start), err)
	}()

	if err := l.store.Delete(ctx, id); err != nil {
		return media.E(media.ErrIO, op, err).WithID(id)
	}

	if _, err := l.catalog.RemoveID(id); err != nil {
		// A concurrent delete of the same id already removed it.
		logger.Debug("delete: %s no longer cataloged: %v", id, err)
	}

	if err := l.manifest.Remove(ctx, id); err != nil {
		logger.Warn("delete: failed to remove manifest entry %s, it will be pruned on next start: %v", id, err)
	}

	logger.Info("delete: removed %s", id)
	return nil
}
