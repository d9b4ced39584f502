package library

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/catalog"
	"github.com/marmos91/dittophotos/pkg/media"
)

// Drift is a cataloged item whose stored size no longer matches.
type Drift struct {
	ID        media.ContentID `json:"id"`
	Cataloged int64           `json:"cataloged"`
	Stored    int64           `json:"stored"`
}

// Report is the result of a consistency check.
type Report struct {
	// Orphans are stored files that are not cataloged.
	Orphans []media.ContentID `json:"orphans"`

	// Missing are cataloged items whose file is gone.
	Missing []media.ContentID `json:"missing"`

	SizeDrift []Drift `json:"size_drift"`

	// StaleEntries are manifest entries that are not cataloged.
	StaleEntries []media.ContentID `json:"stale_entries"`

	Stats catalog.Stats `json:"stats"`

	// StoredBytes is the on-disk size of the cataloged items that still exist.
	StoredBytes int64 `json:"stored_bytes"`

	Consistent bool `json:"consistent"`
}

// Check compares the catalog with the content store and manifest. It never
// modifies anything.
func (l *Library) Check(ctx context.Context) (*Report, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}

	stored, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("check: list content store: %w", err)
	}
	present := make(map[media.ContentID]bool, len(stored))
	for _, id := range stored {
		present[id] = true
	}

	snapshot, stats := l.catalog.SnapshotWithStats()

	report := &Report{
		Orphans:      []media.ContentID{},
		Missing:      []media.ContentID{},
		SizeDrift:    []Drift{},
		StaleEntries: []media.ContentID{},
		Stats:        stats,
	}

	var catalogedBytes int64
	cataloged := make(map[media.ContentID]bool, len(snapshot))
	for _, e := range snapshot {
		cataloged[e.ID] = true
		catalogedBytes += e.Size

		if !present[e.ID] {
			report.Missing = append(report.Missing, e.ID)
			continue
		}
		size, err := l.store.Size(ctx, e.ID)
		if err != nil {
			if errors.Is(err, media.ErrNotFound) {
				report.Missing = append(report.Missing, e.ID)
				continue
			}
			return nil, fmt.Errorf("check: size of %s: %w", e.ID, err)
		}
		report.StoredBytes += size
		if size != e.Size {
			report.SizeDrift = append(report.SizeDrift, Drift{ID: e.ID, Cataloged: e.Size, Stored: size})
		}
	}

	for _, id := range stored {
		if !cataloged[id] {
			report.Orphans = append(report.Orphans, id)
		}
	}
	slices.Sort(report.Orphans)

	entries, err := l.manifest.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("check: list manifest: %w", err)
	}
	for _, e := range entries {
		if !cataloged[e.ID] {
			report.StaleEntries = append(report.StaleEntries, e.ID)
		}
	}

	report.Consistent = len(report.Orphans) == 0 &&
		len(report.Missing) == 0 &&
		len(report.SizeDrift) == 0 &&
		len(report.StaleEntries) == 0 &&
		report.Stats.ItemCount == len(snapshot) &&
		report.Stats.TotalBytes == catalogedBytes &&
		report.Stats.TotalBytes == report.StoredBytes

	return report, nil
}

// PruneOrphans deletes stored files that are neither cataloged nor indexed
// and returns how many were removed.
func (l *Library) PruneOrphans(ctx context.Context) (int, error) {
	l.inflight.Lock()
	defer l.inflight.Unlock()
	if l.closed.Load() {
		return 0, ErrClosed
	}

	report, err := l.Check(ctx)
	if err != nil {
		return 0, err
	}

	indexed := make(map[media.ContentID]bool, len(report.StaleEntries))
	for _, id := range report.StaleEntries {
		indexed[id] = true
	}

	removed := 0
	for _, id := range report.Orphans {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if indexed[id] || l.catalog.Contains(id) {
			continue
		}
		if err := l.store.Delete(ctx, id); err != nil {
			if errors.Is(err, media.ErrNotFound) {
				continue
			}
			return removed, fmt.Errorf("prune %s: %w", id, err)
		}
		logger.Info("check: removed orphan %s", id)
		removed++
	}
	return removed, nil
}
