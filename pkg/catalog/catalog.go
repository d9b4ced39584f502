// Package catalog holds what the user currently sees: the ordered list of
// stored items (newest first), a live view handle for each, and aggregate
// counters.
//
// The three parallel sequences (ids, sizes, handles) are only ever mutated
// together under one lock, so no reader can observe them misaligned. Readers
// get copies and never block on storage I/O.
package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/marmos91/dittophotos/pkg/view"
)

var (
	// ErrDuplicate is returned by Insert when the identifier is already cataloged.
	ErrDuplicate = errors.New("item already cataloged")

	// ErrClosed is returned by Insert and Reconcile after Close.
	ErrClosed = errors.New("catalog closed")
)

// Stats are the aggregate counters. ItemCount always equals the catalog
// length and TotalBytes the sum of cataloged item sizes.
type Stats struct {
	ItemCount  int   `json:"item_count"`
	TotalBytes int64 `json:"total_bytes"`
}

// Item is one cataloged entry together with its handle.
type Item struct {
	ID     media.ContentID
	Size   int64
	Handle *view.Handle
}

// Entry is the handle-free snapshot form of an Item.
type Entry struct {
	Index int             `json:"index"`
	ID    media.ContentID `json:"id"`
	Size  int64           `json:"size"`
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithObserver registers fn to be called with the new stats after every
// mutation. fn runs while the catalog lock is held and must not call back
// into the catalog.
func WithObserver(fn func(Stats)) Option {
	return func(c *Catalog) {
		c.observers = append(c.observers, fn)
	}
}

// Catalog is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	ids     []media.ContentID
	sizes   []int64
	handles []*view.Handle
	stats   Stats
	closed  bool

	observers []func(Stats)
}

func New(opts ...Option) *Catalog {
	c := &Catalog{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) notify() {
	for _, fn := range c.observers {
		fn(c.stats)
	}
}

func (c *Catalog) indexOf(id media.ContentID) int {
	for i, existing := range c.ids {
		if existing == id {
			return i
		}
	}
	return -1
}

// Insert prepends an item. The catalog takes ownership of h on success; on
// error the caller still owns it.
func (c *Catalog) Insert(id media.ContentID, size int64, h *view.Handle) error {
	if size < 0 {
		return fmt.Errorf("catalog insert %s: negative size %d", id, size)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("catalog insert %s: %w", id, ErrClosed)
	}
	if c.indexOf(id) >= 0 {
		return fmt.Errorf("catalog insert %s: %w", id, ErrDuplicate)
	}

	c.ids = append([]media.ContentID{id}, c.ids...)
	c.sizes = append([]int64{size}, c.sizes...)
	c.handles = append([]*view.Handle{h}, c.handles...)
	c.stats.ItemCount++
	c.stats.TotalBytes += size
	c.notify()

	return nil
}

// RemoveAt removes the item at index and releases its handle.
func (c *Catalog) RemoveAt(index int) (Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.ids) {
		return Item{}, media.E(media.ErrIndexOutOfRange, "catalog remove",
			fmt.Errorf("index %d, have %d items", index, len(c.ids)))
	}
	return c.removeLocked(index), nil
}

// RemoveID removes the item with the given identifier and releases its handle.
func (c *Catalog) RemoveID(id media.ContentID) (Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := c.indexOf(id)
	if index < 0 {
		return Item{}, media.E(media.ErrNotFound, "catalog remove", nil).WithID(id)
	}
	return c.removeLocked(index), nil
}

func (c *Catalog) removeLocked(index int) Item {
	item := Item{ID: c.ids[index], Size: c.sizes[index], Handle: c.handles[index]}

	c.ids = append(c.ids[:index], c.ids[index+1:]...)
	c.sizes = append(c.sizes[:index], c.sizes[index+1:]...)
	c.handles[index] = nil
	c.handles = append(c.handles[:index], c.handles[index+1:]...)
	c.stats.ItemCount--
	c.stats.TotalBytes -= item.Size
	c.notify()

	releaseHandle(item.Handle)
	return item
}

func releaseHandle(h *view.Handle) {
	if h == nil {
		return
	}
	if err := h.Release(); err != nil {
		logger.Warn("catalog: failed to release view handle for %s: %v", h.ID(), err)
	}
}

// At returns the item at index. The returned handle stays owned by the
// catalog and may be released at any time by a concurrent removal.
func (c *Catalog) At(index int) (Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if index < 0 || index >= len(c.ids) {
		return Item{}, media.E(media.ErrIndexOutOfRange, "catalog at",
			fmt.Errorf("index %d, have %d items", index, len(c.ids)))
	}
	return Item{ID: c.ids[index], Size: c.sizes[index], Handle: c.handles[index]}, nil
}

// IndexOf returns the position of id, or -1.
func (c *Catalog) IndexOf(id media.ContentID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexOf(id)
}

func (c *Catalog) Contains(id media.ContentID) bool {
	return c.IndexOf(id) >= 0
}

// Size returns the cataloged size of id.
func (c *Catalog) Size(id media.ContentID) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOf(id)
	if i < 0 {
		return 0, media.E(media.ErrNotFound, "catalog size", nil).WithID(id)
	}
	return c.sizes[i], nil
}

// View calls fn with the live handle bytes of id while holding the catalog
// read lock, so the handle cannot be released underneath fn.
func (c *Catalog) View(id media.ContentID, fn func(data []byte) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOf(id)
	if i < 0 || c.handles[i] == nil {
		return media.E(media.ErrNotFound, "catalog view", nil).WithID(id)
	}
	return c.handles[i].Read(fn)
}

// Reconcile replaces the whole catalog. Previously held handles are
// released; stats are recomputed from items. After Close the items' handles
// are released instead and ErrClosed is returned.
func (c *Catalog) Reconcile(items []Item) error {
	return c.replace(items, false)
}

func (c *Catalog) replace(items []Item, closing bool) error {
	ids := make([]media.ContentID, len(items))
	sizes := make([]int64, len(items))
	handles := make([]*view.Handle, len(items))
	var stats Stats
	for i, item := range items {
		ids[i], sizes[i], handles[i] = item.ID, item.Size, item.Handle
		stats.ItemCount++
		stats.TotalBytes += item.Size
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		for _, h := range handles {
			releaseHandle(h)
		}
		return ErrClosed
	}
	old := c.handles
	c.ids, c.sizes, c.handles, c.stats = ids, sizes, handles, stats
	c.closed = closing
	c.notify()
	c.mu.Unlock()

	for _, h := range old {
		releaseHandle(h)
	}
	return nil
}

// Snapshot returns the current entries in catalog order.
func (c *Catalog) Snapshot() []Entry {
	entries, _ := c.SnapshotWithStats()
	return entries
}

// SnapshotWithStats returns the entries and the counters as of the same
// instant.
func (c *Catalog) SnapshotWithStats() ([]Entry, Stats) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, len(c.ids))
	for i := range c.ids {
		entries[i] = Entry{Index: i, ID: c.ids[i], Size: c.sizes[i]}
	}
	return entries, c.stats
}

func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// Close empties the catalog and releases every handle exactly once. Later
// inserts fail with ErrClosed. Calling Close again is a no-op.
func (c *Catalog) Close() {
	_ = c.replace(nil, true)
}
