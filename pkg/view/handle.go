// Package view provides ViewHandles: ephemeral, in-process references to the
// bytes of a stored item that the UI can render from.
//
// A handle is created when an item enters the catalog and released exactly
// once when it leaves. Handles are never persisted.
package view

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/marmos91/dittophotos/pkg/media"
)

// ErrReleased is returned by Release on every call after the first.
var ErrReleased = errors.New("view handle already released")

var live atomic.Int64

// Live returns the number of handles created and not yet released in this
// process.
func Live() int64 {
	return live.Load()
}

// Handle is a readable reference to one item's canonical bytes.
type Handle struct {
	id      media.ContentID
	size    int64
	data    []byte
	release func() error

	mu       sync.RWMutex
	released bool
}

// NewHandle wraps data. release, if non-nil, runs exactly once when the
// handle is released.
func NewHandle(id media.ContentID, data []byte, release func() error) *Handle {
	live.Add(1)
	return &Handle{
		id:      id,
		size:    int64(len(data)),
		data:    data,
		release: release,
	}
}

func (h *Handle) ID() media.ContentID {
	return h.id
}

// Size is the byte length of the item, still valid after release.
func (h *Handle) Size() int64 {
	return h.size
}

// Read calls fn with the handle's bytes while holding the handle open. fn
// must not retain the slice. Returns ErrReleased if the handle is gone.
func (h *Handle) Read(fn func(data []byte) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.released {
		return ErrReleased
	}
	return fn(h.data)
}

// Bytes returns a copy of the handle's bytes.
func (h *Handle) Bytes() ([]byte, error) {
	var out []byte
	err := h.Read(func(data []byte) error {
		out = make([]byte, len(data))
		copy(out, data)
		return nil
	})
	return out, err
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.released
}

// Release frees the handle's resources. It waits for in-flight Reads.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return ErrReleased
	}
	h.released = true
	h.data = nil
	live.Add(-1)

	if h.release != nil {
		return h.release()
	}
	return nil
}

// Factory creates handles for stored items.
type Factory interface {
	Create(ctx context.Context, id media.ContentID) (*Handle, error)
}
