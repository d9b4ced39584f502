// Package mmap creates view handles that map the stored file read-only
// instead of copying it. It requires a store that implements
// content.PathResolver (the filesystem backend).
//
// On Unix the mapping outlives an unlink of the file, so an item deleted
// while a handle is open stays readable until the handle is released. On
// Windows the open mapping makes the unlink fail instead.
package mmap

import (
	"context"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/marmos91/dittophotos/pkg/view"
)

type Factory struct {
	paths content.PathResolver
}

func New(paths content.PathResolver) *Factory {
	return &Factory{paths: paths}
}

func (f *Factory) Create(ctx context.Context, id media.ContentID) (*view.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := f.paths.Path(id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	// Zero-length files cannot be mapped.
	if info.Size() == 0 {
		return view.NewHandle(id, nil, nil), nil
	}

	m, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", path, err)
	}

	return view.NewHandle(id, m, m.Unmap), nil
}
