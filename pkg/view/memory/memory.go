// Package memory creates view handles holding a private copy of the stored
// bytes. It works with every content store backend.
package memory

import (
	"context"

	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/marmos91/dittophotos/pkg/view"
)

type Factory struct {
	store content.ContentStore
}

func New(store content.ContentStore) *Factory {
	return &Factory{store: store}
}

func (f *Factory) Create(ctx context.Context, id media.ContentID) (*view.Handle, error) {
	data, _, err := f.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return view.NewHandle(id, data, nil), nil
}
