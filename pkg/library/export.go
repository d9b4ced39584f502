package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/marmos91/dittophotos/pkg/media"
)

// Export writes the item identified by id to dest in the requested format.
//
// The canonical format is a byte-for-byte copy of the stored file; any other
// format is decoded through the encoder. The destination is written through a
// temporary file in the same directory and renamed into place, so a failed
// export never leaves a partial file behind. Export never mutates the catalog
// or the store.
//
// Errors:
//   - NotFound: id is not cataloged or its file is gone
//   - DecodeError: the stored item cannot be converted to format
//   - IOError: the store cannot be read or dest cannot be written
func (l *Library) Export(ctx context.Context, id media.ContentID, format media.Format, dest string) (err error) {
	start := time.Now()
	defer func() {
		l.metrics.ObserveExport(string(format), time.Since(start), err)
	}()

	release, err := l.acquire()
	if err != nil {
		return err
	}
	out, err := l.render(ctx, "export", id, format)
	release()
	if err != nil {
		return err
	}

	if err := writeFileAtomic(dest, out); err != nil {
		return media.E(media.ErrIO, "export", err).WithID(id).WithPath(dest)
	}

	return nil
}

// ExportAt exports the item currently at index.
func (l *Library) ExportAt(ctx context.Context, index int, format media.Format, dest string) error {
	release, err := l.acquire()
	if err != nil {
		return err
	}
	item, err := l.catalog.At(index)
	release()
	if err != nil {
		return err
	}
	return l.Export(ctx, item.ID, format, dest)
}

// Render returns the item converted to format without writing it anywhere.
func (l *Library) Render(ctx context.Context, id media.ContentID, format media.Format) ([]byte, error) {
	release, err := l.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return l.render(ctx, "render", id, format)
}

// ViewBytes returns a copy of the bytes held by the item's live view handle.
func (l *Library) ViewBytes(id media.ContentID) ([]byte, error) {
	release, err := l.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var out []byte
	err = l.catalog.View(id, func(data []byte) error {
		out = bytes.Clone(data)
		return nil
	})
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return nil, media.E(media.ErrNotFound, "view", nil).WithID(id)
		}
		return nil, media.E(media.ErrIO, "view", err).WithID(id)
	}
	return out, nil
}

func (l *Library) render(ctx context.Context, op string, id media.ContentID, format media.Format) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, media.E(media.ErrIO, op, err).WithID(id)
	}

	if format != l.encoder.Format() && !slices.Contains(media.ExportFormats, format) {
		return nil, media.E(media.ErrDecode, op,
			fmt.Errorf("format %q: %w", format, media.ErrUnsupportedFormat)).WithID(id)
	}

	if !l.catalog.Contains(id) {
		return nil, media.E(media.ErrNotFound, op, nil).WithID(id)
	}

	data, _, err := l.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return nil, media.E(media.ErrNotFound, op, err).WithID(id)
		}
		return nil, media.E(media.ErrIO, op, err).WithID(id)
	}

	if format == l.encoder.Format() {
		return data, nil
	}

	out, err := l.encoder.Decode(ctx, data, format)
	if err != nil {
		return nil, media.E(media.ErrDecode, op, err).WithID(id)
	}
	return out, nil
}

func writeFileAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)

	tmp, err := os.CreateTemp(dir, ".dittophotos-export-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return err
	}

	committed = true
	return nil
}
