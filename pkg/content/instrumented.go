package content

import (
	"context"
	"time"

	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/marmos91/dittophotos/pkg/metrics"
)

// Instrument wraps store so that every operation is reported to m under the
// given backend label. Stores that implement PathResolver keep doing so.
func Instrument(store ContentStore, backend string, m metrics.StoreMetrics) ContentStore {
	if m == nil {
		return store
	}
	base := &instrumentedStore{inner: store, backend: backend, m: m}
	if resolver, ok := store.(PathResolver); ok {
		return &instrumentedPathStore{instrumentedStore: base, resolver: resolver}
	}
	return base
}

type instrumentedStore struct {
	inner   ContentStore
	backend string
	m       metrics.StoreMetrics
}

type instrumentedPathStore struct {
	*instrumentedStore
	resolver PathResolver
}

func (s *instrumentedPathStore) Path(id media.ContentID) (string, error) {
	return s.resolver.Path(id)
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	s.m.ObserveOperation(s.backend, op, time.Since(start), err)
}

func (s *instrumentedStore) Put(ctx context.Context, id media.ContentID, data []byte) error {
	start := time.Now()
	err := s.inner.Put(ctx, id, data)
	s.observe("put", start, err)
	if err == nil {
		s.m.RecordBytes(s.backend, "put", int64(len(data)))
	}
	return err
}

func (s *instrumentedStore) Get(ctx context.Context, id media.ContentID) ([]byte, int64, error) {
	start := time.Now()
	data, size, err := s.inner.Get(ctx, id)
	s.observe("get", start, err)
	if err == nil {
		s.m.RecordBytes(s.backend, "get", size)
	}
	return data, size, err
}

func (s *instrumentedStore) Size(ctx context.Context, id media.ContentID) (int64, error) {
	start := time.Now()
	size, err := s.inner.Size(ctx, id)
	s.observe("size", start, err)
	return size, err
}

func (s *instrumentedStore) Exists(ctx context.Context, id media.ContentID) (bool, error) {
	start := time.Now()
	ok, err := s.inner.Exists(ctx, id)
	s.observe("exists", start, err)
	return ok, err
}

func (s *instrumentedStore) Delete(ctx context.Context, id media.ContentID) error {
	start := time.Now()
	err := s.inner.Delete(ctx, id)
	s.observe("delete", start, err)
	return err
}

func (s *instrumentedStore) List(ctx context.Context) ([]media.ContentID, error) {
	start := time.Now()
	ids, err := s.inner.List(ctx)
	s.observe("list", start, err)
	return ids, err
}

func (s *instrumentedStore) Extension() string {
	return s.inner.Extension()
}

func (s *instrumentedStore) GetStorageStats(ctx context.Context) (*StorageStats, error) {
	return s.inner.GetStorageStats(ctx)
}
