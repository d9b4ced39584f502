package view

import (
	"errors"
	"sync"
	"testing"

	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleReleaseOnce(t *testing.T) {
	before := Live()
	calls := 0
	h := NewHandle(media.NewContentID(), []byte("abc"), func() error {
		calls++
		return nil
	})
	assert.Equal(t, before+1, Live())

	data, err := h.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	require.NoError(t, h.Release())
	assert.ErrorIs(t, h.Release(), ErrReleased)
	assert.Equal(t, 1, calls)
	assert.Equal(t, before, Live())
	assert.True(t, h.Released())

	_, err = h.Bytes()
	assert.ErrorIs(t, err, ErrReleased)
	assert.Equal(t, int64(3), h.Size())
}

func TestHandleReleaseError(t *testing.T) {
	boom := errors.New("unmap failed")
	h := NewHandle(media.NewContentID(), nil, func() error { return boom })

	assert.ErrorIs(t, h.Release(), boom)
	assert.ErrorIs(t, h.Release(), ErrReleased)
}

func TestHandleConcurrentRelease(t *testing.T) {
	before := Live()
	var mu sync.Mutex
	calls := 0
	h := NewHandle(media.NewContentID(), []byte("x"), func() error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	assert.Equal(t, before, Live())
}
