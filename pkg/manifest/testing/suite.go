package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/dittophotos/pkg/manifest"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ManifestTestSuite tests the manifest.Manifest contract against any backend.
//
// Usage:
//
//	func TestMyManifest(t *testing.T) {
//	    suite := &testing.ManifestTestSuite{
//	        NewManifest: func() manifest.Manifest { return mymanifest.New() },
//	    }
//	    suite.Run(t)
//	}
type ManifestTestSuite struct {
	// NewManifest creates a fresh, empty manifest for each test. The suite
	// closes it.
	NewManifest func() manifest.Manifest
}

// Run executes all tests in the suite.
func (suite *ManifestTestSuite) Run(t *testing.T) {
	t.Run("CommitGet", suite.testCommitGet)
	t.Run("CommitDuplicate", suite.testCommitDuplicate)
	t.Run("GetNotFound", suite.testGetNotFound)
	t.Run("Remove", suite.testRemove)
	t.Run("RemoveNotFound", suite.testRemoveNotFound)
	t.Run("ListNewestFirst", suite.testListNewestFirst)
	t.Run("ListTieBreak", suite.testListTieBreak)
	t.Run("ConcurrentCommits", suite.testConcurrentCommits)
}

func (suite *ManifestTestSuite) open(t *testing.T) manifest.Manifest {
	t.Helper()
	m := suite.NewManifest()
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// base is a fixed, second-aligned timestamp so that backends storing
// coarser time still compare equal.
var base = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func entryAt(offset time.Duration) manifest.Entry {
	return manifest.Entry{
		ID:         media.NewContentID(),
		AddedAt:    base.Add(offset),
		Size:       1234,
		SourceName: "IMG_0001.png",
		Checksum:   "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
	}
}

func assertEntryEqual(t *testing.T, want, got manifest.Entry) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.AddedAt.Equal(got.AddedAt), "AddedAt: want %s, got %s", want.AddedAt, got.AddedAt)
	assert.Equal(t, want.Size, got.Size)
	assert.Equal(t, want.SourceName, got.SourceName)
	assert.Equal(t, want.Checksum, got.Checksum)
}

func (suite *ManifestTestSuite) testCommitGet(t *testing.T) {
	ctx := context.Background()
	m := suite.open(t)
	e := entryAt(0)

	require.NoError(t, m.Commit(ctx, e))

	got, err := m.Get(ctx, e.ID)
	require.NoError(t, err)
	assertEntryEqual(t, e, got)
}

func (suite *ManifestTestSuite) testCommitDuplicate(t *testing.T) {
	ctx := context.Background()
	m := suite.open(t)
	e := entryAt(0)

	require.NoError(t, m.Commit(ctx, e))
	assert.ErrorIs(t, m.Commit(ctx, e), manifest.ErrEntryExists)
}

func (suite *ManifestTestSuite) testGetNotFound(t *testing.T) {
	m := suite.open(t)

	_, err := m.Get(context.Background(), media.NewContentID())
	assert.ErrorIs(t, err, manifest.ErrEntryNotFound)
	assert.ErrorIs(t, err, media.ErrNotFound)
}

func (suite *ManifestTestSuite) testRemove(t *testing.T) {
	ctx := context.Background()
	m := suite.open(t)
	keep, drop := entryAt(0), entryAt(time.Second)
	require.NoError(t, m.Commit(ctx, keep))
	require.NoError(t, m.Commit(ctx, drop))

	require.NoError(t, m.Remove(ctx, drop.ID))

	_, err := m.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, manifest.ErrEntryNotFound)

	entries, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, keep.ID, entries[0].ID)
}

func (suite *ManifestTestSuite) testRemoveNotFound(t *testing.T) {
	m := suite.open(t)

	assert.ErrorIs(t, m.Remove(context.Background(), media.NewContentID()), manifest.ErrEntryNotFound)
}

func (suite *ManifestTestSuite) testListNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := suite.open(t)

	oldest, middle, newest := entryAt(0), entryAt(time.Hour), entryAt(2*time.Hour)
	for _, e := range []manifest.Entry{middle, oldest, newest} {
		require.NoError(t, m.Commit(ctx, e))
	}

	entries, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, newest.ID, entries[0].ID)
	assert.Equal(t, middle.ID, entries[1].ID)
	assert.Equal(t, oldest.ID, entries[2].ID)
	assertEntryEqual(t, newest, entries[0])
}

func (suite *ManifestTestSuite) testListTieBreak(t *testing.T) {
	ctx := context.Background()
	m := suite.open(t)

	a, b := entryAt(0), entryAt(0)
	require.NoError(t, m.Commit(ctx, a))
	require.NoError(t, m.Commit(ctx, b))

	entries, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Less(t, string(entries[0].ID), string(entries[1].ID))
}

func (suite *ManifestTestSuite) testConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	m := suite.open(t)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := entryAt(time.Duration(i) * time.Second)
			e.SourceName = fmt.Sprintf("img-%02d.png", i)
			errs[i] = m.Commit(ctx, e)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "commit %d", i)
	}

	entries, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, n)
	assert.Equal(t, "img-19.png", entries[0].SourceName)
	assert.Equal(t, "img-00.png", entries[n-1].SourceName)
}
