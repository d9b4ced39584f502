package testing

import (
	"testing"

	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustPut stores data and fails the test if it errors.
func mustPut(t *testing.T, store content.ContentStore, id media.ContentID, data []byte) {
	t.Helper()
	err := store.Put(testContext(), id, data)
	require.NoError(t, err, "Put should succeed")
}

// mustGet reads content and fails the test if it errors.
func mustGet(t *testing.T, store content.ContentStore, id media.ContentID) []byte {
	t.Helper()
	data, size, err := store.Get(testContext(), id)
	require.NoError(t, err, "Get should succeed")
	require.Equal(t, int64(len(data)), size, "Get size should match data length")
	return data
}

// mustDelete deletes content and fails the test if it errors.
func mustDelete(t *testing.T, store content.ContentStore, id media.ContentID) {
	t.Helper()
	err := store.Delete(testContext(), id)
	require.NoError(t, err, "Delete should succeed")
}

// assertExists checks if content exists.
func assertExists(t *testing.T, store content.ContentStore, id media.ContentID, expected bool) {
	t.Helper()
	exists, err := store.Exists(testContext(), id)
	require.NoError(t, err, "Exists should not error")
	assert.Equal(t, expected, exists, "Content existence mismatch")
}

// assertContentEquals checks if content matches expected data.
func assertContentEquals(t *testing.T, store content.ContentStore, id media.ContentID, expected []byte) {
	t.Helper()
	actual := mustGet(t, store, id)
	assert.Equal(t, expected, actual, "Content data mismatch")
}

// assertSize checks if content size matches expected.
func assertSize(t *testing.T, store content.ContentStore, id media.ContentID, expected int64) {
	t.Helper()
	actual, err := store.Size(testContext(), id)
	require.NoError(t, err, "Size should succeed")
	assert.Equal(t, expected, actual, "Content size mismatch")
}

// generateTestData creates test data of specified size.
func generateTestData(size int) []byte {
	data := make([]byte, size)
	for i := range size {
		data[i] = byte(i % 256)
	}
	return data
}
