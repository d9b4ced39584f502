package testing

import (
	"bytes"
	"testing"

	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBasicTests executes Put/Get/Size/Exists tests.
func (suite *StoreTestSuite) RunBasicTests(t *testing.T) {
	t.Run("PutGet", suite.testPutGet)
	t.Run("PutEmpty", suite.testPutEmpty)
	t.Run("PutLarge", suite.testPutLarge)
	t.Run("PutExisting", suite.testPutExisting)
	t.Run("GetNotFound", suite.testGetNotFound)
	t.Run("SizeNotFound", suite.testSizeNotFound)
	t.Run("Exists", suite.testExists)
	t.Run("GetReturnsCopy", suite.testGetReturnsCopy)
	t.Run("Extension", suite.testExtension)
}

func (suite *StoreTestSuite) testPutGet(t *testing.T) {
	store := suite.NewStore()
	id := media.NewContentID()
	data := []byte("Hello, World!")

	mustPut(t, store, id, data)

	assertContentEquals(t, store, id, data)
	assertSize(t, store, id, int64(len(data)))
}

func (suite *StoreTestSuite) testPutEmpty(t *testing.T) {
	store := suite.NewStore()
	id := media.NewContentID()

	mustPut(t, store, id, nil)

	assertExists(t, store, id, true)
	assertSize(t, store, id, 0)
	assert.Empty(t, mustGet(t, store, id))
}

func (suite *StoreTestSuite) testPutLarge(t *testing.T) {
	store := suite.NewStore()
	id := media.NewContentID()
	data := generateTestData(3*1024*1024 + 17)

	mustPut(t, store, id, data)

	assert.True(t, bytes.Equal(data, mustGet(t, store, id)), "large content mismatch")
	assertSize(t, store, id, int64(len(data)))
}

func (suite *StoreTestSuite) testPutExisting(t *testing.T) {
	store := suite.NewStore()
	id := media.NewContentID()
	original := []byte("first")

	mustPut(t, store, id, original)

	err := store.Put(testContext(), id, []byte("second"))
	require.ErrorIs(t, err, content.ErrContentExists)

	assertContentEquals(t, store, id, original)
}

func (suite *StoreTestSuite) testGetNotFound(t *testing.T) {
	store := suite.NewStore()

	_, _, err := store.Get(testContext(), media.NewContentID())
	assert.ErrorIs(t, err, content.ErrContentNotFound)
	assert.ErrorIs(t, err, media.ErrNotFound)
}

func (suite *StoreTestSuite) testSizeNotFound(t *testing.T) {
	store := suite.NewStore()

	_, err := store.Size(testContext(), media.NewContentID())
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testExists(t *testing.T) {
	store := suite.NewStore()
	id := media.NewContentID()

	assertExists(t, store, id, false)
	mustPut(t, store, id, []byte("x"))
	assertExists(t, store, id, true)
}

func (suite *StoreTestSuite) testGetReturnsCopy(t *testing.T) {
	store := suite.NewStore()
	id := media.NewContentID()
	mustPut(t, store, id, []byte("immutable"))

	data := mustGet(t, store, id)
	data[0] = 'X'

	assertContentEquals(t, store, id, []byte("immutable"))
}

func (suite *StoreTestSuite) testExtension(t *testing.T) {
	store := suite.NewStore()

	ext := store.Extension()
	require.NotEmpty(t, ext)
	assert.Equal(t, byte('.'), ext[0], "extension should include the leading dot")
}
