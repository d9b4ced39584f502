package testing

import (
	"testing"

	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/stretchr/testify/assert"
)

// RunDeleteTests executes Delete tests.
func (suite *StoreTestSuite) RunDeleteTests(t *testing.T) {
	t.Run("Delete_Success", suite.testDeleteSuccess)
	t.Run("Delete_NotFound", suite.testDeleteNotFound)
	t.Run("Delete_Twice", suite.testDeleteTwice)
	t.Run("Delete_LeavesOthers", suite.testDeleteLeavesOthers)
}

func (suite *StoreTestSuite) testDeleteSuccess(t *testing.T) {
	store := suite.NewStore()
	id := media.NewContentID()
	mustPut(t, store, id, []byte("to be deleted"))

	mustDelete(t, store, id)

	assertExists(t, store, id, false)
	_, _, err := store.Get(testContext(), id)
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testDeleteNotFound(t *testing.T) {
	store := suite.NewStore()

	err := store.Delete(testContext(), media.NewContentID())
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testDeleteTwice(t *testing.T) {
	store := suite.NewStore()
	id := media.NewContentID()
	mustPut(t, store, id, []byte("x"))

	mustDelete(t, store, id)
	err := store.Delete(testContext(), id)
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testDeleteLeavesOthers(t *testing.T) {
	store := suite.NewStore()
	keep := media.NewContentID()
	drop := media.NewContentID()
	mustPut(t, store, keep, []byte("keep"))
	mustPut(t, store, drop, []byte("drop"))

	mustDelete(t, store, drop)

	assertContentEquals(t, store, keep, []byte("keep"))
}
