package testing

import (
	"testing"

	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunListTests executes List tests.
func (suite *StoreTestSuite) RunListTests(t *testing.T) {
	t.Run("List_Empty", suite.testListEmpty)
	t.Run("List_AfterPutAndDelete", suite.testListAfterPutAndDelete)
}

func (suite *StoreTestSuite) testListEmpty(t *testing.T) {
	store := suite.NewStore()

	ids, err := store.List(testContext())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func (suite *StoreTestSuite) testListAfterPutAndDelete(t *testing.T) {
	store := suite.NewStore()

	var ids []media.ContentID
	for range 5 {
		id := media.NewContentID()
		mustPut(t, store, id, []byte(id))
		ids = append(ids, id)
	}
	mustDelete(t, store, ids[2])

	listed, err := store.List(testContext())
	require.NoError(t, err)

	want := append(append([]media.ContentID{}, ids[:2]...), ids[3:]...)
	assert.ElementsMatch(t, want, listed)
}
