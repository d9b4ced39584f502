package testing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConcurrencyTests checks that concurrent writers for different
// identifiers never interfere.
func (suite *StoreTestSuite) RunConcurrencyTests(t *testing.T) {
	store := suite.NewStore()

	const writers = 16
	ids := make([]media.ContentID, writers)
	for i := range ids {
		ids[i] = media.NewContentID()
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Put(testContext(), ids[i], []byte(fmt.Sprintf("item-%d", i)))
		}(i)
	}
	wg.Wait()

	for i := range writers {
		require.NoError(t, errs[i], "writer %d", i)
		assertContentEquals(t, store, ids[i], []byte(fmt.Sprintf("item-%d", i)))
	}

	listed, err := store.List(testContext())
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, listed)
}
