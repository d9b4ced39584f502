package testing

import (
	"testing"

	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStatsTests checks GetStorageStats usage accounting.
func (suite *StoreTestSuite) RunStatsTests(t *testing.T) {
	store := suite.NewStore()

	stats, err := store.GetStorageStats(testContext())
	require.NoError(t, err)
	assert.Zero(t, stats.ContentCount)
	assert.Zero(t, stats.UsedSize)
	assert.Zero(t, stats.AverageSize)

	mustPut(t, store, media.NewContentID(), generateTestData(100))
	mustPut(t, store, media.NewContentID(), generateTestData(300))

	stats, err = store.GetStorageStats(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.ContentCount)
	assert.Equal(t, uint64(400), stats.UsedSize)
	assert.Equal(t, uint64(200), stats.AverageSize)
}
