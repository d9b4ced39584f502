package testing

import (
	"testing"

	"github.com/marmos91/dittophotos/pkg/content"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/stretchr/testify/assert"
)

// RunValidationTests checks that malformed identifiers are rejected before
// any storage is touched.
func (suite *StoreTestSuite) RunValidationTests(t *testing.T) {
	store := suite.NewStore()
	ctx := testContext()

	for _, bad := range []media.ContentID{"", "../escape", "a/b", "not-a-uuid"} {
		assert.ErrorIs(t, store.Put(ctx, bad, []byte("x")), content.ErrInvalidContentID, "Put %q", bad)

		_, _, err := store.Get(ctx, bad)
		assert.ErrorIs(t, err, content.ErrInvalidContentID, "Get %q", bad)

		_, err = store.Size(ctx, bad)
		assert.ErrorIs(t, err, content.ErrInvalidContentID, "Size %q", bad)

		assert.ErrorIs(t, store.Delete(ctx, bad), content.ErrInvalidContentID, "Delete %q", bad)
	}
}
