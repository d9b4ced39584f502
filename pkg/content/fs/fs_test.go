package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/dittophotos/pkg/content"
	contenttesting "github.com/marmos91/dittophotos/pkg/content/testing"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, root string) *FSContentStore {
	t.Helper()
	store, err := NewFSContentStore(context.Background(), FSContentStoreConfig{Path: root, NoSync: true})
	require.NoError(t, err)
	return store
}

// TestFSContentStore runs the complete ContentStore test suite
// against the FSContentStore implementation.
func TestFSContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func() content.ContentStore {
			return newTestStore(t, t.TempDir())
		},
	}

	suite.Run(t)
}

func TestFSContentStore_Layout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := newTestStore(t, root)

	id := media.NewContentID()
	require.NoError(t, store.Put(ctx, id, []byte("payload")))

	path, err := store.Path(id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, string(id)+".dpic"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	tmp, err := os.ReadDir(filepath.Join(root, tempDirName))
	require.NoError(t, err)
	assert.Empty(t, tmp, "temp directory should be empty after a successful put")
}

func TestFSContentStore_ListIgnoresForeignFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := newTestStore(t, root)

	id := media.NewContentID()
	require.NoError(t, store.Put(ctx, id, []byte("x")))

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "not-a-uuid.dpic"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, string(media.NewContentID())+".png"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, string(media.NewContentID())+".dpic"), 0755))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []media.ContentID{id}, ids)
}

func TestFSContentStore_CleansStaleTempFiles(t *testing.T) {
	root := t.TempDir()
	tempDir := filepath.Join(root, tempDirName)
	require.NoError(t, os.MkdirAll(tempDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "leftover-123"), []byte("partial"), 0644))

	newTestStore(t, root)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFSContentStore_CustomExtension(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSContentStore(ctx, FSContentStoreConfig{Path: t.TempDir(), Extension: "bin", NoSync: true})
	require.NoError(t, err)
	assert.Equal(t, ".bin", store.Extension())

	id := media.NewContentID()
	require.NoError(t, store.Put(ctx, id, []byte("x")))
	path, err := store.Path(id)
	require.NoError(t, err)
	assert.Equal(t, ".bin", filepath.Ext(path))
}

func TestFSContentStore_RequiresPath(t *testing.T) {
	_, err := NewFSContentStore(context.Background(), FSContentStoreConfig{})
	assert.Error(t, err)
}
