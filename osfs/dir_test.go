package osfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treefs/treefs"
)

// resolveDir resolves path and requires it to be a directory entity.
func resolveDir(t *testing.T, fs *FileSystem, path string) *Directory {
	t.Helper()
	e, err := fs.Resolve(path)
	require.NoError(t, err)
	d, ok := e.(*Directory)
	require.True(t, ok)
	return d
}

func TestDirectory_ChildrenLazyAndCached(t *testing.T) {
	t.Parallel()

	fs, root := newTestFS(t)
	base := filepath.Join(root, "base")
	require.NoError(t, os.Mkdir(base, 0o755))
	writeTestFile(t, filepath.Join(base, "a.txt"), []byte("a"))

	d := resolveDir(t, fs, base)
	assert.Nil(t, d.children, "listing must not happen before first read")

	first, err := d.Children()
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A file added behind the cache's back is not visible...
	writeTestFile(t, filepath.Join(base, "b.txt"), []byte("b"))
	second, err := d.Children()
	require.NoError(t, err)
	assert.Len(t, second, 1)

	// ...and consecutive reads return the identical cached snapshot
	assert.Same(t, first[0], second[0], "children must be identity-stable between invalidations")
}

func TestDirectory_MarkDirtyForcesRelist(t *testing.T) {
	t.Parallel()

	fs, root := newTestFS(t)
	base := filepath.Join(root, "base")
	require.NoError(t, os.Mkdir(base, 0o755))
	writeTestFile(t, filepath.Join(base, "a.txt"), []byte("a"))

	d := resolveDir(t, fs, base)
	children, err := d.Children()
	require.NoError(t, err)
	require.Len(t, children, 1)

	writeTestFile(t, filepath.Join(base, "b.txt"), []byte("b"))
	d.MarkDirty()

	children, err = d.Children()
	require.NoError(t, err)
	assert.Len(t, children, 2, "invalidation must re-query the backing store")
}

func TestDirectory_ChildrenAreTyped(t *testing.T) {
	t.Parallel()

	fs, root := newTestFS(t)
	base := filepath.Join(root, "base")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "sub"), 0o755))
	writeTestFile(t, filepath.Join(base, "a.txt"), []byte("a"))

	d := resolveDir(t, fs, base)
	children, err := d.Children()
	require.NoError(t, err)
	require.Len(t, children, 2)

	types := map[string]treefs.Entity{}
	for _, c := range children {
		types[c.Identity().Base()] = c
	}
	assert.IsType(t, &File{}, types["a.txt"])
	assert.IsType(t, &Directory{}, types["sub"])
}

func TestDirectory_MountUnsupported(t *testing.T) {
	t.Parallel()

	fs, root := newTestFS(t)
	d := resolveDir(t, fs, root)

	err := d.Mount("/elsewhere", nil)
	require.Error(t, err, "absent capability must fail loudly, not silently no-op")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestEntity_RemoveWatchUnsupported(t *testing.T) {
	t.Parallel()

	fs, root := newTestFS(t)
	d := resolveDir(t, fs, root)

	err := d.RemoveWatch(func(string, treefs.Op) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestEntity_Watchable(t *testing.T) {
	t.Parallel()

	fs, root := newTestFS(t)
	writeTestFile(t, filepath.Join(root, "a.txt"), []byte("a"))

	d := resolveDir(t, fs, root)
	assert.True(t, d.Watchable())

	f := resolveFile(t, fs, filepath.Join(root, "a.txt"))
	assert.True(t, f.Watchable())
}
