package osfs

import (
	"github.com/treefs/treefs"
	"github.com/treefs/treefs/fspath"
)

// Directory is a filesystem entity whose child listing is materialized
// lazily and cached as a point-in-time snapshot. The snapshot is never
// patched incrementally; it is invalidated wholesale by MarkDirty and
// relisted on the next read. Cached listings are safe to read concurrently,
// but concurrent mutators (delete/rename/MarkDirty) must be serialized by
// the caller.
type Directory struct {
	node
	children []treefs.Entity // nil means not yet listed or invalidated
}

var _ treefs.Directory = (*Directory)(nil)

func newDirectory(id fspath.Identifier, fs *FileSystem) *Directory {
	d := &Directory{node: node{id: id, fs: fs, watchable: true, dir: true}}
	fs.dirRegistry.Store(fs.registryKey(id), d)
	return d
}

// MarkDirty drops the cached children snapshot so the next read
// re-enumerates the backing store.
func (d *Directory) MarkDirty() {
	d.children = nil
}

// Children returns the cached snapshot of this directory's entries,
// enumerating the backing store on first read or after MarkDirty. Ordering
// follows the backing store's enumeration order and is not guaranteed.
func (d *Directory) Children() ([]treefs.Entity, error) {
	if d.children != nil {
		return d.children, nil
	}
	children, err := d.fs.ListChildren(d)
	if err != nil {
		return nil, err
	}
	d.children = children
	return d.children, nil
}

// Mount is a reserved extension point for grafting another filesystem inside
// this tree. The OS driver does not provide it and fails loudly so callers
// can detect the missing capability.
func (d *Directory) Mount(location string, other treefs.Filesystem) error {
	_ = other
	return &Error{Op: opMount, Path: location, Err: ErrUnsupported}
}
