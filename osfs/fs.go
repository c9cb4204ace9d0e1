// Package osfs is the local operating-system driver for the treefs entity
// contracts: typed path resolution, lazy directory listings, deferred-open
// file I/O and watchable entities.
package osfs

import (
	"errors"
	"os"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog"

	"github.com/treefs/treefs"
	"github.com/treefs/treefs/config"
	"github.com/treefs/treefs/fspath"
	"github.com/treefs/treefs/internal/util"
)

// FileSystem is the local-OS filesystem driver. It is itself the directory
// entity for its configured root and the single producer of typed entities:
// all higher-level code obtains files and directories through Resolve.
// Exactly one driver instance should exist per mounted root.
type FileSystem struct {
	Directory
	cfg           *config.Config
	caseSensitive bool // fixed at construction from the host separator
	log           zerolog.Logger

	// dirRegistry maps normalized paths to the most recently produced
	// directory entity so mutations can invalidate live listing caches.
	dirRegistry *xsync.Map[string, *Directory]
}

var _ treefs.Filesystem = (*FileSystem)(nil)

// New creates a driver rooted at location. An empty location defaults to the
// process working directory, or the platform root when the config disables
// the cwd default. Case sensitivity is derived from the host path-separator
// convention and fixed for the driver's lifetime.
func New(location string, cfg *config.Config) (*FileSystem, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	id := fspath.Parse(location)
	if id.IsZero() {
		if cfg.DefaultLocationCwd {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, &Error{Op: opResolve, Err: err}
			}
			id = fspath.Parse(cwd)
		} else {
			id = fspath.PlatformRoot()
		}
	}
	fs := &FileSystem{
		cfg:           cfg,
		caseSensitive: fspath.CaseSensitive(),
		log:           util.GetLogger("osfs"),
		dirRegistry:   xsync.NewMap[string, *Directory](),
	}
	fs.Directory = Directory{node: node{id: id, fs: fs, watchable: true, dir: true}}
	fs.dirRegistry.Store(fs.registryKey(id), &fs.Directory)
	return fs, nil
}

// CaseSensitive reports the driver's naming convention.
func (fs *FileSystem) CaseSensitive() bool {
	return fs.caseSensitive
}

// Root returns a fresh directory entity scoped to the driver's configured
// root. It is deliberately not cached, so repeated root access always
// reflects the current state while explicit subdirectories keep their own
// caching rule.
func (fs *FileSystem) Root() treefs.Directory {
	return newDirectory(fs.id, fs)
}

// Resolve normalizes location and classifies it through the backing store,
// returning the corresponding typed entity. This is the single dispatch
// point for typed entities; type is taken from the store's classification,
// never guessed from naming conventions.
func (fs *FileSystem) Resolve(location string) (treefs.Entity, error) {
	id := fspath.Parse(location)
	path := id.FilePath()
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Op: opResolve, Path: path, Err: ErrNotFound}
		}
		return nil, &Error{Op: opResolve, Path: path, Err: err}
	}
	if info.IsDir() {
		return newDirectory(id, fs), nil
	}
	return newFile(id, fs), nil
}

// ListChildren enumerates the backing store at the directory's location and
// resolves each name through Resolve, producing one typed entity per entry.
// Ordering follows whatever the backing store provides.
func (fs *FileSystem) ListChildren(d *Directory) ([]treefs.Entity, error) {
	path := d.id.FilePath()
	if path == "" {
		path = "."
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &Error{Op: opList, Path: path, Err: err}
	}
	children := make([]treefs.Entity, 0, len(entries))
	for _, entry := range entries {
		child, err := fs.Resolve(d.id.Child(entry.Name()).FilePath())
		if err != nil {
			// Entry vanished between enumeration and classification.
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// Delete removes the entity from the backing store: recursively for a
// directory and all its contents, a single remove for a file. Native errors
// propagate unchanged as the cause. On success the parent directory is
// marked dirty so future listings reflect the change.
func (fs *FileSystem) Delete(e treefs.Entity) error {
	path := e.Identity().FilePath()
	var err error
	if _, ok := e.(treefs.Directory); ok {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return &Error{Op: opDelete, Path: path, Err: err}
	}
	if _, ok := e.(treefs.Directory); ok {
		fs.dirRegistry.Delete(fs.registryKey(e.Identity()))
	}
	fs.markParentDirty(e.Identity())
	return nil
}

// Rename moves the entity to newName, which may be a bare name (resolved as
// a sibling within the current parent) or a fully-qualified location. On
// failure the old and new paths are logged and the native error is returned;
// on success the entity's identity is updated in place so in-memory
// references keep addressing the renamed item. Any external reference to the
// old identity (e.g. as a map key) becomes stale and must be re-resolved.
func (fs *FileSystem) Rename(e treefs.Entity, newName string) error {
	oldID := e.Identity()
	newID := oldID.Relative(newName)
	if err := os.Rename(oldID.FilePath(), newID.FilePath()); err != nil {
		fs.log.Error().Err(err).
			Str("from", oldID.FilePath()).
			Str("to", newID.FilePath()).
			Msg("rename failed")
		return &Error{Op: opRename, Path: oldID.FilePath(), Err: err}
	}
	if n, ok := e.(interface{ setIdentity(fspath.Identifier) }); ok {
		n.setIdentity(newID)
	}
	if d, ok := e.(*Directory); ok {
		fs.dirRegistry.Delete(fs.registryKey(oldID))
		fs.dirRegistry.Store(fs.registryKey(newID), d)
	}
	fs.markParentDirty(oldID)
	fs.markParentDirty(newID)
	return nil
}

// markParentDirty invalidates the listing cache of the live directory entity
// at id's parent, if the driver has produced one.
func (fs *FileSystem) markParentDirty(id fspath.Identifier) {
	if d, ok := fs.dirRegistry.Load(fs.registryKey(id.Parent())); ok {
		d.MarkDirty()
	}
}

// registryKey folds case per the driver's sensitivity so lookups follow the
// host naming convention.
func (fs *FileSystem) registryKey(id fspath.Identifier) string {
	if fs.caseSensitive {
		return id.FilePath()
	}
	return strings.ToLower(id.FilePath())
}
