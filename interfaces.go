package treefs

import (
	"io"
	"time"

	"github.com/treefs/treefs/fspath"
)

// Entity is an addressable node in a filesystem tree. Every entity belongs
// to exactly one filesystem driver; its identity is unique within that
// driver at any instant.
type Entity interface {
	// Identity returns the normalized location naming this entity. It is
	// immutable except on a successful rename, after which the same entity
	// addresses the new location.
	Identity() fspath.Identifier

	// Watchable reports whether change notification can be attached.
	Watchable() bool

	// MarkDirty invalidates any cached state derived from the backing
	// store. The driver invokes it after structural changes.
	MarkDirty()

	// Parent resolves the entity's containing directory through the
	// owning driver.
	Parent() (Directory, error)

	// AddWatch registers fn for change notification on this entity and
	// returns immediately; monitoring runs independently until the
	// returned handle is cancelled or the process exits.
	AddWatch(fn Callback, pollingInterval time.Duration) (WatchHandle, error)

	// RemoveWatch is part of the intended contract but not implemented;
	// it fails with an unsupported error rather than silently no-op so
	// callers can detect the missing capability.
	RemoveWatch(fn Callback) error
}

// File is an entity with deferred-open stream semantics: no native handle is
// acquired until the first operation that requires one.
type File interface {
	Entity
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	// IsOpen reports whether a native stream is currently held.
	IsOpen() bool

	// Tell returns the current stream offset, or 0 when unopened.
	Tell() (int64, error)

	// ReadAll reads the remainder of the file, opening it on demand.
	ReadAll() ([]byte, error)

	// ReadString reads the remainder and decodes it with the named
	// charset. Decode failures surface as errors.
	ReadString(charset string) (string, error)

	// WriteString encodes s with the named charset and writes it,
	// opening the file on demand in truncating write mode.
	WriteString(s, charset string) (int, error)

	// Flush forces buffered writes out; fails when no stream is open.
	Flush() error
}

// Directory is an entity with a lazy, cached, invalidatable child listing.
type Directory interface {
	Entity

	// Children returns the cached point-in-time snapshot of child
	// entities, enumerating the backing store on first read or after
	// MarkDirty. Ordering follows the backing store and is not
	// guaranteed.
	Children() ([]Entity, error)

	// Mount is a reserved extension point for grafting another
	// filesystem at a location inside this tree. Drivers without the
	// capability fail with an unsupported error.
	Mount(location string, other Filesystem) error
}

// Filesystem is the driver contract exposed upward: typed resolution plus
// CRUD dispatch for the entities it owns.
type Filesystem interface {
	// Resolve classifies the location through the backing store and
	// returns the corresponding typed entity. It is the single dispatch
	// point for obtaining typed entities; type is never guessed from
	// naming conventions.
	Resolve(location string) (Entity, error)

	// Delete removes a file, or a directory with all contents, and marks
	// the parent listing dirty.
	Delete(e Entity) error

	// Rename moves an entity to newName (bare sibling name or
	// fully-qualified location) and updates the entity's identity in
	// place on success.
	Rename(e Entity, newName string) error

	// Root returns a fresh top-level directory entity on every access.
	Root() Directory

	// CaseSensitive reports the driver's naming convention, fixed at
	// construction from the host path separator.
	CaseSensitive() bool
}

// WatchHandle is the cancellation token returned from watch registration.
type WatchHandle interface {
	// Cancel cooperatively stops the watch loop. Safe to call more than
	// once.
	Cancel()

	// Done is closed once the watch loop has fully stopped.
	Done() <-chan struct{}
}
