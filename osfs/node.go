package osfs

import (
	"time"

	"github.com/treefs/treefs"
	"github.com/treefs/treefs/fspath"
	"github.com/treefs/treefs/watch"
)

// node carries the state common to every addressable item on the OS
// filesystem: identity, a non-owning reference to the driver that produced
// it, and the watch capability flag. It performs no I/O itself.
type node struct {
	id        fspath.Identifier
	fs        *FileSystem // owning driver; required for parent/delete/rename
	watchable bool
	dir       bool
}

func (n *node) Identity() fspath.Identifier {
	return n.id
}

func (n *node) Watchable() bool {
	return n.watchable
}

// MarkDirty is a hook invoked by the driver after structural changes.
// Plain nodes hold no cached state; Directory overrides it to drop its
// children snapshot.
func (n *node) MarkDirty() {}

// setIdentity replaces the node's identity after a successful rename so
// in-memory references keep addressing the renamed item. External uses of
// the old identity (e.g. as a map key) become stale and must be re-resolved.
func (n *node) setIdentity(id fspath.Identifier) {
	n.id = id
}

// Parent resolves the containing directory through the owning driver.
func (n *node) Parent() (treefs.Directory, error) {
	e, err := n.fs.Resolve(n.id.Parent().FilePath())
	if err != nil {
		return nil, err
	}
	d, ok := e.(treefs.Directory)
	if !ok {
		return nil, &Error{Op: opResolve, Path: n.id.Parent().FilePath(), Err: ErrNotFound}
	}
	return d, nil
}

// AddWatch attaches change notification to this node's location. The call
// returns immediately; monitoring runs on its own goroutine until the
// returned handle is cancelled.
func (n *node) AddWatch(fn treefs.Callback, pollingInterval time.Duration) (treefs.WatchHandle, error) {
	if !n.watchable {
		return nil, &Error{Op: "addWatch", Path: n.id.FilePath(), Err: ErrUnsupported}
	}
	if n.id.IsZero() {
		return nil, &Error{Op: "addWatch", Err: ErrNoLocation}
	}
	if pollingInterval <= 0 {
		pollingInterval = n.fs.cfg.PollingInterval
	}
	return watch.Register(n.id.FilePath(), n.dir, fn, watch.Options{
		PollingInterval: pollingInterval,
		Backend:         watch.Backend(n.fs.cfg.WatchBackend),
	})
}

// RemoveWatch is not implemented; cancellation is done through the handle
// returned by AddWatch. Kept on the contract so the gap is detectable.
func (n *node) RemoveWatch(treefs.Callback) error {
	return &Error{Op: opRemoveWatch, Path: n.id.FilePath(), Err: ErrUnsupported}
}
