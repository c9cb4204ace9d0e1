// Package treefs defines the uniform entity contracts for hierarchical
// filesystems: typed resolution, lazy directory listings, deferred-open file
// I/O and a unified change-notification callback vocabulary. The local OS
// driver lives in the osfs subpackage.
package treefs

// Op identifies the kind of change delivered to a watch callback.
//
// All watch backends share the CREATE/UPDATE/DELETE/RENAME vocabulary. The
// polling backend additionally delivers one aggregate REMOVE per sampling
// interval in which any child names of a watched directory disappeared; it
// is kept distinct from DELETE on purpose since callers observe both tags.
type Op string

const (
	OpCreate Op = "CREATE"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
	OpRename Op = "RENAME"
	OpRemove Op = "REMOVE"
)

// Callback receives the affected path and the operation that occurred.
// Callbacks are treated as untrusted by every watch backend: a panicking or
// failing callback is logged and must never terminate the watch loop.
type Callback func(path string, op Op)
