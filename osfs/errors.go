package osfs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resolution of a location nothing exists at.
	ErrNotFound = errors.New("location does not exist")

	// ErrNoLocation indicates an entity with no concrete backing path
	// attempted an I/O operation.
	ErrNoLocation = errors.New("entity has no backing location")

	// ErrNotOpen indicates an operation that requires an open stream was
	// attempted on a closed file where open-on-demand does not apply.
	ErrNotOpen = errors.New("file not open")

	// ErrUnsupported indicates a capability this driver does not provide
	// (mount, removeWatch). It fails loudly rather than silently no-op.
	ErrUnsupported = errors.New("not supported")
)

// errInvalidUTF8 surfaces a failed UTF-8 decode on ReadString.
var errInvalidUTF8 = errors.New("invalid UTF-8 data")

func errUnknownCharset(name string) error {
	return fmt.Errorf("unknown charset %q", name)
}

// Error wraps driver failures with the operation and affected path. Native
// backing-store errors are carried unchanged in Err so errors.Is/As against
// os and syscall sentinels keeps working.
type Error struct {
	Op   string // operation that failed (e.g. "resolve", "rename")
	Path string // affected location
	Err  error  // underlying cause
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Operation names used in errors and log context.
const (
	opResolve     = "resolve"
	opList        = "list"
	opOpen        = "open"
	opSeek        = "seek"
	opRead        = "read"
	opWrite       = "write"
	opFlush       = "flush"
	opClose       = "close"
	opDelete      = "delete"
	opRename      = "rename"
	opMount       = "mount"
	opRemoveWatch = "removeWatch"
)
