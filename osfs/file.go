package osfs

import (
	"io"
	"os"
	"runtime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/treefs/treefs"
	"github.com/treefs/treefs/fspath"
	"github.com/treefs/treefs/internal/util"
)

// AccessMode is the mode a file stream is opened with. The last mode used is
// remembered for implicit reopen after Close.
type AccessMode int

const (
	// ModeNone means no mode has been chosen yet; operations pick their
	// own implicit mode (read for reads, truncating write for writes).
	ModeNone AccessMode = iota
	// ModeRead opens the file read-only.
	ModeRead
	// ModeWrite opens the file write-only, creating and truncating it.
	ModeWrite
	// ModeReadWrite opens the file for both, creating it if absent.
	ModeReadWrite
)

func (m AccessMode) osFlags() int {
	switch m {
	case ModeWrite:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case ModeReadWrite:
		return os.O_RDWR | os.O_CREATE
	default:
		return os.O_RDONLY
	}
}

// File is a filesystem entity with deferred-open stream semantics: it is a
// cheap, inert handle until the first operation that needs real I/O. At most
// one native stream is held at a time; File is not safe for concurrent use
// by multiple goroutines without external synchronization.
type File struct {
	node
	f    *os.File
	mode AccessMode // last mode used; remembered for implicit reopen
}

var _ treefs.File = (*File)(nil)

func newFile(id fspath.Identifier, fs *FileSystem) *File {
	f := &File{node: node{id: id, fs: fs, watchable: true}}
	// Best-effort close on teardown; failures are logged, never raised.
	runtime.SetFinalizer(f, (*File).teardown)
	return f
}

// Open acquires the native stream if none is held, using mode, or the
// last-remembered mode when mode is ModeNone. If a stream is already open
// the call instead seeks it back to the start (idempotent re-open, not a
// true reopen). Returns the file itself so calls can be chained.
func (f *File) Open(mode AccessMode) (*File, error) {
	if f.f != nil {
		if _, err := f.f.Seek(0, io.SeekStart); err != nil {
			return nil, &Error{Op: opOpen, Path: f.id.FilePath(), Err: err}
		}
		return f, nil
	}
	if f.id.IsZero() {
		return nil, &Error{Op: opOpen, Err: ErrNoLocation}
	}
	if mode == ModeNone {
		mode = f.mode
	}
	if mode == ModeNone {
		mode = ModeRead
	}
	h, err := os.OpenFile(f.id.FilePath(), mode.osFlags(), 0o644)
	if err != nil {
		return nil, &Error{Op: opOpen, Path: f.id.FilePath(), Err: err}
	}
	f.f = h
	f.mode = mode
	return f, nil
}

// IsOpen reports whether a native stream is currently held.
func (f *File) IsOpen() bool {
	return f.f != nil
}

// Seek moves the stream position. A seek to absolute offset 0 on an unopened
// file is satisfied without opening, since a fresh open always starts at 0;
// any other seek opens the stream implicitly first.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.f == nil {
		if offset == 0 && whence == io.SeekStart {
			return 0, nil
		}
		if _, err := f.Open(ModeNone); err != nil {
			return 0, err
		}
	}
	pos, err := f.f.Seek(offset, whence)
	if err != nil {
		return pos, &Error{Op: opSeek, Path: f.id.FilePath(), Err: err}
	}
	return pos, nil
}

// Tell returns the current stream offset. An unopened file reports 0,
// consistent with "unopened == positioned at start".
func (f *File) Tell() (int64, error) {
	if f.f == nil {
		return 0, nil
	}
	pos, err := f.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, &Error{Op: opSeek, Path: f.id.FilePath(), Err: err}
	}
	return pos, nil
}

// Read implements io.Reader, opening the file implicitly in read mode when
// no stream is held.
func (f *File) Read(p []byte) (int, error) {
	if f.f == nil {
		if _, err := f.Open(ModeRead); err != nil {
			return 0, err
		}
	}
	return f.f.Read(p)
}

// ReadAll reads the remainder of the file from the current position.
func (f *File) ReadAll() ([]byte, error) {
	if f.f == nil {
		if _, err := f.Open(ModeRead); err != nil {
			return nil, err
		}
	}
	data, err := io.ReadAll(f.f)
	if err != nil {
		return nil, &Error{Op: opRead, Path: f.id.FilePath(), Err: err}
	}
	return data, nil
}

// ReadString reads the remainder of the file and decodes it using the named
// charset ("" and "utf-8" mean UTF-8). A failed decode surfaces as an error,
// never as silently substituted text.
func (f *File) ReadString(charset string) (string, error) {
	data, err := f.ReadAll()
	if err != nil {
		return "", err
	}
	if isUTF8Name(charset) {
		if !utf8.Valid(data) {
			return "", &Error{Op: opRead, Path: f.id.FilePath(), Err: errInvalidUTF8}
		}
		return string(data), nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return "", &Error{Op: opRead, Path: f.id.FilePath(), Err: errUnknownCharset(charset)}
	}
	s, _, err := transform.String(enc.NewDecoder(), string(data))
	if err != nil {
		return "", &Error{Op: opRead, Path: f.id.FilePath(), Err: err}
	}
	return s, nil
}

// Write implements io.Writer, opening the file implicitly in truncating
// write mode when no stream is held.
func (f *File) Write(p []byte) (int, error) {
	if f.f == nil {
		if _, err := f.Open(ModeWrite); err != nil {
			return 0, err
		}
	}
	n, err := f.f.Write(p)
	if err != nil {
		return n, &Error{Op: opWrite, Path: f.id.FilePath(), Err: err}
	}
	return n, nil
}

// WriteString encodes s with the named charset and writes the bytes,
// returning the number of bytes written. Runes the charset cannot represent
// surface as an encode error.
func (f *File) WriteString(s, charset string) (int, error) {
	if isUTF8Name(charset) {
		return f.Write([]byte(s))
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return 0, &Error{Op: opWrite, Path: f.id.FilePath(), Err: errUnknownCharset(charset)}
	}
	encoded, _, err := transform.String(enc.NewEncoder(), s)
	if err != nil {
		return 0, &Error{Op: opWrite, Path: f.id.FilePath(), Err: err}
	}
	return f.Write([]byte(encoded))
}

// Flush forces buffered writes to the backing store. Unlike the read/write
// paths it does not open on demand: flushing a closed file is an error.
func (f *File) Flush() error {
	if f.f == nil {
		return &Error{Op: opFlush, Path: f.id.FilePath(), Err: ErrNotOpen}
	}
	if err := f.f.Sync(); err != nil {
		return &Error{Op: opFlush, Path: f.id.FilePath(), Err: err}
	}
	return nil
}

// Close releases the stream and resets the remembered access mode. Closing
// an already-closed file is a no-op.
func (f *File) Close() error {
	if f.f == nil {
		return nil
	}
	h := f.f
	f.f = nil
	f.mode = ModeNone
	if err := h.Close(); err != nil {
		return &Error{Op: opClose, Path: f.id.FilePath(), Err: err}
	}
	return nil
}

// teardown runs as the finalizer: close if still open, log-only on failure
// since no caller is positioned to handle it.
func (f *File) teardown() {
	if f.f == nil {
		return
	}
	if err := f.Close(); err != nil {
		log := util.GetLogger("osfs")
		log.Warn().Err(err).Str("path", f.id.FilePath()).Msg("implicit close failed")
	}
}

func isUTF8Name(charset string) bool {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}
