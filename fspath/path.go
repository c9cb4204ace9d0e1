// Package fspath provides the normalized location identifier used to address
// entities within a filesystem driver. Accepted input forms are bare OS-style
// paths and file:// URLs; both normalize to the same comparable value.
package fspath

import (
	"os"
	"path/filepath"
	"strings"
)

// URLScheme is the accepted URL prefix for local filesystem locations.
const URLScheme = "file://"

// Identifier is a normalized, comparable location within a filesystem.
// The zero value addresses nothing; entities constructed from it have no
// concrete backing path.
type Identifier struct {
	path string // cleaned path in OS separator form
}

// Parse normalizes a location string into an Identifier. A file:// prefix is
// stripped, separators are converted to the host convention and the result is
// cleaned. An empty location yields the zero Identifier.
func Parse(location string) Identifier {
	loc := strings.TrimPrefix(location, URLScheme)
	if loc == "" {
		return Identifier{}
	}
	return Identifier{path: filepath.Clean(filepath.FromSlash(loc))}
}

// FilePath returns the concrete OS path, or "" for the zero Identifier.
func (id Identifier) FilePath() string {
	return id.path
}

// URL returns the file:// form of the identifier.
func (id Identifier) URL() string {
	return URLScheme + filepath.ToSlash(id.path)
}

// String implements fmt.Stringer using the OS path form.
func (id Identifier) String() string {
	return id.path
}

// IsZero reports whether the identifier addresses no concrete location.
func (id Identifier) IsZero() bool {
	return id.path == ""
}

// Base returns the last element of the identifier's path.
func (id Identifier) Base() string {
	if id.IsZero() {
		return ""
	}
	return filepath.Base(id.path)
}

// Parent returns the identifier of the containing directory. The parent of
// a root path is the root itself.
func (id Identifier) Parent() Identifier {
	if id.IsZero() {
		return Identifier{}
	}
	return Identifier{path: filepath.Dir(id.path)}
}

// Child returns the identifier for name inside this location.
func (id Identifier) Child(name string) Identifier {
	if id.IsZero() {
		return Parse(name)
	}
	return Identifier{path: filepath.Join(id.path, name)}
}

// Relative resolves name against this identifier: a fully-qualified location
// (absolute path or file:// URL) stands on its own, while a bare name is
// taken as a sibling within the identifier's parent.
func (id Identifier) Relative(name string) Identifier {
	if strings.HasPrefix(name, URLScheme) || filepath.IsAbs(filepath.FromSlash(name)) {
		return Parse(name)
	}
	return id.Parent().Child(name)
}

// Equal compares two identifiers under the given case sensitivity rule.
func (id Identifier) Equal(other Identifier, caseSensitive bool) bool {
	if caseSensitive {
		return id.path == other.path
	}
	return strings.EqualFold(id.path, other.path)
}

// CaseSensitive reports the host path-separator convention: a backslash
// separator implies case-insensitive naming, anything else case-sensitive.
func CaseSensitive() bool {
	return os.PathSeparator != '\\'
}

// PlatformRoot returns the top-level location of the host filesystem.
func PlatformRoot() Identifier {
	if os.PathSeparator == '\\' {
		return Identifier{path: `C:\`}
	}
	return Identifier{path: "/"}
}
