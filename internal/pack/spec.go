// Package pack serializes resolved output properties into a single POSIX
// tar archive and restores them again, re-deriving fresh snapshots of
// everything it writes back to disk.
//
// Archive layout: one METADATA entry first (opaque origin bytes), then one
// section per property in property-name order. A property rooted at a
// missing location contributes a single zero-length marker entry; a file
// property contributes one file entry; a directory property contributes the
// root directory entry plus one entry per descendant, depth-first.
package pack

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
)

const (
	// metadataPath is the fixed name of the origin metadata entry.
	metadataPath = "METADATA"

	// filePermissionMask keeps only the permission bits of an entry mode.
	filePermissionMask = 0o777

	// copyBufferSize is the size of the per-call scratch buffer used when
	// streaming file contents.
	copyBufferSize = 64 * 1024
)

// propertyPathPattern matches archive entry names carrying property data.
var propertyPathPattern = regexp.MustCompile(`^(missing-)?property-([^/]+)(?:/(.*))?$`)

// ErrInvalidCacheEntry marks structural corruption of an archive: a missing
// metadata entry, an unparseable entry name, or a reference to an
// unregistered property. Callers should treat it as a cache miss and
// recompute rather than failing the build.
var ErrInvalidCacheEntry = errors.New("invalid cache entry")

// ErrPropertyTypeMismatch marks a conflict between a property's declared
// output type and what was observed, either on disk while packing or in the
// archive while unpacking. It is a configuration error, never retried.
var ErrPropertyTypeMismatch = errors.New("output property type mismatch")

// OutputType declares what kind of output a property produces.
type OutputType int

const (
	// OutputFile is a property producing a single regular file.
	OutputFile OutputType = iota
	// OutputDirectory is a property producing a whole directory tree.
	OutputDirectory
)

func (t OutputType) String() string {
	if t == OutputDirectory {
		return "directory"
	}
	return "file"
}

// PropertySpec is one resolved output property: its unique name, declared
// type, and resolved root location. An empty Root means the property has no
// value and contributes nothing to an archive.
type PropertySpec struct {
	PropertyName string
	OutputType   OutputType
	Root         string
}

// sortSpecs returns the specs ordered by property name, the order in which
// sections appear in an archive.
func sortSpecs(specs []PropertySpec) []PropertySpec {
	sorted := make([]PropertySpec, len(specs))
	copy(sorted, specs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PropertyName < sorted[j].PropertyName
	})
	return sorted
}

func specsByName(specs []PropertySpec) map[string]PropertySpec {
	byName := make(map[string]PropertySpec, len(specs))
	for _, spec := range specs {
		byName[spec.PropertyName] = spec
	}
	return byName
}

// escapePropertyName makes a property name safe for use as an archive entry
// name component. url.QueryEscape never emits '/', so the entry name
// grammar stays parseable, and unescaping is its exact inverse.
func escapePropertyName(name string) string {
	return url.QueryEscape(name)
}

func unescapePropertyName(escaped string) (string, error) {
	name, err := url.QueryUnescape(escaped)
	if err != nil {
		// Unreachable for names we produced ourselves; anything else is a
		// corrupt archive.
		return "", fmt.Errorf("%w: malformed property name %q: %v", ErrInvalidCacheEntry, escaped, err)
	}
	return name, nil
}
