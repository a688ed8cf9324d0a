// Package snapshot models the observed state of a filesystem location as an
// immutable tree: a regular file with its content hash, a directory with
// named children, or a marker for a location that does not exist.
package snapshot

import (
	"sort"
	"time"

	"github.com/bolasblack/outcache/internal/hashing"
)

// FileType classifies what a snapshot observed at a location.
type FileType int

const (
	// RegularFile is a plain file with hashable content.
	RegularFile FileType = iota
	// Directory is a directory with zero or more named children.
	Directory
	// Missing marks a location that did not exist when captured.
	Missing
)

func (t FileType) String() string {
	switch t {
	case RegularFile:
		return "file"
	case Directory:
		return "directory"
	case Missing:
		return "missing"
	default:
		return "unknown"
	}
}

// Snapshot is one node of a captured file tree. Implementations are
// immutable once published; mutation during construction happens on
// *Builder only.
type Snapshot interface {
	// AbsolutePath is the captured location.
	AbsolutePath() string
	// Name is the base name of the captured location.
	Name() string
	// Type classifies the node.
	Type() FileType
	// Visit walks the tree depth-first. Directory children are visited in
	// lexicographic name order so traversal is deterministic.
	Visit(v Visitor)
}

// Visitor receives nodes during a depth-first traversal.
type Visitor interface {
	// PreVisitDirectory is called before a directory's children. Returning
	// false skips the children (PostVisitDirectory is still called).
	PreVisitDirectory(dir *DirectorySnapshot) bool
	// VisitFile is called for every regular file.
	VisitFile(file *FileSnapshot)
	// PostVisitDirectory is called after a directory's children.
	PostVisitDirectory(dir *DirectorySnapshot)
}

// FileSnapshot records a regular file's content hash and metadata.
type FileSnapshot struct {
	absolutePath string
	name         string
	contentHash  hashing.HashCode
	lastModified time.Time
	mode         uint32
}

// NewFileSnapshot creates a file node.
func NewFileSnapshot(absolutePath, name string, contentHash hashing.HashCode, lastModified time.Time, mode uint32) *FileSnapshot {
	return &FileSnapshot{
		absolutePath: absolutePath,
		name:         name,
		contentHash:  contentHash,
		lastModified: lastModified,
		mode:         mode,
	}
}

func (s *FileSnapshot) AbsolutePath() string          { return s.absolutePath }
func (s *FileSnapshot) Name() string                  { return s.name }
func (s *FileSnapshot) Type() FileType                { return RegularFile }
func (s *FileSnapshot) ContentHash() hashing.HashCode { return s.contentHash }
func (s *FileSnapshot) LastModified() time.Time       { return s.lastModified }

// Mode returns the permission bits observed at capture time.
func (s *FileSnapshot) Mode() uint32 { return s.mode }

func (s *FileSnapshot) Visit(v Visitor) { v.VisitFile(s) }

// DirectorySnapshot records a directory and its children, keyed by name.
type DirectorySnapshot struct {
	absolutePath string
	name         string
	mode         uint32
	children     map[string]Snapshot
}

func (s *DirectorySnapshot) AbsolutePath() string { return s.absolutePath }
func (s *DirectorySnapshot) Name() string         { return s.name }
func (s *DirectorySnapshot) Type() FileType       { return Directory }

// Mode returns the permission bits observed at capture time.
func (s *DirectorySnapshot) Mode() uint32 { return s.mode }

// Child looks up a direct child by name.
func (s *DirectorySnapshot) Child(name string) (Snapshot, bool) {
	c, ok := s.children[name]
	return c, ok
}

// ChildNames returns the names of all direct children in sorted order.
func (s *DirectorySnapshot) ChildNames() []string {
	names := make([]string, 0, len(s.children))
	for name := range s.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *DirectorySnapshot) Visit(v Visitor) {
	if v.PreVisitDirectory(s) {
		for _, name := range s.ChildNames() {
			s.children[name].Visit(v)
		}
	}
	v.PostVisitDirectory(s)
}

// MissingSnapshot marks a location that did not exist when captured.
type MissingSnapshot struct {
	absolutePath string
	name         string
}

// NewMissingSnapshot creates a missing-location marker.
func NewMissingSnapshot(absolutePath, name string) *MissingSnapshot {
	return &MissingSnapshot{absolutePath: absolutePath, name: name}
}

func (s *MissingSnapshot) AbsolutePath() string { return s.absolutePath }
func (s *MissingSnapshot) Name() string         { return s.name }
func (s *MissingSnapshot) Type() FileType       { return Missing }
func (s *MissingSnapshot) Visit(v Visitor)      {}
