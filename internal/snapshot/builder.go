package snapshot

import (
	"fmt"
	"path"
)

// Builder incrementally assembles a directory tree, for example while
// entries are being restored from an archive in whatever order they appear.
// Build publishes the accumulated tree as an immutable DirectorySnapshot;
// the builder must not be touched afterwards.
type Builder struct {
	root *buildNode
}

type buildNode struct {
	dir      *DirectorySnapshot
	children map[string]*buildNode
	leaves   map[string]Snapshot
}

// NewBuilder starts a tree rooted at the given directory location.
func NewBuilder(absolutePath, name string, mode uint32) *Builder {
	return &Builder{root: newBuildNode(absolutePath, name, mode)}
}

func newBuildNode(absolutePath, name string, mode uint32) *buildNode {
	return &buildNode{
		dir:      &DirectorySnapshot{absolutePath: absolutePath, name: name, mode: mode},
		children: make(map[string]*buildNode),
		leaves:   make(map[string]Snapshot),
	}
}

// AddDirectory records a directory at the slash-separated relative path.
// Intermediate directories are created on demand.
func (b *Builder) AddDirectory(relativePath string, absolutePath string, mode uint32) error {
	parent, name, err := b.resolveParent(relativePath)
	if err != nil {
		return err
	}
	if _, ok := parent.leaves[name]; ok {
		return fmt.Errorf("snapshot: %q is already a file", relativePath)
	}
	if _, ok := parent.children[name]; !ok {
		parent.children[name] = newBuildNode(absolutePath, name, mode)
	}
	return nil
}

// AddFile records a file snapshot at the slash-separated relative path.
func (b *Builder) AddFile(relativePath string, file *FileSnapshot) error {
	parent, name, err := b.resolveParent(relativePath)
	if err != nil {
		return err
	}
	if _, ok := parent.children[name]; ok {
		return fmt.Errorf("snapshot: %q is already a directory", relativePath)
	}
	parent.leaves[name] = file
	return nil
}

// ValidateRelativePath rejects slash-separated paths that would resolve
// outside the tree they are joined to: empty paths, absolute paths, and
// paths escaping through ".." segments.
func ValidateRelativePath(relativePath string) error {
	clean := path.Clean(relativePath)
	if clean == "" || clean == "." || clean == "/" || path.IsAbs(clean) || clean == ".." || len(clean) >= 3 && clean[:3] == "../" {
		return fmt.Errorf("snapshot: invalid relative path %q", relativePath)
	}
	return nil
}

func (b *Builder) resolveParent(relativePath string) (*buildNode, string, error) {
	if err := ValidateRelativePath(relativePath); err != nil {
		return nil, "", err
	}
	clean := path.Clean(relativePath)
	dir, name := path.Split(clean)
	node := b.root
	if dir != "" {
		for _, seg := range splitSegments(dir) {
			child, ok := node.children[seg]
			if !ok {
				// Intermediate directory never seen explicitly; derive its
				// location from the parent.
				child = newBuildNode(path.Join(node.dir.absolutePath, seg), seg, node.dir.mode)
				node.children[seg] = child
			}
			node = child
		}
	}
	return node, name, nil
}

func splitSegments(dir string) []string {
	var segs []string
	for _, seg := range splitSlash(dir) {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

func splitSlash(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// Build freezes the accumulated tree.
func (b *Builder) Build() *DirectorySnapshot {
	return b.root.freeze()
}

func (n *buildNode) freeze() *DirectorySnapshot {
	children := make(map[string]Snapshot, len(n.children)+len(n.leaves))
	for name, child := range n.children {
		children[name] = child.freeze()
	}
	for name, leaf := range n.leaves {
		children[name] = leaf
	}
	n.dir.children = children
	return n.dir
}
