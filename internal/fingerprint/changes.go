package fingerprint

import "sort"

// ChangeKind classifies a detected difference.
type ChangeKind int

const (
	// Added means the path exists now but not in the older fingerprint.
	Added ChangeKind = iota
	// Removed means the path existed before but is gone now.
	Removed
	// Modified means the path exists in both with differing content or type.
	Modified
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Change is one detected difference between two collections.
type Change struct {
	Path string
	Kind ChangeKind
}

// ChangeVisitor receives changes in lexicographic path order. Returning
// false stops the traversal immediately.
type ChangeVisitor func(Change) bool

// VisitChangesSince merge-compares this collection against an older one and
// reports every difference in lexicographic path order. Additions are
// suppressed when includeAdded is false. It returns false if the visitor
// short-circuited.
func (c *Collection) VisitChangesSince(old *Collection, includeAdded bool, visit ChangeVisitor) bool {
	currentPaths := sortedPaths(c.entries)
	oldPaths := sortedPaths(old.entries)

	i, j := 0, 0
	for i < len(currentPaths) || j < len(oldPaths) {
		switch {
		case j >= len(oldPaths) || i < len(currentPaths) && currentPaths[i] < oldPaths[j]:
			if includeAdded {
				if !visit(Change{Path: currentPaths[i], Kind: Added}) {
					return false
				}
			}
			i++
		case i >= len(currentPaths) || currentPaths[i] > oldPaths[j]:
			if !visit(Change{Path: oldPaths[j], Kind: Removed}) {
				return false
			}
			j++
		default:
			cur, prev := c.entries[currentPaths[i]], old.entries[oldPaths[j]]
			if cur.Kind != prev.Kind || cur.Hash != prev.Hash {
				if !visit(Change{Path: currentPaths[i], Kind: Modified}) {
					return false
				}
			}
			i++
			j++
		}
	}
	return true
}

// Changed reports whether any difference exists relative to old.
func (c *Collection) Changed(old *Collection) bool {
	unchanged := c.VisitChangesSince(old, true, func(Change) bool { return false })
	return !unchanged
}

func sortedPaths(entries map[string]Entry) []string {
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
