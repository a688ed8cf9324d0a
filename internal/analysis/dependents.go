// Package analysis computes which classes of a compiled classpath entry are
// affected by a change: per-class content hashes, a class dependency graph,
// and the diff between two versions of the same entry.
package analysis

import "sort"

// DependentsSet is either an explicit set of class names or the unbounded
// "dependency to all" sentinel produced when a class's dependents cannot be
// determined (reflection, annotation processing). The sentinel is absorbing:
// any union involving it collapses to it.
type DependentsSet struct {
	all     bool
	reason  string
	classes map[string]struct{}
}

// DependencyToAll returns the unbounded sentinel. The optional reason shows
// up in diagnostics only.
func DependencyToAll(reason string) DependentsSet {
	return DependentsSet{all: true, reason: reason}
}

// DependentsOf returns an explicit dependents set.
func DependentsOf(classNames ...string) DependentsSet {
	classes := make(map[string]struct{}, len(classNames))
	for _, name := range classNames {
		classes[name] = struct{}{}
	}
	return DependentsSet{classes: classes}
}

// IsDependencyToAll reports whether this is the unbounded sentinel.
func (d DependentsSet) IsDependencyToAll() bool { return d.all }

// Reason explains an unbounded sentinel, if one was recorded.
func (d DependentsSet) Reason() string { return d.reason }

// Classes returns the explicit class names in sorted order. It is empty for
// the sentinel; check IsDependencyToAll first.
func (d DependentsSet) Classes() []string {
	names := make([]string, 0, len(d.classes))
	for name := range d.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contains reports explicit membership. The sentinel contains everything.
func (d DependentsSet) Contains(className string) bool {
	if d.all {
		return true
	}
	_, ok := d.classes[className]
	return ok
}

// Empty reports whether the set is explicit and has no members.
func (d DependentsSet) Empty() bool { return !d.all && len(d.classes) == 0 }

// Union combines two dependents sets, honoring the absorbing sentinel.
func (d DependentsSet) Union(other DependentsSet) DependentsSet {
	if d.all {
		return d
	}
	if other.all {
		return other
	}
	classes := make(map[string]struct{}, len(d.classes)+len(other.classes))
	for name := range d.classes {
		classes[name] = struct{}{}
	}
	for name := range other.classes {
		classes[name] = struct{}{}
	}
	return DependentsSet{classes: classes}
}
