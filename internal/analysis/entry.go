package analysis

import (
	"sort"

	"github.com/bolasblack/outcache/internal/hashing"
)

// EntrySnapshot is one version of a compiled classpath entry: its combined
// hash, per-class hashes, and the dependency graph over its classes.
type EntrySnapshot struct {
	data     SnapshotData
	analysis *ClassSetAnalysis
}

// NewEntrySnapshot wraps snapshot data for diffing.
func NewEntrySnapshot(data SnapshotData) *EntrySnapshot {
	return &EntrySnapshot{data: data, analysis: NewClassSetAnalysis(data)}
}

// Hash is the combined hash of the whole entry.
func (s *EntrySnapshot) Hash() hashing.HashCode { return s.data.Hash }

// ClassHashes maps fully-qualified class name to content hash. Callers must
// treat the map as read-only.
func (s *EntrySnapshot) ClassHashes() map[string]hashing.HashCode { return s.data.ClassHashes }

// Classes returns all class names in sorted order.
func (s *EntrySnapshot) Classes() []string {
	names := make([]string, 0, len(s.data.ClassHashes))
	for name := range s.data.ClassHashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Analysis exposes the dependency graph of this snapshot.
func (s *EntrySnapshot) Analysis() *ClassSetAnalysis { return s.analysis }

// AffectedClasses is the outcome of diffing two entry snapshots: the
// classes requiring recompilation and the classes that are new.
type AffectedClasses struct {
	Affected DependentsSet
	Added    []string
}

// AllClasses returns every class in the entry, or the sentinel when any
// class is itself flagged as affecting everything.
func (s *EntrySnapshot) AllClasses() DependentsSet {
	names := make([]string, 0, len(s.data.ClassHashes))
	for name := range s.data.ClassHashes {
		if direct := s.analysis.DirectDependents(name); direct.IsDependencyToAll() {
			return direct
		}
		names = append(names, name)
	}
	return DependentsOf(names...)
}

// AffectedClassesSince diffs this snapshot against an older version of the
// same entry. A class is affected when it changed or disappeared since
// other; its transitive dependents are affected with it. Any unbounded
// dependents lookup collapses the whole result to the sentinel.
func (s *EntrySnapshot) AffectedClassesSince(other *EntrySnapshot) AffectedClasses {
	return AffectedClasses{
		Affected: s.affectedSince(other),
		Added:    s.addedSince(other),
	}
}

func (s *EntrySnapshot) affectedSince(other *EntrySnapshot) DependentsSet {
	affected := DependentsOf()
	for _, className := range other.Classes() {
		otherHash := other.data.ClassHashes[className]
		currentHash, exists := s.data.ClassHashes[className]
		if exists && currentHash == otherHash {
			continue
		}
		// Removed or changed since other.
		dependents := s.analysis.RelevantDependents(className)
		if dependents.IsDependencyToAll() {
			return dependents
		}
		affected = affected.Union(DependentsOf(className)).Union(dependents)
	}
	return affected
}

func (s *EntrySnapshot) addedSince(other *EntrySnapshot) []string {
	var added []string
	for name := range s.data.ClassHashes {
		if _, ok := other.data.ClassHashes[name]; !ok {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	return added
}

// AllConstants unions the constant pools of the given dependents. It is
// meaningless for the sentinel; callers already rebuild everything then.
func (s *EntrySnapshot) AllConstants(dependents DependentsSet) []int {
	set := map[int]struct{}{}
	for _, className := range dependents.Classes() {
		for _, c := range s.analysis.Constants(className) {
			set[c] = struct{}{}
		}
	}
	return sortedInts(set)
}

// RelevantConstants returns the constant ids that the prior version of each
// affected class carried but the current version no longer does. Callers
// use this to decide whether classes that inlined one of those constants
// must be treated as affected too; that propagation happens outside this
// package.
func (s *EntrySnapshot) RelevantConstants(prior *EntrySnapshot, affectedClasses []string) []int {
	set := map[int]struct{}{}
	for _, className := range affectedClasses {
		current := map[int]struct{}{}
		for _, c := range s.analysis.Constants(className) {
			current[c] = struct{}{}
		}
		for _, c := range prior.analysis.Constants(className) {
			if _, ok := current[c]; !ok {
				set[c] = struct{}{}
			}
		}
	}
	return sortedInts(set)
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}
