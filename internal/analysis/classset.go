package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/bolasblack/outcache/internal/hashing"
)

// ClassDependents is the persisted form of one class's direct dependents.
type ClassDependents struct {
	// All marks the class as affecting everything when it changes.
	All bool `json:"all,omitempty"`
	// Reason explains All, for diagnostics.
	Reason string `json:"reason,omitempty"`
	// Classes are the direct dependents when All is false.
	Classes []string `json:"classes,omitempty"`
}

func (d ClassDependents) toSet() DependentsSet {
	if d.All {
		return DependencyToAll(d.Reason)
	}
	return DependentsOf(d.Classes...)
}

// SnapshotData is the serializable state of one classpath entry snapshot:
// the entry hash, per-class hashes, the direct-dependents graph, and the
// integer constants referenced by each class.
type SnapshotData struct {
	Hash        hashing.HashCode            `json:"hash"`
	ClassHashes map[string]hashing.HashCode `json:"classHashes"`
	Dependents  map[string]ClassDependents  `json:"dependents,omitempty"`
	Constants   map[string][]int            `json:"constants,omitempty"`
}

// WriteSnapshotData serializes data to w.
func WriteSnapshotData(w io.Writer, data SnapshotData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("write classpath snapshot: %w", err)
	}
	return nil
}

// ReadSnapshotData deserializes data from w's counterpart.
func ReadSnapshotData(r io.Reader) (SnapshotData, error) {
	var data SnapshotData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return SnapshotData{}, fmt.Errorf("read classpath snapshot: %w", err)
	}
	if data.ClassHashes == nil {
		data.ClassHashes = map[string]hashing.HashCode{}
	}
	return data, nil
}

// ClassSetAnalysis answers dependency questions over one snapshot's graph.
type ClassSetAnalysis struct {
	data SnapshotData
}

// NewClassSetAnalysis wraps snapshot data for graph queries.
func NewClassSetAnalysis(data SnapshotData) *ClassSetAnalysis {
	return &ClassSetAnalysis{data: data}
}

// DirectDependents returns the classes directly depending on className.
func (a *ClassSetAnalysis) DirectDependents(className string) DependentsSet {
	if d, ok := a.data.Dependents[className]; ok {
		return d.toSet()
	}
	return DependentsOf()
}

// RelevantDependents returns every class transitively depending on
// className. The computation short-circuits to the sentinel as soon as any
// reached class is flagged as affecting everything.
func (a *ClassSetAnalysis) RelevantDependents(className string) DependentsSet {
	seen := map[string]struct{}{}
	result := map[string]struct{}{}
	queue := []string{className}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if _, ok := seen[next]; ok {
			continue
		}
		seen[next] = struct{}{}

		direct := a.DirectDependents(next)
		if direct.IsDependencyToAll() {
			return direct
		}
		for _, dependent := range direct.Classes() {
			if _, ok := result[dependent]; !ok {
				result[dependent] = struct{}{}
				queue = append(queue, dependent)
			}
		}
	}

	names := make([]string, 0, len(result))
	for name := range result {
		names = append(names, name)
	}
	sort.Strings(names)
	return DependentsOf(names...)
}

// Constants returns the integer constant ids referenced by className.
func (a *ClassSetAnalysis) Constants(className string) []int {
	return a.data.Constants[className]
}
