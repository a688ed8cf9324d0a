// Package fingerprint provides an order-normalized view over captured
// snapshots: per-path content hashes, a single combined hash identifying the
// whole collection, and change detection between two fingerprints of the
// same logical property.
package fingerprint

import (
	"encoding/json"
	"path"
	"time"

	"github.com/bolasblack/outcache/internal/hashing"
	"github.com/bolasblack/outcache/internal/snapshot"
)

// Entry is the recorded state of one normalized relative path.
type Entry struct {
	Hash         hashing.HashCode  `json:"hash,omitempty"`
	Kind         snapshot.FileType `json:"kind"`
	LastModified time.Time         `json:"lastModified,omitempty"`
}

// dirSignature stands in for directory content so a directory and an empty
// file at the same path never compare equal.
var dirSignature = hashing.HashBytes([]byte("DIR"))

// missingSignature marks a root that did not exist at capture time.
var missingSignature = hashing.HashBytes([]byte("MISSING"))

// Collection is a flattened snapshot of one or more roots. The combined
// hash is a pure function of the entries: two collections with identical
// entries have identical combined hashes regardless of capture order.
type Collection struct {
	entries  map[string]Entry
	combined hashing.HashCode
	roots    []snapshot.Snapshot
}

// FromRoots flattens captured roots into a collection. The roots stay
// attached so callers that captured live from disk can reach them; a
// collection deserialized from history has none.
func FromRoots(roots ...snapshot.Snapshot) *Collection {
	entries := make(map[string]Entry)
	for _, root := range roots {
		flatten(root, root.Name(), entries)
	}
	return &Collection{
		entries:  entries,
		combined: combine(entries),
		roots:    roots,
	}
}

func flatten(node snapshot.Snapshot, relativePath string, entries map[string]Entry) {
	switch n := node.(type) {
	case *snapshot.FileSnapshot:
		entries[relativePath] = Entry{Hash: n.ContentHash(), Kind: snapshot.RegularFile, LastModified: n.LastModified()}
	case *snapshot.DirectorySnapshot:
		entries[relativePath] = Entry{Hash: dirSignature, Kind: snapshot.Directory}
		for _, name := range n.ChildNames() {
			child, _ := n.Child(name)
			flatten(child, path.Join(relativePath, name), entries)
		}
	case *snapshot.MissingSnapshot:
		entries[relativePath] = Entry{Hash: missingSignature, Kind: snapshot.Missing}
	}
}

func combine(entries map[string]Entry) hashing.HashCode {
	hashes := make(map[string]hashing.HashCode, len(entries))
	for p, e := range entries {
		hashes[p] = hashing.HashBytes([]byte(e.Kind.String() + ":" + string(e.Hash)))
	}
	return hashing.Combine(hashes)
}

// CombinedHash identifies the whole collection's content.
func (c *Collection) CombinedHash() hashing.HashCode { return c.combined }

// Entries exposes the per-path state. Callers must treat the map as
// read-only.
func (c *Collection) Entries() map[string]Entry { return c.entries }

// Roots returns the underlying snapshots when the collection was captured
// live from disk, or nil when it was loaded from history.
func (c *Collection) Roots() []snapshot.Snapshot { return c.roots }

// Empty reports whether the collection has no entries at all.
func (c *Collection) Empty() bool { return len(c.entries) == 0 }

// collectionState is the persisted form. Roots are deliberately absent:
// history records identity, not live trees.
type collectionState struct {
	Entries      map[string]Entry `json:"entries"`
	CombinedHash hashing.HashCode `json:"combinedHash"`
}

// MarshalJSON persists entries and the combined hash, never the roots.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(collectionState{Entries: c.entries, CombinedHash: c.combined})
}

// UnmarshalJSON restores a collection from history. The combined hash is
// recomputed from the entries so a hand-edited or corrupted history file
// cannot smuggle in an inconsistent value.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var state collectionState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if state.Entries == nil {
		state.Entries = map[string]Entry{}
	}
	c.entries = state.Entries
	c.combined = combine(state.Entries)
	c.roots = nil
	return nil
}
