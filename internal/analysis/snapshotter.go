package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/bolasblack/outcache/internal/hashing"
)

// SnapshotEntry hashes every compiled class file under root and assembles
// entry snapshot data. The dependency graph and constant pools come from
// the caller; extracting them from class file bytecode is the compiler
// integration's job, not this package's.
func SnapshotEntry(fs afero.Fs, root string, dependents map[string]ClassDependents, constants map[string][]int) (SnapshotData, error) {
	classHashes := map[string]hashing.HashCode{}

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".class") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		hash, err := hashing.HashFile(fs, path)
		if err != nil {
			return err
		}
		classHashes[classNameFor(rel)] = hash
		return nil
	})
	if err != nil {
		return SnapshotData{}, fmt.Errorf("snapshot classpath entry %s: %w", root, err)
	}

	return SnapshotData{
		Hash:        hashing.Combine(classHashes),
		ClassHashes: classHashes,
		Dependents:  dependents,
		Constants:   constants,
	}, nil
}

// classNameFor converts a entry-relative class file path to a
// fully-qualified class name: com/acme/App.class becomes com.acme.App.
func classNameFor(rel string) string {
	name := strings.TrimSuffix(filepath.ToSlash(rel), ".class")
	return strings.ReplaceAll(name, "/", ".")
}
