package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/bolasblack/outcache/internal/hashing"
)

// Capture records the current state of a filesystem location. A location
// that does not exist yields a Missing snapshot rather than an error.
func Capture(fs afero.Fs, location string) (Snapshot, error) {
	info, err := fs.Stat(location)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMissingSnapshot(location, filepath.Base(location)), nil
		}
		return nil, fmt.Errorf("stat %s: %w", location, err)
	}
	return capture(fs, location, filepath.Base(location), info)
}

func capture(fs afero.Fs, location, name string, info os.FileInfo) (Snapshot, error) {
	if info.IsDir() {
		return captureDirectory(fs, location, name, info)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("unsupported file type at %s", location)
	}
	hash, err := hashing.HashFile(fs, location)
	if err != nil {
		return nil, err
	}
	return NewFileSnapshot(location, name, hash, info.ModTime(), uint32(info.Mode().Perm())), nil
}

func captureDirectory(fs afero.Fs, location, name string, info os.FileInfo) (Snapshot, error) {
	entries, err := afero.ReadDir(fs, location)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", location, err)
	}
	// afero sorts ReadDir results, but that is an implementation detail of
	// some backends only.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	children := make(map[string]Snapshot, len(entries))
	for _, entry := range entries {
		childPath := filepath.Join(location, entry.Name())
		child, err := capture(fs, childPath, entry.Name(), entry)
		if err != nil {
			return nil, err
		}
		children[entry.Name()] = child
	}
	return &DirectorySnapshot{
		absolutePath: location,
		name:         name,
		mode:         uint32(info.Mode().Perm()),
		children:     children,
	}, nil
}
