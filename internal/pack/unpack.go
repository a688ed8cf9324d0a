package pack

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bolasblack/outcache/internal/hashing"
	"github.com/bolasblack/outcache/internal/origin"
	"github.com/bolasblack/outcache/internal/snapshot"
)

// UnpackResult is everything restored from one archive: the parsed origin
// metadata, the total entry count, and a freshly computed snapshot per
// property that had content. Missing properties contribute no snapshot.
type UnpackResult struct {
	Metadata   origin.Metadata
	EntryCount int64
	Snapshots  map[string]snapshot.Snapshot
}

// Unpack restores an archive produced by Pack against the same property
// specs. Entries are processed in stream order; no particular order is
// required beyond what the format guarantees.
func (p *Packer) Unpack(specs []PropertySpec, r io.Reader, readOrigin OriginReader) (*UnpackResult, error) {
	tr := tar.NewReader(bufio.NewReader(r))
	byName := specsByName(specs)
	buf := make([]byte, copyBufferSize)

	builders := make(map[string]*snapshot.Builder)
	snapshots := make(map[string]snapshot.Snapshot)
	var metadata *origin.Metadata
	var entries int64

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCacheEntry, err)
		}
		entries++

		if hdr.Name == metadataPath {
			m, err := readOrigin(tr)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidCacheEntry, err)
			}
			metadata = &m
			continue
		}

		match := propertyPathPattern.FindStringSubmatch(hdr.Name)
		if match == nil {
			return nil, fmt.Errorf("%w: unexpected entry %q", ErrInvalidCacheEntry, hdr.Name)
		}
		propertyName, err := unescapePropertyName(match[2])
		if err != nil {
			return nil, err
		}
		spec, ok := byName[propertyName]
		if !ok {
			return nil, fmt.Errorf("%w: no output property %q registered", ErrInvalidCacheEntry, propertyName)
		}

		missing := match[1] != ""
		childPath := match[3]
		if err := p.unpackEntry(tr, hdr, spec, missing, childPath, builders, snapshots, buf); err != nil {
			return nil, err
		}
	}

	if metadata == nil {
		return nil, fmt.Errorf("%w: no origin metadata found", ErrInvalidCacheEntry)
	}

	for name, builder := range builders {
		snapshots[name] = builder.Build()
	}
	return &UnpackResult{Metadata: *metadata, EntryCount: entries, Snapshots: snapshots}, nil
}

func (p *Packer) unpackEntry(tr *tar.Reader, hdr *tar.Header, spec PropertySpec, missing bool, childPath string, builders map[string]*snapshot.Builder, snapshots map[string]snapshot.Snapshot, buf []byte) error {
	if spec.Root == "" {
		return fmt.Errorf("%w: property %q has no resolved location", ErrInvalidCacheEntry, spec.PropertyName)
	}

	if missing {
		if childPath != "" {
			return fmt.Errorf("%w: missing-property marker %q has a child path", ErrInvalidCacheEntry, hdr.Name)
		}
		return p.removeExisting(spec.Root)
	}

	mode := uint32(hdr.Mode) & filePermissionMask
	isDir := hdr.Typeflag == tar.TypeDir

	if childPath == "" {
		return p.unpackPropertyRoot(tr, spec, isDir, mode, builders, snapshots, buf)
	}

	if spec.OutputType != OutputDirectory {
		return fmt.Errorf("%w: file property %q has child entry %q", ErrInvalidCacheEntry, spec.PropertyName, hdr.Name)
	}
	// Reject escaping paths before anything touches the filesystem; the
	// builder would catch them too, but only after the entry is written.
	if err := snapshot.ValidateRelativePath(childPath); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCacheEntry, err)
	}
	builder := builders[spec.PropertyName]
	if builder == nil {
		// The root entry has not been seen yet; entries carry no order
		// guarantee, so start the tree now.
		builder = snapshot.NewBuilder(spec.Root, filepath.Base(spec.Root), 0o755)
		builders[spec.PropertyName] = builder
	}

	target := filepath.Join(spec.Root, filepath.FromSlash(childPath))
	if isDir {
		if err := p.fs.MkdirAll(target, os.FileMode(mode)); err != nil {
			return err
		}
		if err := p.fs.Chmod(target, os.FileMode(mode)); err != nil {
			return err
		}
		return builder.AddDirectory(childPath, target, mode)
	}

	file, err := p.restoreFile(tr, target, mode, buf)
	if err != nil {
		return err
	}
	return builder.AddFile(childPath, file)
}

func (p *Packer) unpackPropertyRoot(tr *tar.Reader, spec PropertySpec, isDir bool, mode uint32, builders map[string]*snapshot.Builder, snapshots map[string]snapshot.Snapshot, buf []byte) error {
	switch {
	case isDir && spec.OutputType != OutputDirectory:
		return fmt.Errorf("%w: property %q should be an output file property", ErrPropertyTypeMismatch, spec.PropertyName)
	case !isDir && spec.OutputType == OutputDirectory:
		return fmt.Errorf("%w: property %q should be an output directory property", ErrPropertyTypeMismatch, spec.PropertyName)
	}

	if err := p.fs.MkdirAll(filepath.Dir(spec.Root), 0o755); err != nil {
		return err
	}

	if isDir {
		if err := p.fs.MkdirAll(spec.Root, os.FileMode(mode)); err != nil {
			return err
		}
		if err := p.fs.Chmod(spec.Root, os.FileMode(mode)); err != nil {
			return err
		}
		if builders[spec.PropertyName] == nil {
			builders[spec.PropertyName] = snapshot.NewBuilder(spec.Root, filepath.Base(spec.Root), mode)
		}
		return nil
	}

	file, err := p.restoreFile(tr, spec.Root, mode, buf)
	if err != nil {
		return err
	}
	snapshots[spec.PropertyName] = file
	return nil
}

// restoreFile writes one file entry to disk, reapplies its permission bits,
// and returns a snapshot of what was written. The content hash is computed
// while copying so the restored tree never has to be re-read.
func (p *Packer) restoreFile(tr *tar.Reader, target string, mode uint32, buf []byte) (*snapshot.FileSnapshot, error) {
	if err := p.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	f, err := p.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(mode))
	if err != nil {
		return nil, err
	}
	hash, _, err := hashing.HashCopy(f, tr, buf)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	if err := p.fs.Chmod(target, os.FileMode(mode)); err != nil {
		return nil, err
	}
	info, err := p.fs.Stat(target)
	if err != nil {
		return nil, err
	}
	return snapshot.NewFileSnapshot(target, filepath.Base(target), hash, info.ModTime(), mode), nil
}

// removeExisting handles a missing-property marker: whatever currently
// exists at the location is deleted, and the parent directory is left in
// place for later task runs.
func (p *Packer) removeExisting(root string) error {
	if err := p.fs.MkdirAll(filepath.Dir(root), 0o755); err != nil {
		return err
	}
	if _, err := p.fs.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return p.fs.RemoveAll(root)
}
