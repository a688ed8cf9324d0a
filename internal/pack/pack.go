package pack

import (
	"archive/tar"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/bolasblack/outcache/internal/origin"
	"github.com/bolasblack/outcache/internal/snapshot"
)

// OriginWriter serializes origin metadata into the METADATA entry. The
// packer never inspects the bytes it produces.
type OriginWriter func(w io.Writer) error

// OriginReader parses the METADATA entry back. The packer only carries the
// result through to the unpack caller.
type OriginReader func(r io.Reader) (origin.Metadata, error)

// Packer packs and unpacks cache entry archives. A single Packer is safe
// for concurrent use: every call carries its own scratch buffer and writes
// no shared state.
type Packer struct {
	fs afero.Fs
}

// NewPacker creates a packer operating on the given filesystem.
func NewPacker(fs afero.Fs) *Packer {
	return &Packer{fs: fs}
}

// Pack writes one archive containing the given properties to w. Snapshots
// supplies the captured state per property name. The returned count is the
// number of entries written, including the metadata entry.
func (p *Packer) Pack(specs []PropertySpec, snapshots map[string]snapshot.Snapshot, w io.Writer, writeOrigin OriginWriter) (int64, error) {
	bw := bufio.NewWriter(w)
	tw := tar.NewWriter(bw)
	buf := make([]byte, copyBufferSize)

	if err := packMetadata(tw, writeOrigin); err != nil {
		return 0, err
	}
	entries := int64(1)

	for _, spec := range sortSpecs(specs) {
		n, err := p.packProperty(tw, spec, snapshots[spec.PropertyName], buf)
		if err != nil {
			return entries, fmt.Errorf("could not pack property %q: %w", spec.PropertyName, err)
		}
		entries += n
	}

	if err := tw.Close(); err != nil {
		return entries, err
	}
	return entries, bw.Flush()
}

func packMetadata(tw *tar.Writer, writeOrigin OriginWriter) error {
	var body bytes.Buffer
	if err := writeOrigin(&body); err != nil {
		return fmt.Errorf("could not write origin metadata: %w", err)
	}
	if err := putFileHeader(tw, metadataPath, int64(body.Len()), 0o644); err != nil {
		return err
	}
	_, err := tw.Write(body.Bytes())
	return err
}

func (p *Packer) packProperty(tw *tar.Writer, spec PropertySpec, root snapshot.Snapshot, buf []byte) (int64, error) {
	if spec.Root == "" {
		return 0, nil
	}
	if root == nil {
		return 0, fmt.Errorf("no snapshot captured for location %q", spec.Root)
	}

	propertyPath := "property-" + escapePropertyName(spec.PropertyName)
	if root.Type() == snapshot.Missing {
		if err := putFileHeader(tw, "missing-"+propertyPath, 0, 0o644); err != nil {
			return 0, err
		}
		return 1, nil
	}

	switch spec.OutputType {
	case OutputDirectory:
		dir, ok := root.(*snapshot.DirectorySnapshot)
		if !ok {
			return 0, fmt.Errorf("%w: expected %q to be a directory", ErrPropertyTypeMismatch, root.AbsolutePath())
		}
		return p.packDirectoryProperty(tw, propertyPath, dir, buf)
	case OutputFile:
		file, ok := root.(*snapshot.FileSnapshot)
		if !ok {
			return 0, fmt.Errorf("%w: expected %q to be a file", ErrPropertyTypeMismatch, root.AbsolutePath())
		}
		if err := p.packFileEntry(tw, propertyPath, file, buf); err != nil {
			return 0, err
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown output type %d", spec.OutputType)
	}
}

func (p *Packer) packDirectoryProperty(tw *tar.Writer, propertyPath string, dir *snapshot.DirectorySnapshot, buf []byte) (int64, error) {
	if err := putDirHeader(tw, propertyPath+"/", 0o755); err != nil {
		return 0, err
	}

	visitor := &packVisitor{
		packer:       p,
		tw:           tw,
		propertyRoot: propertyPath + "/",
		buf:          buf,
		entries:      1,
	}
	dir.Visit(visitor)
	return visitor.entries, visitor.err
}

// packVisitor streams a directory snapshot into the archive depth-first.
// Relative paths are tracked with an explicit segment stack; the first
// PreVisitDirectory call is the property root itself and contributes no
// extra entry.
type packVisitor struct {
	packer       *Packer
	tw           *tar.Writer
	propertyRoot string
	segments     []string
	buf          []byte
	entries      int64
	err          error
}

func (v *packVisitor) PreVisitDirectory(dir *snapshot.DirectorySnapshot) bool {
	if v.err != nil {
		return false
	}
	atRoot := v.segments == nil
	v.segments = append(v.segments, dir.Name())
	if atRoot {
		return true
	}
	if err := putDirHeader(v.tw, v.targetPath()+"/", dir.Mode()&filePermissionMask); err != nil {
		v.err = err
		return false
	}
	v.entries++
	return true
}

func (v *packVisitor) VisitFile(file *snapshot.FileSnapshot) {
	if v.err != nil {
		return
	}
	v.segments = append(v.segments, file.Name())
	if err := v.packer.packFileEntry(v.tw, v.targetPath(), file, v.buf); err != nil {
		v.err = err
	} else {
		v.entries++
	}
	v.segments = v.segments[:len(v.segments)-1]
}

func (v *packVisitor) PostVisitDirectory(*snapshot.DirectorySnapshot) {
	v.segments = v.segments[:len(v.segments)-1]
}

func (v *packVisitor) targetPath() string {
	// segments[0] is the property root directory, already part of the prefix.
	return v.propertyRoot + strings.Join(v.segments[1:], "/")
}

func (p *Packer) packFileEntry(tw *tar.Writer, targetPath string, file *snapshot.FileSnapshot, buf []byte) error {
	f, err := p.fs.Open(file.AbsolutePath())
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if err := putFileHeader(tw, targetPath, info.Size(), file.Mode()&filePermissionMask); err != nil {
		return err
	}
	_, err = io.CopyBuffer(tw, f, buf)
	return err
}

func putFileHeader(tw *tar.Writer, name string, size int64, mode uint32) error {
	return tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Size:     size,
		Mode:     int64(mode),
		Format:   tar.FormatPAX,
	})
}

func putDirHeader(tw *tar.Writer, name string, mode uint32) error {
	return tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     name,
		Mode:     int64(mode),
		Format:   tar.FormatPAX,
	})
}
