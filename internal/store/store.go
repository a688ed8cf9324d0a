// Package store is a local content-addressed store for cache entry
// archives, keyed by combined hash. Entries are written atomically (temp
// file then rename) so concurrent readers never observe partial archives.
// Eviction and locking are caller policy; this package only puts, gets, and
// clears.
package store

import (
	"compress/gzip"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/bolasblack/outcache/internal/hashing"
)

// gzipMagic is the two-byte gzip stream signature.
var gzipMagic = []byte{0x1f, 0x8b}

// Store holds cache entries under <root>/<aa>/<key>, sharded by the first
// two hash characters.
type Store struct {
	fs       afero.Fs
	root     string
	compress bool
}

// New creates a store rooted at root. When compress is set, new entries
// are gzip-wrapped; Get transparently handles both forms.
func New(fs afero.Fs, root string, compress bool) *Store {
	return &Store{fs: fs, root: root, compress: compress}
}

// Root returns the store's base directory.
func (s *Store) Root() string { return s.root }

func (s *Store) entryPath(key hashing.HashCode) (string, error) {
	if !key.Valid() {
		return "", fmt.Errorf("store: invalid cache key %q", key)
	}
	return filepath.Join(s.root, string(key[:2]), string(key)), nil
}

// Has reports whether an entry exists for key.
func (s *Store) Has(key hashing.HashCode) bool {
	path, err := s.entryPath(key)
	if err != nil {
		return false
	}
	_, err = s.fs.Stat(path)
	return err == nil
}

// Put stores the entry produced by write under key. Writing happens into a
// temp file in the final directory; the rename at the end makes the entry
// visible all at once. When write fails, the temp file is removed and no
// entry appears.
func (s *Store) Put(key hashing.HashCode, write func(w io.Writer) error) error {
	path, err := s.entryPath(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	var sink io.Writer = tmp
	var gz *gzip.Writer
	if s.compress {
		gz = gzip.NewWriter(tmp)
		sink = gz
	}

	if err := write(sink); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			tmp.Close()
			s.fs.Remove(tmpName)
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	return s.fs.Rename(tmpName, path)
}

// Get opens the entry for key. The compression used at Put time is detected
// from the stream itself, so a store reconfiguration never invalidates
// existing entries. Absence is reported as an os.ErrNotExist-matching error.
func (s *Store) Get(key hashing.HashCode) (io.ReadCloser, error) {
	path, err := s.entryPath(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, err
	}

	head := make([]byte, 2)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	if n == 2 && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &gzipEntryReader{gz: gz, file: f}, nil
	}
	return f, nil
}

// Remove deletes the entry for key, if present.
func (s *Store) Remove(key hashing.HashCode) error {
	path, err := s.entryPath(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// EntryInfo describes one stored entry as it sits on disk. Size is the
// stored (possibly compressed) byte count.
type EntryInfo struct {
	Key     hashing.HashCode
	Size    int64
	ModTime time.Time
}

// List returns every entry in the store, sorted by key. Files that do not
// look like entries (temp files, strays) are skipped.
func (s *Store) List() ([]EntryInfo, error) {
	if _, err := s.fs.Stat(s.root); os.IsNotExist(err) {
		return nil, nil
	}

	var entries []EntryInfo
	err := afero.Walk(s.fs, s.root, func(path string, info iofs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		key := hashing.HashCode(info.Name())
		if !key.Valid() {
			return nil
		}
		entries = append(entries, EntryInfo{Key: key, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Clear removes the whole store directory. Safe to call when it does not
// exist.
func (s *Store) Clear() error {
	if _, err := s.fs.Stat(s.root); os.IsNotExist(err) {
		return nil
	}
	return s.fs.RemoveAll(s.root)
}

type gzipEntryReader struct {
	gz   *gzip.Reader
	file afero.File
}

func (r *gzipEntryReader) Read(p []byte) (int, error) { return r.gz.Read(p) }

func (r *gzipEntryReader) Close() error {
	gzErr := r.gz.Close()
	fileErr := r.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}
