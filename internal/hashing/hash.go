// Package hashing provides content hashing primitives used as the identity
// of file contents and whole snapshots.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/afero"
)

// HashCode is a lowercase hex-encoded sha256 digest.
type HashCode string

// Valid reports whether h looks like a well-formed digest.
func (h HashCode) Valid() bool {
	if len(h) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

func (h HashCode) String() string { return string(h) }

// Short returns a 12-character prefix for log output and directory sharding.
func (h HashCode) Short() string {
	if len(h) < 12 {
		return string(h)
	}
	return string(h[:12])
}

// HashBytes hashes a byte slice.
func HashBytes(data []byte) HashCode {
	sum := sha256.Sum256(data)
	return HashCode(hex.EncodeToString(sum[:]))
}

// HashReader hashes everything readable from r.
func HashReader(r io.Reader) (HashCode, error) {
	d := sha256.New()
	if _, err := io.Copy(d, r); err != nil {
		return "", err
	}
	return HashCode(hex.EncodeToString(d.Sum(nil))), nil
}

// HashCopy copies src to dst and returns the hash of the copied bytes.
// The copy buffer is owned by the caller so concurrent operations never
// share scratch state; pass nil to let io.CopyBuffer allocate one.
func HashCopy(dst io.Writer, src io.Reader, buf []byte) (HashCode, int64, error) {
	d := sha256.New()
	n, err := io.CopyBuffer(io.MultiWriter(dst, d), src, buf)
	if err != nil {
		return "", n, err
	}
	return HashCode(hex.EncodeToString(d.Sum(nil))), n, nil
}

// HashFile hashes the contents of a regular file.
func HashFile(fs afero.Fs, path string) (HashCode, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h, err := HashReader(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return h, nil
}

// Combine reduces a path → hash mapping to a single digest. The pairs are
// accumulated in sorted path order so the result depends only on the logical
// content of the mapping, never on capture order.
func Combine(entries map[string]HashCode) HashCode {
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	d := sha256.New()
	for _, p := range paths {
		d.Write([]byte(p))
		d.Write([]byte{0})
		d.Write([]byte(entries[p]))
		d.Write([]byte{0})
	}
	return HashCode(hex.EncodeToString(d.Sum(nil)))
}
