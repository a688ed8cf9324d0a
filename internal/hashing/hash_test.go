package hashing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestHashCodeValid(t *testing.T) {
	tests := []struct {
		name string
		hash HashCode
		want bool
	}{
		{"valid", HashBytes([]byte("hello")), true},
		{"empty", "", false},
		{"too short", "abc123", false},
		{"uppercase rejected", HashCode(strings.ToUpper(string(HashBytes([]byte("x"))))), false},
		{"non-hex character", HashCode(strings.Repeat("g", 64)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hash.Valid(); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.hash, got, tt.want)
			}
		})
	}
}

func TestHashCodeShort(t *testing.T) {
	h := HashBytes([]byte("hello"))
	if got := h.Short(); len(got) != 12 {
		t.Errorf("Short() = %q, want 12 characters", got)
	}
	if !strings.HasPrefix(string(h), h.Short()) {
		t.Errorf("Short() %q is not a prefix of %q", h.Short(), h)
	}
	if got := HashCode("ab").Short(); got != "ab" {
		t.Errorf("Short() on short input = %q, want %q", got, "ab")
	}
}

func TestHashBytesMatchesHashReader(t *testing.T) {
	data := []byte("some file content")
	fromReader, err := HashReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("HashReader failed: %v", err)
	}
	if fromBytes := HashBytes(data); fromBytes != fromReader {
		t.Errorf("HashBytes = %s, HashReader = %s", fromBytes, fromReader)
	}
}

func TestHashCopy(t *testing.T) {
	data := []byte("content that flows through the copy")
	var dst bytes.Buffer

	hash, n, err := HashCopy(&dst, bytes.NewReader(data), make([]byte, 8))
	if err != nil {
		t.Fatalf("HashCopy failed: %v", err)
	}
	if n != int64(len(data)) {
		t.Errorf("copied %d bytes, want %d", n, len(data))
	}
	if !bytes.Equal(dst.Bytes(), data) {
		t.Errorf("destination content differs from source")
	}
	if want := HashBytes(data); hash != want {
		t.Errorf("HashCopy hash = %s, want %s", hash, want)
	}
}

func TestHashCopyNilBuffer(t *testing.T) {
	var dst bytes.Buffer
	hash, _, err := HashCopy(&dst, strings.NewReader("x"), nil)
	if err != nil {
		t.Fatalf("HashCopy failed: %v", err)
	}
	if hash != HashBytes([]byte("x")) {
		t.Errorf("hash mismatch with nil buffer")
	}
}

func TestHashFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/data.txt", []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	hash, err := HashFile(fs, "/data.txt")
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if want := HashBytes([]byte("payload")); hash != want {
		t.Errorf("HashFile = %s, want %s", hash, want)
	}

	if _, err := HashFile(fs, "/absent.txt"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestCombineOrderIndependent(t *testing.T) {
	a := map[string]HashCode{
		"a.txt":     HashBytes([]byte("1")),
		"sub/b.txt": HashBytes([]byte("2")),
	}
	b := map[string]HashCode{
		"sub/b.txt": HashBytes([]byte("2")),
		"a.txt":     HashBytes([]byte("1")),
	}
	if Combine(a) != Combine(b) {
		t.Error("Combine depends on map construction order")
	}
}

func TestCombineSensitivity(t *testing.T) {
	base := map[string]HashCode{"a": HashBytes([]byte("1"))}

	changedHash := map[string]HashCode{"a": HashBytes([]byte("2"))}
	if Combine(base) == Combine(changedHash) {
		t.Error("changing a hash did not change the combined digest")
	}

	changedPath := map[string]HashCode{"b": HashBytes([]byte("1"))}
	if Combine(base) == Combine(changedPath) {
		t.Error("changing a path did not change the combined digest")
	}

	extra := map[string]HashCode{
		"a": HashBytes([]byte("1")),
		"b": HashBytes([]byte("1")),
	}
	if Combine(base) == Combine(extra) {
		t.Error("adding an entry did not change the combined digest")
	}
}

func TestCombineEmpty(t *testing.T) {
	got := Combine(nil)
	if !got.Valid() {
		t.Errorf("Combine(nil) = %q, want a valid digest", got)
	}
	if got != Combine(map[string]HashCode{}) {
		t.Error("Combine(nil) differs from Combine of an empty map")
	}
}
