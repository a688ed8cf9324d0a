package snapshot

import (
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/bolasblack/outcache/internal/hashing"
)

// recordingVisitor collects visit events as "kind name" strings.
type recordingVisitor struct {
	events   []string
	skipDirs bool
}

func (v *recordingVisitor) PreVisitDirectory(dir *DirectorySnapshot) bool {
	v.events = append(v.events, "pre "+dir.Name())
	return !v.skipDirs
}

func (v *recordingVisitor) VisitFile(file *FileSnapshot) {
	v.events = append(v.events, "file "+file.Name())
}

func (v *recordingVisitor) PostVisitDirectory(dir *DirectorySnapshot) {
	v.events = append(v.events, "post "+dir.Name())
}

func fileSnap(name, content string) *FileSnapshot {
	return NewFileSnapshot("/out/"+name, name, hashing.HashBytes([]byte(content)), time.Now(), 0o644)
}

func TestFileTypeString(t *testing.T) {
	tests := []struct {
		ft   FileType
		want string
	}{
		{RegularFile, "file"},
		{Directory, "directory"},
		{Missing, "missing"},
		{FileType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.ft.String(); got != tt.want {
			t.Errorf("FileType(%d).String() = %q, want %q", tt.ft, got, tt.want)
		}
	}
}

func TestBuilderBuildsTree(t *testing.T) {
	b := NewBuilder("/out", "out", 0o755)
	if err := b.AddDirectory("sub", "/out/sub", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := b.AddFile("a.txt", fileSnap("a.txt", "a")); err != nil {
		t.Fatal(err)
	}
	if err := b.AddFile("sub/b.txt", fileSnap("b.txt", "b")); err != nil {
		t.Fatal(err)
	}

	root := b.Build()
	if root.Type() != Directory {
		t.Fatalf("root type = %v, want directory", root.Type())
	}
	if got := root.ChildNames(); len(got) != 2 || got[0] != "a.txt" || got[1] != "sub" {
		t.Errorf("ChildNames() = %v, want [a.txt sub]", got)
	}

	sub, ok := root.Child("sub")
	if !ok {
		t.Fatal("child sub not found")
	}
	subDir, ok := sub.(*DirectorySnapshot)
	if !ok {
		t.Fatalf("sub is %T, want *DirectorySnapshot", sub)
	}
	if _, ok := subDir.Child("b.txt"); !ok {
		t.Error("sub/b.txt not found")
	}
}

func TestBuilderCreatesIntermediateDirectories(t *testing.T) {
	b := NewBuilder("/out", "out", 0o755)
	if err := b.AddFile("a/b/c.txt", fileSnap("c.txt", "c")); err != nil {
		t.Fatal(err)
	}

	root := b.Build()
	a, ok := root.Child("a")
	if !ok {
		t.Fatal("intermediate directory a missing")
	}
	aDir := a.(*DirectorySnapshot)
	if aDir.AbsolutePath() != "/out/a" {
		t.Errorf("intermediate path = %q, want /out/a", aDir.AbsolutePath())
	}
	bNode, ok := aDir.Child("b")
	if !ok {
		t.Fatal("intermediate directory a/b missing")
	}
	if _, ok := bNode.(*DirectorySnapshot).Child("c.txt"); !ok {
		t.Error("a/b/c.txt missing")
	}
}

func TestBuilderEntryOrderIndependent(t *testing.T) {
	childFirst := NewBuilder("/out", "out", 0o755)
	if err := childFirst.AddFile("sub/b.txt", fileSnap("b.txt", "b")); err != nil {
		t.Fatal(err)
	}
	if err := childFirst.AddDirectory("sub", "/out/sub", 0o755); err != nil {
		t.Fatal(err)
	}

	dirFirst := NewBuilder("/out", "out", 0o755)
	if err := dirFirst.AddDirectory("sub", "/out/sub", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := dirFirst.AddFile("sub/b.txt", fileSnap("b.txt", "b")); err != nil {
		t.Fatal(err)
	}

	a, b := childFirst.Build(), dirFirst.Build()
	va, vb := &recordingVisitor{}, &recordingVisitor{}
	a.Visit(va)
	b.Visit(vb)
	if len(va.events) != len(vb.events) {
		t.Fatalf("trees differ: %v vs %v", va.events, vb.events)
	}
	for i := range va.events {
		if va.events[i] != vb.events[i] {
			t.Fatalf("trees differ at %d: %v vs %v", i, va.events, vb.events)
		}
	}
}

func TestBuilderRejectsInvalidPaths(t *testing.T) {
	invalid := []string{"", ".", "/abs", "..", "../escape"}
	for _, p := range invalid {
		b := NewBuilder("/out", "out", 0o755)
		if err := b.AddDirectory(p, "/out/x", 0o755); err == nil {
			t.Errorf("AddDirectory(%q) succeeded, want error", p)
		}
	}
}

func TestBuilderRejectsTypeConflicts(t *testing.T) {
	b := NewBuilder("/out", "out", 0o755)
	if err := b.AddFile("x", fileSnap("x", "x")); err != nil {
		t.Fatal(err)
	}
	if err := b.AddDirectory("x", "/out/x", 0o755); err == nil {
		t.Error("AddDirectory over a file succeeded, want error")
	}

	b2 := NewBuilder("/out", "out", 0o755)
	if err := b2.AddDirectory("y", "/out/y", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := b2.AddFile("y", fileSnap("y", "y")); err == nil {
		t.Error("AddFile over a directory succeeded, want error")
	}
}

func TestVisitOrderIsLexicographic(t *testing.T) {
	b := NewBuilder("/out", "out", 0o755)
	for _, name := range []string{"z.txt", "a.txt", "m.txt"} {
		if err := b.AddFile(name, fileSnap(name, name)); err != nil {
			t.Fatal(err)
		}
	}

	v := &recordingVisitor{}
	b.Build().Visit(v)
	want := []string{"pre out", "file a.txt", "file m.txt", "file z.txt", "post out"}
	if len(v.events) != len(want) {
		t.Fatalf("events = %v, want %v", v.events, want)
	}
	for i := range want {
		if v.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", v.events, want)
		}
	}
}

func TestVisitSkipsChildrenWhenPreVisitReturnsFalse(t *testing.T) {
	b := NewBuilder("/out", "out", 0o755)
	if err := b.AddFile("a.txt", fileSnap("a.txt", "a")); err != nil {
		t.Fatal(err)
	}

	v := &recordingVisitor{skipDirs: true}
	b.Build().Visit(v)
	if len(v.events) != 2 || v.events[0] != "pre out" || v.events[1] != "post out" {
		t.Errorf("events = %v, want [pre out, post out]", v.events)
	}
}

func TestCaptureMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	snap, err := Capture(fs, "/does/not/exist")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if snap.Type() != Missing {
		t.Errorf("type = %v, want missing", snap.Type())
	}
	if snap.Name() != "exist" {
		t.Errorf("name = %q, want %q", snap.Name(), "exist")
	}
}

func TestCaptureRegularFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/out/result.bin", []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := Capture(fs, "/out/result.bin")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	file, ok := snap.(*FileSnapshot)
	if !ok {
		t.Fatalf("snapshot is %T, want *FileSnapshot", snap)
	}
	if want := hashing.HashBytes([]byte("data")); file.ContentHash() != want {
		t.Errorf("hash = %s, want %s", file.ContentHash(), want)
	}
}

func TestCaptureDirectoryTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/out/a.txt", []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/out/sub/b.txt", []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := Capture(fs, "/out")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	v := &recordingVisitor{}
	snap.Visit(v)
	want := []string{"pre out", "file a.txt", "pre sub", "file b.txt", "post sub", "post out"}
	if len(v.events) != len(want) {
		t.Fatalf("events = %v, want %v", v.events, want)
	}
	for i := range want {
		if v.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", v.events, want)
		}
	}
}
