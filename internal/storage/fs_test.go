package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestFS(t *testing.T) (string, *FS) {
	t.Helper()
	root := t.TempDir()
	f, err := NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, f
}

func TestWriteAndRead(t *testing.T) {
	_, f := newTestFS(t)
	content := []byte("---\ntitle: A\n---\n\nBody.\n")

	if err := f.Write("notes/a.md", content); err != nil {
		t.Fatal(err)
	}
	got, err := f.Read("notes/a.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("read back %q", got)
	}
}

func TestRead_Missing(t *testing.T) {
	_, f := newTestFS(t)
	_, err := f.Read("ghost.md")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestWrite_Overwrite(t *testing.T) {
	_, f := newTestFS(t)
	if err := f.Write("a.md", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := f.Write("a.md", []byte("two")); err != nil {
		t.Fatal(err)
	}
	got, _ := f.Read("a.md")
	if string(got) != "two" {
		t.Errorf("got %q", got)
	}
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	root, f := newTestFS(t)
	if err := f.Write("a.md", []byte("x")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "a.md" {
			t.Errorf("unexpected entry %s", e.Name())
		}
	}
}

func TestSafePath_RejectsTraversal(t *testing.T) {
	root, f := newTestFS(t)
	outside := filepath.Join(filepath.Dir(root), "outside.md")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := f.Read("../outside.md"); err == nil {
		t.Error("traversal read allowed")
	}
	if err := f.Write("../evil.md", []byte("x")); err == nil {
		t.Error("traversal write allowed")
	}
	if _, err := f.Read("/etc/hostname"); err == nil {
		t.Error("absolute path allowed")
	}
}

func TestList(t *testing.T) {
	_, f := newTestFS(t)
	if err := f.Write("a.md", []byte("A")); err != nil {
		t.Fatal(err)
	}
	if err := f.Write("sub/b.md", []byte("B")); err != nil {
		t.Fatal(err)
	}
	if err := f.Write("sub/skip.txt", []byte("not markdown")); err != nil {
		t.Fatal(err)
	}

	infos, err := f.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("infos = %v", infos)
	}
	paths := map[string]bool{}
	for _, info := range infos {
		paths[info.Path] = true
		if info.Checksum == "" {
			t.Errorf("%s: empty checksum", info.Path)
		}
		if info.UpdatedAt.IsZero() {
			t.Errorf("%s: zero mtime", info.Path)
		}
	}
	if !paths["a.md"] || !paths[filepath.Join("sub", "b.md")] {
		t.Errorf("paths = %v", paths)
	}

	sub, err := f.List("sub")
	if err != nil {
		t.Fatal(err)
	}
	if len(sub) != 1 {
		t.Errorf("sub = %v", sub)
	}
}

func TestNewFS_RequiresExistingDir(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}
