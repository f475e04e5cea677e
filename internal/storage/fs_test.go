package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/relink/internal/apperr"
)

func tempCorpus(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func writeRaw(t *testing.T, s *FS, rel, content string) {
	t.Helper()
	abs := filepath.Join(s.Root(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWriteAndRead(t *testing.T) {
	s := tempCorpus(t)
	writeRaw(t, s, "note.md", "old")
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWritePreservesMode(t *testing.T) {
	s := tempCorpus(t)
	writeRaw(t, s, "mode.md", "x")
	abs := filepath.Join(s.Root(), "mode.md")
	if err := os.Chmod(abs, 0o640); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("mode.md", []byte("y")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
}

func TestRename(t *testing.T) {
	s := tempCorpus(t)
	writeRaw(t, s, "sub/Old Name.md", "data")
	if err := s.Rename("sub/Old Name.md", "sub/old_name.md"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, err := s.Read("sub/old_name.md")
	if err != nil {
		t.Fatalf("Read after rename: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
}

func TestRenameReplacesDestination(t *testing.T) {
	s := tempCorpus(t)
	writeRaw(t, s, "a.md", "from a")
	writeRaw(t, s, "b.md", "from b")
	if err := s.Rename("a.md", "b.md"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, _ := s.Read("b.md")
	if string(got) != "from a" {
		t.Errorf("content = %q, want %q", got, "from a")
	}
}

func TestList(t *testing.T) {
	s := tempCorpus(t)
	writeRaw(t, s, "b.md", "b")
	writeRaw(t, s, "a.md", "a")
	writeRaw(t, s, "sub/c.md", "c")
	writeRaw(t, s, "readme.txt", "not md")
	writeRaw(t, s, "upper.MD", "wrong case")
	writeRaw(t, s, ".md", "no stem")
	if err := os.MkdirAll(filepath.Join(s.Root(), "dir.md"), 0o755); err != nil {
		t.Fatal(err)
	}

	items, err := s.List("md", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a.md", "b.md", "sub/c.md"}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("List = %v, want %v", items, want)
	}
}

func TestList_Exclude(t *testing.T) {
	s := tempCorpus(t)
	writeRaw(t, s, "keep.md", "k")
	writeRaw(t, s, ".obsidian/plugin.md", "x")
	writeRaw(t, s, "drafts/deep/wip.md", "x")
	writeRaw(t, s, "templates/tpl.md", "x")

	items, err := s.List("md", []string{".obsidian", "drafts/**", "**/tpl.md"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(items, []string{"keep.md"}) {
		t.Errorf("List = %v", items)
	}
}

func TestList_SkipsUnreadableDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	s := tempCorpus(t)
	writeRaw(t, s, "ok.md", "ok")
	writeRaw(t, s, "locked/hidden.md", "x")
	locked := filepath.Join(s.Root(), "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	items, err := s.List("md", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(items, []string{"ok.md"}) {
		t.Errorf("List = %v", items)
	}
}

func TestExistsAndSameFile(t *testing.T) {
	s := tempCorpus(t)
	writeRaw(t, s, "x.md", "x")
	writeRaw(t, s, "y.md", "y")

	ok, err := s.Exists("x.md")
	if err != nil || !ok {
		t.Errorf("Exists(x.md) = %v, %v", ok, err)
	}
	ok, err = s.Exists("missing.md")
	if err != nil || ok {
		t.Errorf("Exists(missing.md) = %v, %v", ok, err)
	}
	same, err := s.SameFile("x.md", "./x.md")
	if err != nil || !same {
		t.Errorf("SameFile(x, ./x) = %v, %v", same, err)
	}
	same, err = s.SameFile("x.md", "y.md")
	if err != nil || same {
		t.Errorf("SameFile(x, y) = %v, %v", same, err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempCorpus(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if err := s.Rename(p, "in.md"); err == nil {
			t.Errorf("expected error for rename from %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	s := tempCorpus(t)
	writeRaw(t, s, "atomic.md", "original content")

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".relink-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "relink-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if !errors.Is(err, apperr.ErrNotDirectory) {
		t.Errorf("err = %v, want ErrNotDirectory", err)
	}
}
