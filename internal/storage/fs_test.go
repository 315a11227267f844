package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/pinpoint/internal/apperr"
	"github.com/starford/pinpoint/internal/checksum"
)

func tempDir(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempDir(t)
	content := []byte("[center]\n--\nHello\n")
	if err := s.Write("talk.pin", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("talk.pin")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempDir(t)
	if err := s.Write("img/bg/a.png", []byte("png")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("img/bg/a.png")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "png" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissing(t *testing.T) {
	s := tempDir(t)
	_, err := s.Read("nope.pin")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStat(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("talk.pin", []byte("--\nhi"))
	meta, err := s.Stat("talk.pin")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if meta.Path != "talk.pin" || meta.Size != 5 {
		t.Errorf("meta = %+v", meta)
	}
	if meta.Checksum != checksum.SumString("--\nhi") {
		t.Errorf("checksum = %q", meta.Checksum)
	}
	if meta.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}

	if _, err := s.Stat("missing.pin"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing: err = %v", err)
	}
	_ = s.Write("dir/x.png", []byte("x"))
	if _, err := s.Stat("dir"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("dir: err = %v", err)
	}
}

func TestList(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("talk.pin", []byte("--\nx"))
	_ = s.Write("b.PNG", []byte("b"))
	_ = s.Write("a.jpg", []byte("a"))
	_ = s.Write("sub/c.gif", []byte("c"))
	_ = s.Write(".cache/d.png", []byte("d"))
	_ = s.Write("notes.txt", []byte("not an image"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a.jpg", "b.PNG", "sub/c.gif"}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(items), len(want), items)
	}
	for i, p := range want {
		if items[i].Path != p {
			t.Errorf("items[%d] = %q, want %q", i, items[i].Path, p)
		}
	}
}

func TestListEmpty(t *testing.T) {
	s := tempDir(t)
	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %#v, want empty slice", items)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempDir(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.png",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("read %q: err = %v", p, err)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if _, err := s.Resolve(p); err == nil {
			t.Errorf("expected error resolving %q", p)
		}
	}
}

func TestResolve(t *testing.T) {
	s := tempDir(t)
	got, err := s.Resolve("img/bg.png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != filepath.Join(s.Root(), "img", "bg.png") {
		t.Errorf("Resolve = %q", got)
	}
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("talk.pin", []byte("original"))
	if err := s.Write("talk.pin", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("talk.pin")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".pinpoint-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp(t.TempDir(), "pinpoint-test-*")
	_ = f.Close()
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
