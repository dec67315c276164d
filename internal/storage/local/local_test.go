package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestBlobStore_CreateOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blobs")
	s, err := NewBlobStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	w, err := s.Create(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("The quick brown fox jumps over the lazy dog")
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	// Not visible until closed.
	if _, err := s.Open("a"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open() before Close error %v, expected ErrNotExist", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := s.Open("a")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Size() != int64(len(data)) {
		t.Errorf("Size() %d != %d", r.Size(), len(data))
	}
	buf := make([]byte, 5)
	if n, err := r.ReadAt(buf, 4); n != 5 || err != nil || string(buf) != "quick" {
		t.Errorf("ReadAt() (%d, %v, %q) != (5, nil, quick)", n, err, buf)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir entries %d != 1, temp file left behind", len(entries))
	}

	if err := s.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Open("a"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open() after Remove error %v, expected ErrNotExist", err)
	}
}

func TestBlobStore_Replace(t *testing.T) {
	s, err := NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, data := range []string{"first version", "second"} {
		w, err := s.Create(context.Background(), "b")
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(w, data)
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	r, err := s.Open("b")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Size() != int64(len("second")) {
		t.Errorf("Size() %d != %d", r.Size(), len("second"))
	}
}

func TestBlobStore_Cancel(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBlobStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w, err := s.Create(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "partial")
	cancel()
	if err := w.Close(); !errors.Is(err, context.Canceled) {
		t.Errorf("Close() error %v != %v", err, context.Canceled)
	}
	if _, err := s.Open("c"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open() of cancelled blob error %v, expected ErrNotExist", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("dir entries %d != 0", len(entries))
	}

	if _, err := s.Create(ctx, "d"); !errors.Is(err, context.Canceled) {
		t.Errorf("Create() with cancelled context error %v", err)
	}
}
