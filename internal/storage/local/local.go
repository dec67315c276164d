package local

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/akmistry/rangelist/internal/storage"
)

const (
	tempBlobPrefix  = ".temp-"
	tempBlobPattern = tempBlobPrefix + "*"
)

var _ = (storage.BlobStore)((*BlobStore)(nil))

type fileReader struct {
	*os.File
	size int64
}

func (r *fileReader) Size() int64 {
	return r.size
}

func openFileReader(fpath string) (*fileReader, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	r := &fileReader{
		File: f,
		size: fi.Size(),
	}
	return r, nil
}

// BlobStore keeps each blob as a file in a single directory. Blobs are
// written to a temporary file and renamed into place on Close.
type BlobStore struct {
	dir string
}

func NewBlobStore(dir string) (*BlobStore, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("local.BlobStore: error making blob dir %s: %w", dir, err)
	}

	s := &BlobStore{
		dir: dir,
	}
	return s, nil
}

func (s *BlobStore) makeFilePath(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *BlobStore) Open(name string) (storage.BlobReader, error) {
	return openFileReader(s.makeFilePath(name))
}

type blobWriter struct {
	*os.File
	ctx  context.Context
	path string
}

func (w *blobWriter) Close() error {
	defer os.Remove(w.File.Name())

	if err := w.ctx.Err(); err != nil {
		w.File.Close()
		slog.Debug("local.BlobStore: discarding cancelled blob", "path", w.path)
		return err
	}
	err := w.File.Sync()
	if err != nil {
		// Close the file on sync error to avoid an FD leak
		w.File.Close()
		return err
	}
	err = w.File.Close()
	if err != nil {
		return err
	}
	return os.Rename(w.File.Name(), w.path)
}

func (s *BlobStore) Create(ctx context.Context, name string) (storage.BlobWriter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(s.dir, tempBlobPattern)
	if err != nil {
		return nil, err
	}
	return &blobWriter{
		File: f,
		ctx:  ctx,
		path: s.makeFilePath(name),
	}, nil
}

func (s *BlobStore) Remove(name string) error {
	return os.Remove(s.makeFilePath(name))
}
