package cloud

import (
	"context"

	cu "github.com/akmistry/cloud-util"
	_ "github.com/akmistry/cloud-util/all"
	"github.com/akmistry/cloud-util/cache"

	"github.com/akmistry/rangelist/internal/storage"
)

// BlobStore adapts a cloud-util blob store, optionally fronted by a local
// upload staging area and a read cache.
type BlobStore struct {
	bs cu.BlobStore
}

var _ = (storage.BlobStore)((*BlobStore)(nil))

func NewBlobStore(url, stagingDir, cacheDir string, cacheSize int64) (*BlobStore, error) {
	bs, err := cu.OpenBlobStore(url)
	if err != nil {
		return nil, err
	}
	if stagingDir != "" {
		bs, err = cache.NewStagedBlobUploader(bs, stagingDir)
		if err != nil {
			return nil, err
		}
	}
	if cacheDir != "" && cacheSize > 0 {
		bs, err = cache.NewBlockBlobCache(bs, cacheDir, cacheSize)
		if err != nil {
			return nil, err
		}
	}
	return &BlobStore{bs: bs}, nil
}

func (s *BlobStore) Open(name string) (storage.BlobReader, error) {
	return s.bs.Get(name)
}

func (s *BlobStore) Create(ctx context.Context, name string) (storage.BlobWriter, error) {
	w, err := s.bs.Put(name)
	if err != nil {
		return nil, err
	}
	context.AfterFunc(ctx, func() {
		w.Cancel()
	})
	return w, nil
}

func (s *BlobStore) Remove(name string) error {
	return s.bs.Delete(name)
}
