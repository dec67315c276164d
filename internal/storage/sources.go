package storage

import (
	"context"
	"io"
)

// BlobReader is a read-only view of a stored blob. It satisfies
// rangelist.SizedReaderAt, so a dump can be loaded straight from a store.
type BlobReader interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// BlobWriter writes a new blob. The blob becomes visible under its name only
// once Close returns successfully.
type BlobWriter interface {
	io.WriteCloser
}

type BlobStore interface {
	Open(name string) (BlobReader, error)
	// Create starts writing blob |name|. If |ctx| is cancelled before the
	// writer is closed, the blob is discarded.
	Create(ctx context.Context, name string) (BlobWriter, error)
	Remove(name string) error
}
