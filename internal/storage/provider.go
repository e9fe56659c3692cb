package storage

import (
	"context"
	"io"
)

// Provider is the object-storage capability the asset layer is built on:
// persist a blob under a key, get it back later. Both the filesystem and the
// S3 backends satisfy it, so everything above stays backend-agnostic.
type Provider interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) bool
	Save(ctx context.Context, key string, body io.Reader) error
	Delete(ctx context.Context, key string) error
}
