package kv

import (
	"context"
	"errors"

	"github.com/hupe1980/ivfstore/blobstore"
)

// BlobBackend stores every key as one blob of a blobstore.BlobStore.
type BlobBackend struct {
	store blobstore.BlobStore
}

// NewBlobBackend adapts store to Backend.
func NewBlobBackend(store blobstore.BlobStore) *BlobBackend {
	return &BlobBackend{store: store}
}

// Get implements Backend.
func (b *BlobBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := blobstore.ReadAll(ctx, b.store, key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put implements Backend.
func (b *BlobBackend) Put(ctx context.Context, key string, value []byte) error {
	return b.store.Put(ctx, key, value)
}

// List implements Lister.
func (b *BlobBackend) List(ctx context.Context, prefix string) ([]string, error) {
	return b.store.List(ctx, prefix)
}
