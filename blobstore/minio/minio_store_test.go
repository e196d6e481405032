package minio

import (
	"context"
	"testing"

	"github.com/hupe1980/ivfstore/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-ivfstore"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	_, err = client.ListBuckets(ctx)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	store := NewStore(client, bucket, "test-prefix/")

	// Test Put and Open
	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "list-0/codes", data))

	got, err := blobstore.ReadAll(ctx, store, "list-0/codes")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Test List
	names, err := store.List(ctx, "list-0/")
	require.NoError(t, err)
	assert.Contains(t, names, "list-0/codes")

	// Test Delete
	require.NoError(t, store.Delete(ctx, "list-0/codes"))
	_, err = store.Open(ctx, "list-0/codes")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "/root/")
	assert.Equal(t, "root/list-1/ids", s.key("list-1/ids"))

	s = NewStore(nil, "bucket", "")
	assert.Equal(t, "list-1/ids", s.key("list-1/ids"))
}
