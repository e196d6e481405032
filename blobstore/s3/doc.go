// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("ivf/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	backend := kv.NewBlobBackend(store)
//	lists, err := ivfstore.New(backend, nlist, codeSize)
//
// # Features
//
//   - Whole-object reads with range support
//   - Multipart uploads for large lists through the SDK upload manager
//   - CRC32C integrity checksums on upload
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
