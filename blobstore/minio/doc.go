// Package minio provides a MinIO/S3-compatible implementation of blobstore.BlobStore.
//
// # Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	store := minioblob.NewStore(client, "my-bucket", "ivf/")
//	backend := kv.NewBlobBackend(store)
//
// Keys are stored below the root prefix, so a list key "list-3/ids" becomes
// the object "ivf/list-3/ids".
package minio
