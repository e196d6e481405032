// Package kv defines the key-value backend that persists inverted lists and
// provides adapters and decorators for it.
//
// A Backend stores whole byte blobs by string key. Get returns the complete
// value or ErrNotFound; Put replaces the value entirely. No multi-key
// transactions are assumed.
//
// # Backends
//
//   - MemoryBackend: in-memory map, safe for concurrent use
//   - BlobBackend: any blobstore.BlobStore (local filesystem, S3, MinIO)
//   - pebble.Backend: embedded Pebble LSM (package kv/pebble)
//   - dynamodb.Backend: one DynamoDB item per key (package kv/dynamodb)
//   - Funcs: plain get/put callbacks
//
// # Decorators
//
//   - Compressed: LZ4 or ZSTD value compression
//   - RateLimited: token-bucket throttling of backend calls
//   - CountingBackend: per-key call counters
//   - FaultyBackend: error injection for tests
//
// Decorators compose:
//
//	var b kv.Backend = kv.NewBlobBackend(s3Store)
//	b = kv.NewCompressed(b, kv.CompressionZSTD)
//	b = kv.NewRateLimited(b, 200, 50)
package kv
