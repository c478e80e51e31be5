// Package blobstore abstracts where an extraction dataset and its scratch
// files live.
//
// A dataset (spatial tree leaves, relation batches and their bbox indexes)
// is a set of immutable named blobs. Names use forward slashes, e.g.
// "tree/1a/nodes.oxb".
//
// # Built-in Implementations
//
//   - LocalStore: local directory, reads through mmap
//   - MemoryStore: in-process map, for tests
//   - CachingStore: block cache in front of another store
//   - s3.Store: Amazon S3 with ranged GETs
//   - minio.Store: MinIO or any S3 compatible server via minio-go
//
// Every implementation must be safe for concurrent use.
package blobstore
