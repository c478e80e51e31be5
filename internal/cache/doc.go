// Package cache provides a byte-bounded LRU cache for immutable blob blocks.
//
// Remote dataset stores (S3, MinIO) are wrapped in a blobstore.CachingStore
// that keeps recently read blocks here, so repeated extracts over the same
// region do not refetch leaf files.
package cache
