// Package resource bounds the memory and I/O bandwidth an extract may use.
//
// Batches and leaves are loaded into memory whole; AcquireMemory reserves
// their encoded size against a budget before loading. Source reads can be
// throttled with a RateLimitedReader.
package resource
