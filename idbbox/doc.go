// Package idbbox reads and writes relation batch indexes.
//
// An index lists every batch of one category with the envelope of its
// geometry. Index wraps the entries in an R-tree so queries can discard
// far-away batches before any geometry test runs.
package idbbox
