// Package merge combines ascending entity streams into one ascending
// stream.
//
// Merge is a k-way merge over a binary heap keyed by the head entity of
// every source. Sources must be strictly ascending by (type, id). Equal
// heads across sources are duplicates: the same entity stored in more than
// one partial result. Depending on the DuplicatePolicy they are collapsed
// into one entity or reported as a ConsistencyError.
package merge
