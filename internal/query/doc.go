// Package query evaluates tree leaves and relation batches against a query
// region.
//
// Both evaluators read their inputs completely into memory, decide which
// entities belong to the result and write them in ascending id order. Every
// polyline and relation they emit is accompanied by the points and
// polylines it references, written as "additional" entities, so the merged
// output is referentially complete.
package query
