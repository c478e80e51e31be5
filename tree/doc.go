// Package tree models the spatial partition of an extraction dataset.
//
// The tree is a binary kd partition of a root envelope. A node's path
// encodes its position: the root is 1, the lower child of p is p<<1 and the
// upper child p<<1|1. Nodes at even depth split longitude, nodes at odd
// depth split latitude, always at the midpoint. Leaves are stored under a
// directory named by the lowercase hex of their path, each with four entity
// files (points, polylines, simple and complex relations).
//
// The set of leaves is persisted in a small binary manifest, tree.info,
// at the top of the tree directory.
package tree
