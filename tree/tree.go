package tree

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/hupe1980/osmextract/model"
)

// MaxDepth bounds the tree so paths fit into a uint64.
const MaxDepth = 62

// ErrInvalidPath is returned for leaf sets that do not form a tree.
var ErrInvalidPath = errors.New("tree: invalid leaf path")

// Node is a node of the partition.
type Node struct {
	Path     uint64
	Envelope model.Envelope
	Lower    *Node
	Upper    *Node
	leaf     bool
}

// IsLeaf reports whether the node owns data files.
func (n *Node) IsLeaf() bool { return n.leaf }

// Depth is 0 for the root.
func (n *Node) Depth() int { return bits.Len64(n.Path) - 1 }

// Name is the directory name of the node: its path in lowercase hex.
func (n *Node) Name() string { return strconv.FormatUint(n.Path, 16) }

func (n *Node) String() string {
	return fmt.Sprintf("Node(%s %s)", n.Name(), n.Envelope)
}

// axis returns the split axis of n: 0 for longitude, 1 for latitude.
func (n *Node) axis() int { return n.Depth() % 2 }

func (n *Node) child(upper bool) *Node {
	if upper {
		if n.Upper == nil {
			_, env := n.Envelope.Split(n.axis())
			n.Upper = &Node{Path: n.Path<<1 | 1, Envelope: env}
		}
		return n.Upper
	}
	if n.Lower == nil {
		env, _ := n.Envelope.Split(n.axis())
		n.Lower = &Node{Path: n.Path << 1, Envelope: env}
	}
	return n.Lower
}

// Tree is an immutable spatial partition.
type Tree struct {
	root   *Node
	leaves []*Node
}

// New rebuilds a tree from its root envelope and leaf paths.
// Leaves may not nest; regions without a leaf hold no data.
func New(root model.Envelope, leafPaths []uint64) (*Tree, error) {
	if root.IsEmpty() {
		return nil, errors.New("tree: empty root envelope")
	}
	t := &Tree{root: &Node{Path: 1, Envelope: root}}

	paths := slices.Clone(leafPaths)
	slices.Sort(paths)
	for i, p := range paths {
		if p == 0 || bits.Len64(p)-1 > MaxDepth {
			return nil, fmt.Errorf("%w: %x", ErrInvalidPath, p)
		}
		if i > 0 && paths[i-1] == p {
			return nil, fmt.Errorf("%w: duplicate %x", ErrInvalidPath, p)
		}
		if err := t.insert(p); err != nil {
			return nil, err
		}
	}
	t.leaves = t.collect(t.root, nil)
	return t, nil
}

func (t *Tree) insert(path uint64) error {
	n := t.root
	for d := bits.Len64(path) - 2; d >= 0; d-- {
		if n.leaf {
			return fmt.Errorf("%w: %x is below leaf %s", ErrInvalidPath, path, n.Name())
		}
		n = n.child(path>>uint(d)&1 == 1)
	}
	if n.leaf || n.Lower != nil || n.Upper != nil {
		return fmt.Errorf("%w: %x overlaps another leaf", ErrInvalidPath, path)
	}
	n.leaf = true
	return nil
}

// Build returns a complete tree in which every leaf sits at depth.
func Build(root model.Envelope, depth int) (*Tree, error) {
	if depth < 0 || depth > MaxDepth {
		return nil, fmt.Errorf("tree: depth %d out of range", depth)
	}
	first := uint64(1) << uint(depth)
	paths := make([]uint64, 0, first)
	for p := first; p < first<<1; p++ {
		paths = append(paths, p)
	}
	return New(root, paths)
}

func (t *Tree) collect(n *Node, out []*Node) []*Node {
	if n == nil {
		return out
	}
	if n.leaf {
		return append(out, n)
	}
	out = t.collect(n.Lower, out)
	return t.collect(n.Upper, out)
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Leaves returns all leaves, lower before upper.
func (t *Tree) Leaves() []*Node { return t.leaves }

// LeafPaths returns the paths of all leaves.
func (t *Tree) LeafPaths() []uint64 {
	paths := make([]uint64, len(t.leaves))
	for i, l := range t.leaves {
		paths[i] = l.Path
	}
	return paths
}

// Query returns the leaves whose envelope intersects env, in the same
// order as Leaves.
func (t *Tree) Query(env model.Envelope) []*Node {
	var out []*Node
	var visit func(n *Node)
	visit = func(n *Node) {
		if n == nil || !n.Envelope.Intersects(env) {
			return
		}
		if n.leaf {
			out = append(out, n)
			return
		}
		visit(n.Lower)
		visit(n.Upper)
	}
	visit(t.root)
	return out
}

// Locate returns the leaf owning p. Points on a split line belong to the
// upper side. ok is false outside the root or in a region without a leaf.
func (t *Tree) Locate(p orb.Point) (*Node, bool) {
	n := t.root
	if !n.Envelope.ContainsPoint(p) {
		return nil, false
	}
	for n != nil && !n.leaf {
		axis := n.axis()
		lower, _ := n.Envelope.Split(axis)
		if p[axis] < lower.Bound().Max[axis] {
			n = n.Lower
		} else {
			n = n.Upper
		}
	}
	return n, n != nil
}
