package testutil

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/idbbox"
	"github.com/hupe1980/osmextract/model"
	"github.com/hupe1980/osmextract/predicate"
	"github.com/hupe1980/osmextract/tree"
)

// FixtureConfig controls the layout written by BuildFixture. Directory
// names follow the default dataset layout.
type FixtureConfig struct {
	// Root is the tree envelope. Defaults to the bounds of all nodes.
	Root model.Envelope
	// Depth is the depth of the full tree. Defaults to 2.
	Depth int
	// BatchSize is the maximum number of relations per batch. Connected
	// complex relations always share a batch. Defaults to 4.
	BatchSize int
	// Output encodes every file. Defaults to entityio.DefaultOutputConfig.
	Output *entityio.OutputConfig
}

// Batch describes one written relation batch.
type Batch struct {
	ID       int64
	Envelope model.Envelope
	// Relations are the relations the batch is responsible for.
	Relations []int64
	// SubRelations are the relations a complex batch carries only to
	// resolve the geometry of its own relations.
	SubRelations []int64
}

// Fixture is a dataset laid out in a store.
type Fixture struct {
	Tree    *tree.Tree
	Dataset *Dataset
	// LeafRelations maps relations stored in a leaf to the leaf path.
	LeafRelations  map[int64]uint64
	SimpleBatches  []Batch
	ComplexBatches []Batch
}

type leafContent struct {
	nodes map[int64]bool
	ways  map[int64]bool
	rels  []*osm.Relation
}

type builder struct {
	ds      *Dataset
	t       *tree.Tree
	primary map[int64]uint64
	leaves  map[uint64]*leafContent
	local   map[int64]uint64
}

// BuildFixture partitions ds and writes it to store: a tree of leaves
// where every point is stored in the leaf containing it, every polyline in
// each leaf holding one of its points together with copies of all its
// points, and relations in a leaf when all their members are local to it.
// All other relations go to simple or complex relation batches with the
// entities they reference and an envelope index. Complex batches also hold
// every relation their relations reach through relation members, together
// with the entities those reference.
func BuildFixture(ctx context.Context, store blobstore.BlobStore, ds *Dataset, cfg FixtureConfig) (*Fixture, error) {
	if cfg.Depth <= 0 {
		cfg.Depth = 2
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 4
	}
	out := entityio.DefaultOutputConfig()
	if cfg.Output != nil {
		out = *cfg.Output
	}
	if cfg.Root == (model.Envelope{}) || cfg.Root.IsEmpty() {
		cfg.Root = model.EmptyEnvelope()
		for _, n := range ds.Nodes {
			cfg.Root = cfg.Root.Extend(model.NodePoint(n))
		}
	}

	t, err := tree.Build(cfg.Root, cfg.Depth)
	if err != nil {
		return nil, err
	}
	b := &builder{
		ds:      ds,
		t:       t,
		primary: make(map[int64]uint64, len(ds.Nodes)),
		leaves:  make(map[uint64]*leafContent),
		local:   make(map[int64]uint64),
	}
	for _, leaf := range t.Leaves() {
		b.leaves[leaf.Path] = &leafContent{nodes: map[int64]bool{}, ways: map[int64]bool{}}
	}
	if err := b.place(); err != nil {
		return nil, err
	}

	fx := &Fixture{Tree: t, Dataset: ds, LeafRelations: b.local}
	if err := b.writeLeaves(ctx, store, out); err != nil {
		return nil, err
	}
	if err := tree.Save(ctx, store, "tree", t); err != nil {
		return nil, err
	}

	simpleGroups, complexGroups := b.batches(cfg.BatchSize)
	fx.SimpleBatches, err = b.writeBatches(ctx, store, "simple-relations", simpleGroups, false, out)
	if err != nil {
		return nil, err
	}
	fx.ComplexBatches, err = b.writeBatches(ctx, store, "complex-relations", complexGroups, true, out)
	if err != nil {
		return nil, err
	}
	return fx, nil
}

func (b *builder) place() error {
	for _, n := range b.ds.Nodes {
		leaf, ok := b.t.Locate(model.NodePoint(n))
		if !ok {
			return fmt.Errorf("testutil: node %d outside the tree", n.ID)
		}
		b.primary[int64(n.ID)] = leaf.Path
		b.leaves[leaf.Path].nodes[int64(n.ID)] = true
	}

	for _, w := range b.ds.Ways {
		for _, l := range b.wayLeaves(w) {
			lc := b.leaves[l]
			lc.ways[int64(w.ID)] = true
			for _, wn := range w.Nodes {
				lc.nodes[int64(wn.ID)] = true
			}
		}
	}

	for _, r := range b.ds.Relations {
		if l, ok := b.localLeaf(r, map[int64]bool{}); ok {
			b.local[int64(r.ID)] = l
			b.leaves[l].rels = append(b.leaves[l].rels, r)
		}
	}
	return nil
}

func (b *builder) wayLeaves(w *osm.Way) []uint64 {
	var out []uint64
	for _, wn := range w.Nodes {
		if l, ok := b.primary[int64(wn.ID)]; ok && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

// localLeaf returns the single leaf holding every member of r.
func (b *builder) localLeaf(r *osm.Relation, visiting map[int64]bool) (uint64, bool) {
	if visiting[int64(r.ID)] {
		return 0, false
	}
	visiting[int64(r.ID)] = true

	var leaf uint64
	same := func(l uint64) bool {
		if leaf == 0 {
			leaf = l
		}
		return leaf == l
	}
	for _, m := range r.Members {
		switch m.Type {
		case osm.TypeNode:
			l, ok := b.primary[m.Ref]
			if !ok || !same(l) {
				return 0, false
			}
		case osm.TypeWay:
			w, ok := b.ds.Way(m.Ref)
			if !ok {
				return 0, false
			}
			ls := b.wayLeaves(w)
			if len(ls) != 1 || !same(ls[0]) {
				return 0, false
			}
		case osm.TypeRelation:
			child, ok := b.ds.Relation(m.Ref)
			if !ok {
				return 0, false
			}
			l, ok := b.localLeaf(child, visiting)
			if !ok || !same(l) {
				return 0, false
			}
		}
	}
	return leaf, leaf != 0
}

// batches groups the relations that are not local to a leaf.
func (b *builder) batches(size int) (simpleGroups, complexGroups [][]*osm.Relation) {
	var pendingSimple []*osm.Relation
	isComplex := map[int64]bool{}
	var complexRels []*osm.Relation
	for _, r := range b.ds.Relations {
		if _, ok := b.local[int64(r.ID)]; ok {
			continue
		}
		if c, _ := model.CategoryOf(r); c == model.ComplexRelations {
			isComplex[int64(r.ID)] = true
			complexRels = append(complexRels, r)
			continue
		}
		pendingSimple = append(pendingSimple, r)
	}
	for len(pendingSimple) > 0 {
		n := min(size, len(pendingSimple))
		simpleGroups = append(simpleGroups, pendingSimple[:n])
		pendingSimple = pendingSimple[n:]
	}

	// Union-find over relation members between batched complex relations.
	parent := map[int64]int64{}
	var find func(int64) int64
	find = func(x int64) int64 {
		if p, ok := parent[x]; ok && p != x {
			parent[x] = find(p)
			return parent[x]
		}
		return x
	}
	for _, r := range complexRels {
		for _, m := range r.Members {
			if m.Type == osm.TypeRelation && isComplex[m.Ref] {
				a, c := find(int64(r.ID)), find(m.Ref)
				if a != c {
					parent[max(a, c)] = min(a, c)
				}
			}
		}
	}
	components := map[int64][]*osm.Relation{}
	var roots []int64
	for _, r := range complexRels {
		root := find(int64(r.ID))
		if _, ok := components[root]; !ok {
			roots = append(roots, root)
		}
		components[root] = append(components[root], r)
	}
	slices.Sort(roots)

	var cur []*osm.Relation
	for _, root := range roots {
		comp := components[root]
		if len(cur) > 0 && len(cur)+len(comp) > size {
			complexGroups = append(complexGroups, cur)
			cur = nil
		}
		cur = append(cur, comp...)
	}
	if len(cur) > 0 {
		complexGroups = append(complexGroups, cur)
	}
	return simpleGroups, complexGroups
}

func (b *builder) writeLeaves(ctx context.Context, store blobstore.BlobStore, cfg entityio.OutputConfig) error {
	names := tree.DefaultFileNames(cfg.Format.Extension())
	for _, leaf := range b.t.Leaves() {
		lc := b.leaves[leaf.Path]
		nodes := b.nodes(lc.nodes)
		ways := b.ways(lc.ways)
		var simpleRels, complexRels []osm.Object
		model.SortRelations(lc.rels)
		for _, r := range lc.rels {
			if c, _ := model.CategoryOf(r); c == model.ComplexRelations {
				complexRels = append(complexRels, r)
			} else {
				simpleRels = append(simpleRels, r)
			}
		}
		files := map[model.Category][]osm.Object{
			model.Points:           nodes,
			model.Polylines:        ways,
			model.SimpleRelations:  simpleRels,
			model.ComplexRelations: complexRels,
		}
		for c, objs := range files {
			if err := writeFile(ctx, store, names.LeafFile("tree", leaf, c), cfg, objs); err != nil {
				return err
			}
		}
	}
	return nil
}

// subRelations returns the relations reachable from rels through relation
// members that are not in rels themselves.
func (b *builder) subRelations(rels []*osm.Relation) []*osm.Relation {
	seen := map[int64]bool{}
	for _, r := range rels {
		seen[int64(r.ID)] = true
	}
	var out []*osm.Relation
	queue := slices.Clone(rels)
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		for _, m := range r.Members {
			if m.Type != osm.TypeRelation || seen[m.Ref] {
				continue
			}
			seen[m.Ref] = true
			if child, ok := b.ds.Relation(m.Ref); ok {
				out = append(out, child)
				queue = append(queue, child)
			}
		}
	}
	return out
}

func (b *builder) writeBatches(ctx context.Context, store blobstore.BlobStore, dir string, groups [][]*osm.Relation, nested bool, cfg entityio.OutputConfig) ([]Batch, error) {
	ext := cfg.Format.Extension()
	var out []Batch
	var entries []idbbox.Entry
	for i, own := range groups {
		id := int64(i + 1)
		nodeIDs := map[int64]bool{}
		wayIDs := map[int64]bool{}
		batch := Batch{ID: id, Envelope: model.EmptyEnvelope()}
		for _, r := range own {
			batch.Relations = append(batch.Relations, int64(r.ID))
		}
		rels := slices.Clone(own)
		if nested {
			for _, r := range b.subRelations(own) {
				batch.SubRelations = append(batch.SubRelations, int64(r.ID))
				rels = append(rels, r)
			}
		}
		for _, r := range rels {
			for _, m := range r.Members {
				switch m.Type {
				case osm.TypeNode:
					nodeIDs[m.Ref] = true
				case osm.TypeWay:
					wayIDs[m.Ref] = true
					if w, ok := b.ds.Way(m.Ref); ok {
						for _, wn := range w.Nodes {
							nodeIDs[int64(wn.ID)] = true
						}
					}
				}
			}
		}
		nodes := b.nodes(nodeIDs)
		for _, o := range nodes {
			batch.Envelope = batch.Envelope.Extend(model.NodePoint(o.(*osm.Node)))
		}

		relObjs := make([]osm.Object, len(rels))
		sorted := slices.Clone(rels)
		model.SortRelations(sorted)
		for j, r := range sorted {
			relObjs[j] = r
		}
		bdir := path.Join(dir, strconv.FormatInt(id, 10))
		if err := writeFile(ctx, store, path.Join(bdir, "nodes."+ext), cfg, nodes); err != nil {
			return nil, err
		}
		if err := writeFile(ctx, store, path.Join(bdir, "ways."+ext), cfg, b.ways(wayIDs)); err != nil {
			return nil, err
		}
		if err := writeFile(ctx, store, path.Join(bdir, "relations."+ext), cfg, relObjs); err != nil {
			return nil, err
		}
		out = append(out, batch)
		entries = append(entries, idbbox.Entry{ID: id, Envelope: batch.Envelope})
	}
	if err := idbbox.Save(ctx, store, dir+".bbox", entries); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *builder) nodes(ids map[int64]bool) []osm.Object {
	var out []osm.Object
	for _, n := range b.ds.Nodes {
		if ids[int64(n.ID)] {
			out = append(out, n)
		}
	}
	return out
}

func (b *builder) ways(ids map[int64]bool) []osm.Object {
	var out []osm.Object
	for _, w := range b.ds.Ways {
		if ids[int64(w.ID)] {
			out = append(out, w)
		}
	}
	return out
}

func writeFile(ctx context.Context, store blobstore.BlobStore, name string, cfg entityio.OutputConfig, objs []osm.Object) error {
	w, err := entityio.Create(ctx, store, name, cfg)
	if err != nil {
		return err
	}
	if err := entityio.WriteAll(w, objs...); err != nil {
		return err
	}
	return nil
}

// Inside returns the ids of the nodes inside p and of the ways with at
// least one such node.
func (d *Dataset) Inside(p predicate.Predicate) (nodes, ways []int64) {
	in := map[int64]bool{}
	for _, n := range d.Nodes {
		if p.ContainsPoint(orb.Point{n.Lon, n.Lat}) {
			in[int64(n.ID)] = true
			nodes = append(nodes, int64(n.ID))
		}
	}
	for _, w := range d.Ways {
		for _, wn := range w.Nodes {
			if in[int64(wn.ID)] {
				ways = append(ways, int64(w.ID))
				break
			}
		}
	}
	return nodes, ways
}
