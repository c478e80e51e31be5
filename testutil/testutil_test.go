package testutil

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/idbbox"
	"github.com/hupe1980/osmextract/model"
	"github.com/hupe1980/osmextract/predicate"
	"github.com/hupe1980/osmextract/tree"
)

var testEnv = model.NewEnvelope(0, 0, 10, 10)

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	p1 := rng.Point(testEnv)
	rng.Reset()
	p2 := rng.Point(testEnv)

	assert.Equal(t, p1, p2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestPointRounded(t *testing.T) {
	rng := NewRNG(1)
	for range 100 {
		p := rng.Point(testEnv)
		assert.True(t, testEnv.ContainsPoint(p))
		assert.Equal(t, Round(p[0]), p[0])
		assert.Equal(t, Round(p[1]), p[1])
	}
}

func TestDataset(t *testing.T) {
	ds := NewRNG(7).Dataset(testEnv, DatasetConfig{Nodes: 200, SimpleRelations: 10, ComplexRelations: 5})

	require.NotEmpty(t, ds.Nodes)
	require.Len(t, ds.Ways, 50)
	require.Len(t, ds.Relations, 15)

	for _, w := range ds.Ways {
		require.GreaterOrEqual(t, len(w.Nodes), 2)
		for _, wn := range w.Nodes {
			_, ok := ds.Node(int64(wn.ID))
			assert.True(t, ok, "way %d node %d", w.ID, wn.ID)
		}
	}

	complexCount := 0
	for _, r := range ds.Relations {
		if c, _ := model.CategoryOf(r); c == model.ComplexRelations {
			complexCount++
		}
	}
	assert.Equal(t, 5, complexCount)
}

func TestBuildFixture(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ds := NewRNG(11).Dataset(testEnv, DatasetConfig{Nodes: 300, SimpleRelations: 20, ComplexRelations: 8})

	fx, err := BuildFixture(ctx, store, ds, FixtureConfig{Root: testEnv, Depth: 3, BatchSize: 3})
	require.NoError(t, err)

	tr, err := tree.Open(ctx, store, "tree")
	require.NoError(t, err)
	assert.Equal(t, fx.Tree.LeafPaths(), tr.LeafPaths())

	// Every relation is stored exactly once.
	seen := map[int64]int{}
	for id := range fx.LeafRelations {
		seen[id]++
	}
	for _, b := range append(fx.SimpleBatches, fx.ComplexBatches...) {
		for _, id := range b.Relations {
			seen[id]++
		}
	}
	require.Len(t, seen, len(ds.Relations))
	for id, n := range seen {
		assert.Equal(t, 1, n, "relation %d", id)
	}

	entries, err := idbbox.Load(ctx, store, "simple-relations.bbox")
	require.NoError(t, err)
	assert.Len(t, entries, len(fx.SimpleBatches))

	// Each leaf holds its own points.
	names := tree.DefaultFileNames(entityio.FormatBlock.Extension())
	total := 0
	for _, leaf := range tr.Leaves() {
		var ents entityio.Entities
		in := entityio.FileInput{Store: store, Name: names.LeafFile("tree", leaf, model.Points), Format: entityio.FormatBlock}
		require.NoError(t, entityio.ReadInto(ctx, in, &ents))
		for _, n := range ents.Nodes {
			if l, _ := tr.Locate(model.NodePoint(n)); l == leaf {
				total++
			}
		}
	}
	assert.Equal(t, len(ds.Nodes), total)
}

func TestBuildFixtureComplexBatchesAreSelfContained(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ds := NewRNG(11).Dataset(testEnv, DatasetConfig{Nodes: 300, SimpleRelations: 20, ComplexRelations: 8})

	fx, err := BuildFixture(ctx, store, ds, FixtureConfig{Root: testEnv, Depth: 3, BatchSize: 3})
	require.NoError(t, err)
	require.NotEmpty(t, fx.ComplexBatches)

	subs := 0
	for _, b := range fx.ComplexBatches {
		var ents entityio.Entities
		for _, file := range []string{"nodes", "ways", "relations"} {
			in := entityio.FileInput{Store: store, Name: fmt.Sprintf("complex-relations/%d/%s.oxb", b.ID, file), Format: entityio.FormatBlock}
			require.NoError(t, entityio.ReadInto(ctx, in, &ents))
		}
		subs += len(b.SubRelations)

		for _, id := range append(slices.Clone(b.Relations), b.SubRelations...) {
			_, ok := model.FindRelation(ents.Relations, id)
			assert.True(t, ok, "batch %d misses relation %d", b.ID, id)
		}
		for _, r := range ents.Relations {
			for _, m := range r.Members {
				var ok bool
				switch m.Type {
				case osm.TypeNode:
					_, ok = model.FindNode(ents.Nodes, m.Ref)
				case osm.TypeWay:
					_, ok = model.FindWay(ents.Ways, m.Ref)
				case osm.TypeRelation:
					_, ok = model.FindRelation(ents.Relations, m.Ref)
				}
				assert.True(t, ok, "batch %d: relation %d misses %s %d", b.ID, r.ID, m.Type, m.Ref)
			}
		}
	}
	assert.Positive(t, subs, "complex relations reference simple ones")
}

func TestInside(t *testing.T) {
	ds := NewRNG(3).Dataset(testEnv, DatasetConfig{Nodes: 100})
	nodes, ways := ds.Inside(predicate.NewBox(model.NewEnvelope(0, 0, 5, 5)))

	for _, id := range nodes {
		n, _ := ds.Node(id)
		assert.True(t, n.Lon <= 5 && n.Lat <= 5)
	}
	assert.LessOrEqual(t, len(ways), len(ds.Ways))
}
