package query

import (
	"context"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/filter"
	"github.com/hupe1980/osmextract/model"
	"github.com/hupe1980/osmextract/predicate"
)

var region = predicate.NewBox(model.NewEnvelope(0, 0, 10, 10))

func node(id int64, lon, lat float64) *osm.Node {
	return &osm.Node{ID: osm.NodeID(id), Lon: lon, Lat: lat, Visible: true}
}

func way(id int64, nodes ...int64) *osm.Way {
	w := &osm.Way{ID: osm.WayID(id), Visible: true}
	for _, n := range nodes {
		w.Nodes = append(w.Nodes, osm.WayNode{ID: osm.NodeID(n)})
	}
	return w
}

func relation(id int64, tags osm.Tags, members ...osm.Member) *osm.Relation {
	return &osm.Relation{ID: osm.RelationID(id), Tags: tags, Members: members, Visible: true}
}

func nodeMember(id int64) osm.Member { return osm.Member{Type: osm.TypeNode, Ref: id} }

func wayMember(id int64, role string) osm.Member {
	return osm.Member{Type: osm.TypeWay, Ref: id, Role: role}
}

func relMember(id int64) osm.Member { return osm.Member{Type: osm.TypeRelation, Ref: id} }

type files struct {
	t     *testing.T
	store blobstore.BlobStore
}

func newFiles(t *testing.T) *files {
	return &files{t: t, store: blobstore.NewMemoryStore()}
}

func (f *files) write(name string, objs ...osm.Object) entityio.FileInput {
	f.t.Helper()
	w, err := entityio.Create(context.Background(), f.store, name, entityio.DefaultOutputConfig())
	require.NoError(f.t, err)
	require.NoError(f.t, entityio.WriteAll(w, objs...))
	return entityio.FileInput{Store: f.store, Name: name, Format: entityio.FormatBlock}
}

func ids(objs []osm.Object) []int64 {
	out := make([]int64, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.ObjectID().Ref())
	}
	return out
}

func TestLeafEvaluator(t *testing.T) {
	f := newFiles(t)
	in := LeafInputs{
		Points: f.write("nodes",
			node(1, 1, 1), node(2, 20, 1), node(3, 5, 5), node(4, 30, 30), node(5, 31, 30)),
		Polylines: f.write("ways",
			way(10, 1, 2), way(11, 2, 4), way(12, 4, 5)),
		SimpleRelations:  f.write("simple", relation(100, nil, wayMember(11, ""), nodeMember(4))),
		ComplexRelations: f.write("complex", relation(200, nil, relMember(100), nodeMember(3))),
	}
	out := LeafOutputs{
		Points: &entityio.SliceWriter{}, Polylines: &entityio.SliceWriter{},
		SimpleRelations: &entityio.SliceWriter{}, ComplexRelations: &entityio.SliceWriter{},
		AdditionalPoints: &entityio.SliceWriter{}, AdditionalPolylines: &entityio.SliceWriter{},
	}

	ev := &LeafEvaluator{Predicate: region}
	tally, err := ev.Evaluate(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3}, ids(out.Points.(*entityio.SliceWriter).Objects))
	assert.Equal(t, []int64{10}, ids(out.Polylines.(*entityio.SliceWriter).Objects))
	assert.Equal(t, []int64{100}, ids(out.SimpleRelations.(*entityio.SliceWriter).Objects))
	assert.Equal(t, []int64{200}, ids(out.ComplexRelations.(*entityio.SliceWriter).Objects))
	// way 11 completes relation 100; nodes 2 and 4 complete ways 10 and 11
	assert.Equal(t, []int64{11}, ids(out.AdditionalPolylines.(*entityio.SliceWriter).Objects))
	assert.Equal(t, []int64{2, 4}, ids(out.AdditionalPoints.(*entityio.SliceWriter).Objects))

	assert.Equal(t, model.Tally{
		Points: 2, Polylines: 1, SimpleRelations: 1, ComplexRelations: 1,
		AdditionalPoints: 2, AdditionalPolylines: 1,
	}, tally)
}

func TestLeafEvaluatorMissingReferences(t *testing.T) {
	f := newFiles(t)
	in := LeafInputs{
		Points:           f.write("nodes", node(1, 1, 1)),
		Polylines:        f.write("ways", way(10, 1, 99)),
		SimpleRelations:  f.write("simple", relation(100, nil, wayMember(98, ""))),
		ComplexRelations: f.write("complex"),
	}
	points, extraPoints, extraWays := &entityio.SliceWriter{}, &entityio.SliceWriter{}, &entityio.SliceWriter{}
	out := LeafOutputs{
		Points: points, Polylines: &entityio.SliceWriter{},
		SimpleRelations: &entityio.SliceWriter{}, ComplexRelations: &entityio.SliceWriter{},
		AdditionalPoints: extraPoints, AdditionalPolylines: extraWays,
	}

	tally, err := (&LeafEvaluator{Predicate: region}).Evaluate(context.Background(), in, out)
	require.NoError(t, err)
	assert.Empty(t, extraPoints.Objects)
	assert.Empty(t, extraWays.Objects)
	assert.Equal(t, int64(1), tally.Polylines)
}

func TestLeafEvaluatorReadError(t *testing.T) {
	f := newFiles(t)
	in := LeafInputs{
		Points:    f.write("nodes", node(1, 1, 1)),
		Polylines: entityio.FileInput{Store: f.store, Name: "missing", Format: entityio.FormatBlock},
	}
	_, err := (&LeafEvaluator{Predicate: region}).Evaluate(context.Background(), in, LeafOutputs{Points: &entityio.SliceWriter{}})
	var re *entityio.ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "missing", re.Name)
}

type batchFixture struct {
	in   BatchInputs
	out  BatchOutputs
	opns int
}

func newBatch(f *files, nodes []osm.Object, ways []osm.Object, rels []osm.Object) *batchFixture {
	return &batchFixture{
		in: BatchInputs{
			Points:    f.write("batch/nodes", nodes...),
			Polylines: f.write("batch/ways", ways...),
			Relations: f.write("batch/relations", rels...),
		},
		out: BatchOutputs{Relations: &entityio.SliceWriter{}, Points: &entityio.SliceWriter{}, Polylines: &entityio.SliceWriter{}},
	}
}

func (b *batchFixture) open() (BatchOutputs, error) {
	b.opns++
	return b.out, nil
}

func (b *batchFixture) relations() []int64 { return ids(b.out.Relations.(*entityio.SliceWriter).Objects) }
func (b *batchFixture) points() []int64    { return ids(b.out.Points.(*entityio.SliceWriter).Objects) }
func (b *batchFixture) polylines() []int64 { return ids(b.out.Polylines.(*entityio.SliceWriter).Objects) }

// simpleBatch holds:
//
//	r1: node inside the region
//	r2: way crossing the region with both ends outside
//	r3: way whose envelope covers a corner of the region but whose line misses it
//	r4: far away
func simpleBatch(t *testing.T) *batchFixture {
	return newBatch(newFiles(t),
		[]osm.Object{
			node(1, 5, 5), node(2, 20, 20),
			node(3, -5, 5), node(4, 15, 5),
			node(5, -3, 8), node(6, 1, 12),
			node(7, 50, 50), node(8, 51, 51),
		},
		[]osm.Object{way(20, 3, 4), way(21, 5, 6), way(22, 7, 8)},
		[]osm.Object{
			relation(1, nil, nodeMember(1), nodeMember(2)),
			relation(2, nil, wayMember(20, "")),
			relation(3, nil, wayMember(21, "")),
			relation(4, nil, wayMember(22, "")),
		},
	)
}

func TestBatchEvaluatorSimpleExact(t *testing.T) {
	b := simpleBatch(t)
	ev := &BatchEvaluator{Predicate: region, Resolver: DirectMembers{}}

	res, err := ev.Evaluate(context.Background(), b.in, b.open)
	require.NoError(t, err)
	assert.Equal(t, 1, b.opns)
	assert.Equal(t, []int64{1, 2}, b.relations())
	assert.Equal(t, []int64{20}, b.polylines())
	assert.Equal(t, []int64{2, 3, 4}, b.points())
	assert.Equal(t, model.Tally{SimpleRelations: 2, AdditionalPoints: 3, AdditionalPolylines: 1}, res.Tally)
	assert.Equal(t, 4, res.Relations)
	assert.Equal(t, 4, res.Selected)
	assert.False(t, res.Skipped)
}

func TestBatchEvaluatorFastIsSuperset(t *testing.T) {
	exact := simpleBatch(t)
	_, err := (&BatchEvaluator{Predicate: region}).
		Evaluate(context.Background(), exact.in, exact.open)
	require.NoError(t, err)

	fast := simpleBatch(t)
	_, err = (&BatchEvaluator{Predicate: region, FastRelationTests: true}).
		Evaluate(context.Background(), fast.in, fast.open)
	require.NoError(t, err)

	assert.Subset(t, fast.relations(), exact.relations())
	assert.Equal(t, []int64{1, 2, 3}, fast.relations())
}

func TestBatchEvaluatorAreaRing(t *testing.T) {
	// a closed ring around the whole region without any vertex inside
	b := newBatch(newFiles(t),
		[]osm.Object{node(1, -5, -5), node(2, 15, -5), node(3, 15, 15), node(4, -5, 15)},
		[]osm.Object{way(10, 1, 2, 3, 4, 1)},
		[]osm.Object{
			relation(1, osm.Tags{{Key: "type", Value: "multipolygon"}}, wayMember(10, "outer")),
			relation(2, osm.Tags{{Key: "type", Value: "route"}}, wayMember(10, "")),
		},
	)
	_, err := (&BatchEvaluator{Predicate: region}).
		Evaluate(context.Background(), b.in, b.open)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, b.relations())
	assert.Equal(t, []int64{10}, b.polylines())
	assert.Equal(t, []int64{1, 2, 3, 4}, b.points())
}

func complexBatch(t *testing.T) *batchFixture {
	return newBatch(newFiles(t),
		[]osm.Object{node(1, 5, 5), node(2, 40, 40), node(3, 41, 41)},
		[]osm.Object{way(10, 2, 3)},
		[]osm.Object{
			// 5 -> 6 -> 7 -> 5 is a cycle; 7 holds the only member inside
			relation(5, nil, relMember(6), wayMember(10, "")),
			relation(6, nil, relMember(7)),
			relation(7, nil, relMember(5), nodeMember(1)),
			relation(8, nil, relMember(9), nodeMember(2)),
		},
	)
}

func TestBatchEvaluatorComplexNested(t *testing.T) {
	b := complexBatch(t)
	ev := &BatchEvaluator{Predicate: region, Resolver: NestedMembers{}}
	res, err := ev.Evaluate(context.Background(), b.in, b.open)
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 6, 7}, b.relations())
	assert.Equal(t, []int64{10}, b.polylines())
	assert.Equal(t, []int64{2, 3}, b.points())
	assert.Equal(t, int64(3), res.Tally.ComplexRelations)
	assert.Zero(t, res.Tally.SimpleRelations)
}

func TestBatchEvaluatorComplexDirect(t *testing.T) {
	b := complexBatch(t)
	ev := &BatchEvaluator{Predicate: region, Resolver: DirectMembers{}}
	_, err := ev.Evaluate(context.Background(), b.in, b.open)
	require.NoError(t, err)
	// without nested resolution only the relation with the inside node qualifies
	assert.Equal(t, []int64{7}, b.relations())
}

func TestBatchEvaluatorFilter(t *testing.T) {
	tags := func(v string) osm.Tags { return osm.Tags{{Key: "type", Value: v}} }
	b := newBatch(newFiles(t),
		[]osm.Object{node(1, 5, 5)},
		nil,
		[]osm.Object{
			relation(1, tags("route_master"), relMember(2)),
			relation(2, tags("route"), nodeMember(1)),
			relation(3, tags("route"), nodeMember(1)),
		},
	)
	fs, err := filter.ParseSet([]string{"type=route_master"})
	require.NoError(t, err)

	ev := &BatchEvaluator{Predicate: region, Resolver: NestedMembers{}, Filter: fs}
	res, err := ev.Evaluate(context.Background(), b.in, b.open)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Selected)
	assert.Equal(t, []int64{1, 2}, b.relations())
	// relation 2 has no relation members and is tallied as simple
	assert.Equal(t, int64(1), res.Tally.ComplexRelations)
	assert.Equal(t, int64(1), res.Tally.SimpleRelations)
}

func TestBatchEvaluatorEmptySelection(t *testing.T) {
	b := simpleBatch(t)
	fs, err := filter.ParseSet([]string{"type=nothing"})
	require.NoError(t, err)

	ev := &BatchEvaluator{Predicate: region, Filter: fs}
	res, err := ev.Evaluate(context.Background(), b.in, b.open)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 0, b.opns)
	assert.Equal(t, model.Tally{}, res.Tally)
}

func TestBatchEvaluatorEmptyBatch(t *testing.T) {
	b := newBatch(newFiles(t), nil, nil, nil)
	res, err := (&BatchEvaluator{Predicate: region}).Evaluate(context.Background(), b.in, b.open)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 0, b.opns)
}
