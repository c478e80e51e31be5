package osmextract_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract"
	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/model"
	"github.com/hupe1980/osmextract/predicate"
	"github.com/hupe1980/osmextract/testutil"
)

// Example extracts a box from a two-leaf dataset. The polyline crossing
// the box boundary is kept together with its outside point.
func Example() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	ds := &testutil.Dataset{
		Nodes: []*osm.Node{
			{ID: 1, Lon: 1, Lat: 1, Visible: true},
			{ID: 2, Lon: 2, Lat: 2, Visible: true},
			{ID: 3, Lon: 6, Lat: 1, Visible: true},
		},
		Ways: []*osm.Way{{ID: 1, Nodes: osm.WayNodes{{ID: 2}, {ID: 3}}, Visible: true}},
	}
	root := model.NewEnvelope(0, 0, 10, 10)
	if _, err := testutil.BuildFixture(ctx, store, ds, testutil.FixtureConfig{Root: root, Depth: 1}); err != nil {
		log.Fatal(err)
	}

	dir, err := os.MkdirTemp("", "osmextract-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	region := predicate.NewBox(model.NewEnvelope(0, 0, 4, 4))
	res, err := osmextract.New(store).Execute(ctx, osmextract.Query{
		Predicate: region,
		Output:    filepath.Join(dir, "out.oxb"),
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.State, res.Written())
	fmt.Println(res.Totals)
	// Output:
	// cleaned-up 4
	// points=2 polylines=1 simple=0 complex=0 extra-points=1 extra-polylines=0
}
