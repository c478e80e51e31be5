// Package osmextract extracts the part of a pre-partitioned OpenStreetMap
// dataset that lies inside a query region and writes it as one ordered
// file.
//
// A dataset is a spatial tree of leaves, each holding points (nodes),
// polylines (ways) and the relations whose members are all local to the
// leaf, plus two sets of relation batches (simple and complex relations)
// indexed by their envelopes. The dataset may live on local disk or in an
// object store:
//
//	ctx := context.Background()
//	region, _ := predicate.Load("berlin.geojson")
//
//	ex := osmextract.New(blobstore.NewLocalStore("./planet-tree"),
//	    osmextract.WithLogger(osmextract.NewTextLogger(slog.LevelInfo)),
//	)
//	res, err := ex.Execute(ctx, osmextract.Query{
//	    Predicate: region,
//	    Output:    "berlin.oxb",
//	})
//
// # How a query runs
//
// Leaves fully inside the region are copied as they are. Leaves that only
// intersect it are filtered: points inside are kept, polylines with at
// least one such point are kept, and every relation of the leaf passes.
// Points and polylines that kept entities refer to are added so the result
// is complete. Relation batches are handled the same way, one batch at a
// time, with an optional relation filter.
//
// All partial files are written to a scratch directory and merged per
// category (points, polylines, simple relations, complex relations). Each
// category block of the output is ascending by id and free of duplicates.
//
// # Errors
//
// Errors can be tested with errors.Is against ErrWorkspace, ErrSourceRead,
// ErrMergeConsistency and ErrInvalidQuery. A batch whose relation filter
// selects nothing is skipped and is not an error.
package osmextract
