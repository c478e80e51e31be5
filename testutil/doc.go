// Package testutil provides testing utilities for osmextract.
//
// This package is intended for use in tests only. It generates random
// datasets from a seeded RNG and lays them out as a partitioned dataset
// (tree leaves, relation batches and their indexes) in any blob store.
//
// # Random Datasets
//
//	rng := testutil.NewRNG(seed)
//	ds := rng.Dataset(model.NewEnvelope(0, 0, 10, 10), testutil.DatasetConfig{Nodes: 500})
//
// # Fixtures
//
//	fx, err := testutil.BuildFixture(ctx, store, ds, testutil.FixtureConfig{Depth: 3})
package testutil
