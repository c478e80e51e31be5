// Package s3 serves an extraction dataset from Amazon S3.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "osm-datasets", "europe/")
//	x := osmextract.New(store)
//
// # Features
//
//   - HEAD for blob sizes, ranged GETs for reads
//   - Streaming multipart uploads through the s3 manager
//   - Automatic pagination for listing
package s3
