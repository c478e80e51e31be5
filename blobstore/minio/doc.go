// Package minio serves an extraction dataset from MinIO or any other
// S3-compatible server (Ceph, Garage, SeaweedFS) through minio-go.
//
//	store, err := minioblob.Dial(minioblob.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "osm-datasets", "europe/")
//
// Unlike the s3 package this needs no AWS SDK configuration chain, which
// keeps air-gapped deployments simple.
package minio
