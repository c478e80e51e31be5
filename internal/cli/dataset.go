package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/blobstore/minio"
	"github.com/hupe1980/osmextract/blobstore/s3"
)

// Environment variables for object store access.
const (
	envS3Endpoint     = "OSMEXTRACT_S3_ENDPOINT"
	envS3PathStyle    = "OSMEXTRACT_S3_PATH_STYLE"
	envMinioEndpoint  = "OSMEXTRACT_MINIO_ENDPOINT"
	envMinioAccessKey = "OSMEXTRACT_MINIO_ACCESS_KEY"
	envMinioSecretKey = "OSMEXTRACT_MINIO_SECRET_KEY"
	envMinioRegion    = "OSMEXTRACT_MINIO_REGION"
	envMinioSecure    = "OSMEXTRACT_MINIO_SECURE"
)

type location struct {
	scheme string
	bucket string
	prefix string
	path   string
}

// parseLocation splits s3://bucket/prefix and minio://bucket/prefix URIs.
// Anything else is a local directory.
func parseLocation(s string) (location, error) {
	for _, scheme := range []string{"s3", "minio"} {
		rest, ok := strings.CutPrefix(s, scheme+"://")
		if !ok {
			continue
		}
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return location{}, fmt.Errorf("dataset %q: missing bucket", s)
		}
		return location{scheme: scheme, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
	}
	if s == "" {
		return location{}, fmt.Errorf("dataset location is required")
	}
	return location{scheme: "file", path: s}, nil
}

func openDataset(ctx context.Context, uri string) (blobstore.BlobStore, error) {
	loc, err := parseLocation(uri)
	if err != nil {
		return nil, err
	}

	switch loc.scheme {
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		endpoint := os.Getenv(envS3Endpoint)
		pathStyle, _ := strconv.ParseBool(os.Getenv(envS3PathStyle))
		client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
			if endpoint != "" {
				o.BaseEndpoint = &endpoint
			}
			o.UsePathStyle = pathStyle
		})
		return s3.NewStore(client, loc.bucket, loc.prefix), nil
	case "minio":
		secure, _ := strconv.ParseBool(os.Getenv(envMinioSecure))
		return minio.Dial(minio.Config{
			Endpoint:  os.Getenv(envMinioEndpoint),
			AccessKey: os.Getenv(envMinioAccessKey),
			SecretKey: os.Getenv(envMinioSecretKey),
			Region:    os.Getenv(envMinioRegion),
			Secure:    secure,
		}, loc.bucket, loc.prefix)
	}

	info, err := os.Stat(loc.path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset %s: not a directory", loc.path)
	}
	return blobstore.NewLocalStore(loc.path), nil
}
